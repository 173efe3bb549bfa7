// Package mailbox connects to the inbound mail account and hands the
// pipeline raw messages with stable identifiers. A session is exclusively
// owned by one pipeline run; deletions become final when it closes cleanly.
package mailbox

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Item is one listed message. Seq addresses it within this session; UID
// survives across sessions and keys the consumed-message set.
type Item struct {
	Seq int
	UID string
}

type Source interface {
	List(ctx context.Context) ([]Item, error)
	Fetch(ctx context.Context, seq int) ([]byte, error)
	// Delete marks the message for removal. Removal is finalized by Close.
	Delete(ctx context.Context, seq int) error
	Close() error
}

type Config struct {
	Backend     string
	Host        string
	Port        int
	Username    string
	Password    string
	TLS         bool
	DialTimeout time.Duration
}

func NewFromConfig(cfg Config) (Source, error) {
	backend := strings.ToLower(strings.TrimSpace(cfg.Backend))
	if backend == "" {
		backend = "pop3"
	}

	switch backend {
	case "pop3", "pop3s":
		return NewPOP3Source(cfg)
	case "imap", "imaps":
		return NewIMAPSource(cfg)
	default:
		return nil, fmt.Errorf("unsupported mailbox backend: %s", backend)
	}
}
