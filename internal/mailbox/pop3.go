package mailbox

import (
	"context"
	"fmt"
	"time"

	"github.com/knadh/go-pop3"
)

type POP3Source struct {
	conn *pop3.Conn
}

func NewPOP3Source(cfg Config) (*POP3Source, error) {
	port := cfg.Port
	if port == 0 {
		if cfg.TLS {
			port = 995
		} else {
			port = 110
		}
	}
	timeout := cfg.DialTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client := pop3.New(pop3.Opt{
		Host:        cfg.Host,
		Port:        port,
		TLSEnabled:  cfg.TLS,
		DialTimeout: timeout,
	})
	conn, err := client.NewConn()
	if err != nil {
		return nil, fmt.Errorf("pop3 connect %s:%d: %w", cfg.Host, port, err)
	}
	if err := conn.Auth(cfg.Username, cfg.Password); err != nil {
		conn.Quit()
		return nil, fmt.Errorf("pop3 auth: %w", err)
	}
	return &POP3Source{conn: conn}, nil
}

// List enumerates every message in the maildrop with its server-assigned UID.
func (s *POP3Source) List(_ context.Context) ([]Item, error) {
	ids, err := s.conn.Uidl(0)
	if err != nil {
		return nil, fmt.Errorf("pop3 uidl: %w", err)
	}
	items := make([]Item, 0, len(ids))
	for _, id := range ids {
		items = append(items, Item{Seq: id.ID, UID: id.UID})
	}
	return items, nil
}

func (s *POP3Source) Fetch(_ context.Context, seq int) ([]byte, error) {
	buf, err := s.conn.RetrRaw(seq)
	if err != nil {
		return nil, fmt.Errorf("pop3 retr %d: %w", seq, err)
	}
	return buf.Bytes(), nil
}

func (s *POP3Source) Delete(_ context.Context, seq int) error {
	if err := s.conn.Dele(seq); err != nil {
		return fmt.Errorf("pop3 dele %d: %w", seq, err)
	}
	return nil
}

// Close finalizes pending deletions with QUIT.
func (s *POP3Source) Close() error {
	return s.conn.Quit()
}
