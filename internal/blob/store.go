// Package blob stores the files a ticket leaves behind: the rendered body
// document and any attachment parts. Keys are slash-separated and scoped by
// ticket number, so one ticket's files can be listed or cleaned up together.
package blob

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrObjectNotFound = errors.New("blob object not found")

type Store interface {
	Put(ctx context.Context, key, contentType string, body []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// BodyKey is the storage key of a ticket's rendered body document. The same
// string, prefixed with the attachment directory's base name, is what ticket
// rows record as their body path.
func BodyKey(ticketNo int64) string {
	return strconv.FormatInt(ticketNo, 10) + ".html"
}

// AttachmentKey places an attachment file inside its ticket's folder.
func AttachmentKey(ticketNo int64, name string) string {
	return fmt.Sprintf("%d/%s", ticketNo, name)
}

// Config selects and parameterizes a backend. The filesystem backend writes
// under Root (the attachment directory); the s3/r2 backend writes to a bucket
// instead, for deployments where pipeline hosts share no disk.
type Config struct {
	Backend string
	Root    string

	S3Bucket          string
	S3Region          string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3ForcePathStyle  bool
}

func NewFromConfig(ctx context.Context, cfg Config) (Store, error) {
	backend := strings.ToLower(strings.TrimSpace(cfg.Backend))
	if backend == "" {
		backend = "filesystem"
	}

	switch backend {
	case "filesystem", "fs", "local":
		return NewFilesystemStore(cfg.Root)
	case "s3", "r2":
		return NewS3Store(ctx, S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			ForcePathStyle:  cfg.S3ForcePathStyle,
		})
	default:
		return nil, fmt.Errorf("unsupported blob backend: %s", backend)
	}
}
