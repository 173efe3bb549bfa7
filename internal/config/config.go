// Package config loads the one configuration value every component receives
// at startup. Values come from the environment, optionally seeded from a .env
// file; nothing else in the process reads environment variables.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required"`

	// Mailbox session. Host is required to run a pass but not for the
	// store-only subcommands. Port 0 picks the protocol default for the
	// backend and TLS setting (995/110 for POP3, 993/143 for IMAP).
	MailboxBackend     string        `env:"MAILBOX_BACKEND" envDefault:"pop3"`
	MailboxHost        string        `env:"MAILBOX_HOST"`
	MailboxPort        int           `env:"MAILBOX_PORT" envDefault:"0"`
	MailboxUsername    string        `env:"MAILBOX_USERNAME"`
	MailboxPassword    string        `env:"MAILBOX_PASSWORD"`
	MailboxTLS         bool          `env:"MAILBOX_TLS" envDefault:"true"`
	MailboxDialTimeout time.Duration `env:"MAILBOX_DIAL_TIMEOUT" envDefault:"30s"`

	// Storage. AttachDir holds rendered bodies and attachment files; only
	// its base name is recorded on ticket rows. StateDir holds the
	// consumed-message set and the ticket token log. Backend "s3" (or "r2")
	// swaps the attachment directory for a bucket.
	BlobBackend string `env:"BLOB_BACKEND" envDefault:"filesystem"`
	AttachDir   string `env:"ATTACH_DIR" envDefault:"attachments"`
	StateDir    string `env:"STATE_DIR" envDefault:"data"`

	S3Bucket          string `env:"S3_BUCKET"`
	S3Region          string `env:"S3_REGION"`
	S3Endpoint        string `env:"S3_ENDPOINT"`
	S3AccessKeyID     string `env:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"S3_SECRET_ACCESS_KEY"`
	S3ForcePathStyle  bool   `env:"S3_FORCE_PATH_STYLE" envDefault:"false"`

	// LockTimeout bounds how long a ticket transaction waits on the
	// allocator's table lock before the message is deferred to the next run.
	LockTimeout time.Duration `env:"LOCK_TIMEOUT" envDefault:"10s"`

	// StoreRateLimit throttles messages per second against the shared
	// database. Zero disables the throttle.
	StoreRateLimit float64 `env:"STORE_RATE_LIMIT" envDefault:"0"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"` // "json" or "text"
}

// Load parses the environment into a Config. When envFile is non-empty it is
// loaded first and must exist; otherwise a .env in the working directory is
// picked up when present. Neither overrides variables already set.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	} else {
		_ = godotenv.Load()
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if cfg.MailboxDialTimeout <= 0 {
		return nil, errors.New("MAILBOX_DIAL_TIMEOUT must be positive")
	}
	if cfg.LockTimeout <= 0 {
		return nil, errors.New("LOCK_TIMEOUT must be positive")
	}
	if cfg.StoreRateLimit < 0 {
		return nil, errors.New("STORE_RATE_LIMIT must not be negative")
	}

	return cfg, nil
}

// SeenFile is the path of the consumed-message snapshot.
func (c *Config) SeenFile() string {
	return filepath.Join(c.StateDir, "seen_messages.json")
}

// TokenFile is the path of the ticket token log.
func (c *Config) TokenFile() string {
	return filepath.Join(c.StateDir, "ticket_tokens.json")
}
