package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/loywise/maildesk/internal/blob"
	"github.com/loywise/maildesk/internal/config"
	"github.com/loywise/maildesk/internal/database"
	"github.com/loywise/maildesk/internal/kvfile"
	"github.com/loywise/maildesk/internal/mailbox"
	"github.com/loywise/maildesk/internal/pipeline"
	"github.com/loywise/maildesk/internal/ratelimit"
	"github.com/loywise/maildesk/internal/store/postgres"
	"github.com/loywise/maildesk/migrations"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:   "maildesk",
	Short: "Drain the support mailbox into the ticket database",
	Long: "maildesk connects to the support mailbox, turns every new message into " +
		"a ticket (or an undelivered-mail record), stores rendered bodies and " +
		"attachments, and deletes consumed messages from the mailbox. " +
		"One invocation makes one pass; use the watch subcommand or a scheduler " +
		"to repeat it.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(envFile)
		if err != nil {
			return err
		}
		logger := setupLogger(cfg.LogLevel, cfg.LogFormat)
		slog.SetDefault(logger)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := openApp(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		report, err := a.pass(ctx)
		logger.Info("pass finished",
			"listed", report.Listed,
			"skipped", report.Skipped,
			"tickets", report.Tickets,
			"bounces", report.Bounces,
			"deferred", report.Deferred,
			"delete_failures", report.DeleteFailures,
		)
		if err != nil {
			return fmt.Errorf("pipeline pass: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "path of a .env file loaded before reading the environment")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// app holds the components that live for the whole process. Mailbox sessions
// are not among them: each pass dials its own and closes it, because closing
// is what finalizes deletions.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	db       *sqlx.DB
	blobs    blob.Store
	seen     *kvfile.DedupSet
	tokens   *kvfile.TokenLog
	throttle *ratelimit.Throttle
}

func openApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	if cfg.MailboxHost == "" {
		return nil, errors.New("MAILBOX_HOST is required")
	}

	db, err := postgres.NewDB(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := database.RunMigrations(migrations.FS, cfg.DatabaseURL); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	blobs, err := blob.NewFromConfig(ctx, blob.Config{
		Backend:           cfg.BlobBackend,
		Root:              cfg.AttachDir,
		S3Bucket:          cfg.S3Bucket,
		S3Region:          cfg.S3Region,
		S3Endpoint:        cfg.S3Endpoint,
		S3AccessKeyID:     cfg.S3AccessKeyID,
		S3SecretAccessKey: cfg.S3SecretAccessKey,
		S3ForcePathStyle:  cfg.S3ForcePathStyle,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open blob store: %w", err)
	}

	seenStore, err := kvfile.NewStore(cfg.SeenFile())
	if err != nil {
		db.Close()
		return nil, err
	}
	seen, err := kvfile.LoadDedupSet(seenStore)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("load consumed-message set: %w", err)
	}
	tokenStore, err := kvfile.NewStore(cfg.TokenFile())
	if err != nil {
		db.Close()
		return nil, err
	}
	tokens, err := kvfile.LoadTokenLog(tokenStore)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("load ticket token log: %w", err)
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		blobs:    blobs,
		seen:     seen,
		tokens:   tokens,
		throttle: ratelimit.New(cfg.StoreRateLimit),
	}, nil
}

func (a *app) Close() {
	a.db.Close()
}

// pass dials a fresh mailbox session, drains it once, and closes it.
func (a *app) pass(ctx context.Context) (pipeline.Report, error) {
	source, err := mailbox.NewFromConfig(mailbox.Config{
		Backend:     a.cfg.MailboxBackend,
		Host:        a.cfg.MailboxHost,
		Port:        a.cfg.MailboxPort,
		Username:    a.cfg.MailboxUsername,
		Password:    a.cfg.MailboxPassword,
		TLS:         a.cfg.MailboxTLS,
		DialTimeout: a.cfg.MailboxDialTimeout,
	})
	if err != nil {
		return pipeline.Report{}, fmt.Errorf("connect to mailbox: %w", err)
	}

	pipe := pipeline.New(pipeline.Deps{
		Source:    source,
		Members:   postgres.NewMemberStore(a.db),
		Tickets:   postgres.NewTicketStore(a.db, a.cfg.LockTimeout),
		Bounces:   postgres.NewUndeliveredStore(a.db),
		Blobs:     a.blobs,
		Seen:      a.seen,
		Tokens:    a.tokens,
		Throttle:  a.throttle,
		Logger:    a.logger.With("component", "pipeline"),
		AttachDir: a.cfg.AttachDir,
	})

	report, runErr := pipe.Run(ctx)

	// Closing finalizes pending mailbox deletions; a failure here means
	// consumed messages may be redelivered. The consumed set absorbs that
	// on the next pass.
	if err := source.Close(); err != nil {
		a.logger.Error("closing mailbox session failed", "error", err)
	}
	return report, runErr
}

func setupLogger(level, format string) *slog.Logger {
	var handler slog.Handler
	logLevel := parseLevel(level)

	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: logLevel,
		})
	} else {
		handler = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      logLevel,
			TimeFormat: time.DateTime,
		})
	}

	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
