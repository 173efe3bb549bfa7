package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/loywise/maildesk/internal/config"
	"github.com/loywise/maildesk/internal/pipeline"
)

var watchInterval time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Drain the mailbox on an interval until interrupted",
	Long: "watch repeats mailbox passes with a pause in between, reconnecting the " +
		"mailbox for every pass. Failed passes are retried with increasing delays. " +
		"Run at most one watcher per mailbox account; the ticket database may be " +
		"shared with other instances.",
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

		runner := pipeline.NewRunner(a.pass, logger.With("component", "runner"), pipeline.RunnerOptions{
			Interval: watchInterval,
		})
		logger.Info("watching mailbox", "host", cfg.MailboxHost, "interval", watchInterval)

		if err := runner.Run(ctx); !errors.Is(err, context.Canceled) {
			return err
		}
		logger.Info("watch stopped")
		return nil
	},
}

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 5*time.Minute, "pause between mailbox passes")
	rootCmd.AddCommand(watchCmd)
}
