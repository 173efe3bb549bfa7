package pipeline

import (
	"context"
	"log/slog"
	"time"
)

// Pass runs one complete drain of the mailbox. Watch mode gets a fresh
// mailbox session per pass, so the closure reconnects and tears down around
// each call.
type Pass func(ctx context.Context) (Report, error)

type RunnerOptions struct {
	Interval       time.Duration
	RetryBaseDelay time.Duration
	MaxRetryDelay  time.Duration
}

// Runner repeats passes until the context ends. Failed passes are retried
// with doubling delays up to a cap instead of killing the process; the first
// successful pass resets the backoff. One Runner owns the mailbox account the
// whole time it runs, which keeps the session single-consumer between passes.
type Runner struct {
	pass      Pass
	interval  time.Duration
	retryBase time.Duration
	maxRetry  time.Duration
	logger    *slog.Logger
}

func NewRunner(pass Pass, logger *slog.Logger, opts RunnerOptions) *Runner {
	interval := opts.Interval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	retryBase := opts.RetryBaseDelay
	if retryBase <= 0 {
		retryBase = 15 * time.Second
	}
	maxRetry := opts.MaxRetryDelay
	if maxRetry <= 0 {
		maxRetry = 10 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		pass:      pass,
		interval:  interval,
		retryBase: retryBase,
		maxRetry:  maxRetry,
		logger:    logger,
	}
}

// Run loops passes until ctx is done. It returns the context's error so the
// caller can tell an interrupt from a timeout.
func (r *Runner) Run(ctx context.Context) error {
	failures := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		report, err := r.pass(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			failures++
			delay := r.retryDelay(failures)
			r.logger.Error("pass failed, backing off",
				"error", err, "consecutive_failures", failures, "retry_in", delay)
			if !sleep(ctx, delay) {
				return ctx.Err()
			}
			continue
		}

		failures = 0
		r.logger.Info("pass complete",
			"listed", report.Listed,
			"skipped", report.Skipped,
			"tickets", report.Tickets,
			"bounces", report.Bounces,
			"deferred", report.Deferred,
			"delete_failures", report.DeleteFailures,
		)
		if !sleep(ctx, r.interval) {
			return ctx.Err()
		}
	}
}

func (r *Runner) retryDelay(failures int) time.Duration {
	if failures < 1 {
		failures = 1
	}
	delay := r.retryBase
	for i := 1; i < failures; i++ {
		delay *= 2
		if delay >= r.maxRetry {
			return r.maxRetry
		}
	}
	if delay > r.maxRetry {
		return r.maxRetry
	}
	return delay
}

// sleep waits for d, reporting false when ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
