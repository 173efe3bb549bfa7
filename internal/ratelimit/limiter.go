// Package ratelimit provides the optional throttle applied between messages
// so a large mailbox backlog cannot saturate the shared ticket database.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Throttle is a token bucket with a nil-safe Wait. A nil Throttle never
// blocks, which is how the pipeline runs when no limit is configured.
type Throttle struct {
	limiter *rate.Limiter
}

// New returns a Throttle allowing perSec messages per second, or nil when
// perSec is zero or negative.
func New(perSec float64) *Throttle {
	if perSec <= 0 {
		return nil
	}
	return &Throttle{limiter: rate.NewLimiter(rate.Limit(perSec), 1)}
}

// Wait blocks until the next message may proceed or ctx ends.
func (t *Throttle) Wait(ctx context.Context) error {
	if t == nil {
		return nil
	}
	return t.limiter.Wait(ctx)
}
