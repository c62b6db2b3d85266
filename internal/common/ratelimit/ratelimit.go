// Package ratelimit wraps golang.org/x/time/rate with a limiter that can be
// disabled entirely by configuring a non-positive rate.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// Limiter throttles outbound API calls to a configured requests-per-second
// rate. A rate of zero or less disables limiting and all operations become
// no-ops.
type Limiter struct {
	limiter *rate.Limiter
	rps     float64
}

// New creates a limiter allowing rps requests per second with a burst of one.
// A non-positive rps returns a disabled limiter.
func New(rps float64) *Limiter {
	if rps <= 0 {
		return &Limiter{}
	}
	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		rps:     rps,
	}
}

// Enabled reports whether rate limiting is active.
func (l *Limiter) Enabled() bool {
	return l.limiter != nil
}

// RPS returns the configured requests-per-second rate, or 0 when disabled.
func (l *Limiter) RPS() float64 {
	return l.rps
}

// Wait blocks until the next request is permitted or the context is done.
// Returns immediately when the limiter is disabled.
func (l *Limiter) Wait(ctx context.Context) error {
	if l.limiter == nil {
		return nil
	}
	return l.limiter.Wait(ctx)
}

// Allow reports whether a request may proceed right now without waiting.
// Always true when the limiter is disabled.
func (l *Limiter) Allow() bool {
	if l.limiter == nil {
		return true
	}
	return l.limiter.Allow()
}

// Reserve returns a reservation for the next request.
// Returns nil when the limiter is disabled (unlimited rate).
func (l *Limiter) Reserve() *rate.Reservation {
	if l.limiter == nil {
		return nil
	}
	return l.limiter.Reserve()
}

// String describes the limiter configuration for diagnostic output.
func (l *Limiter) String() string {
	if l.limiter == nil {
		return "rate limiting disabled"
	}
	if l.rps < 1 {
		interval := time.Duration(float64(time.Second) / l.rps)
		return fmt.Sprintf("1 request per %v", interval.Round(time.Millisecond))
	}
	return fmt.Sprintf("%.2f rps", l.rps)
}
