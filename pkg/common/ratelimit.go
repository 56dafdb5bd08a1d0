package common

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter paces callers with a token bucket. A non-positive rate disables
// pacing entirely.
type RateLimiter struct {
	limiter *rate.Limiter // nil when unlimited
}

// NewRateLimiter creates a RateLimiter allowing rps events per second with
// bursts of up to burst events. A burst below one is raised to one.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if rps <= 0 {
		return new(RateLimiter)
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Wait blocks until the limiter allows an event or ctx is done.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if rl.limiter == nil {
		return ctx.Err()
	}
	return rl.limiter.Wait(ctx)
}

// Limited reports whether pacing is active.
func (rl *RateLimiter) Limited() bool { return rl.limiter != nil }
