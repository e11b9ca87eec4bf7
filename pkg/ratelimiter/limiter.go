package ratelimiter

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter paces outbound requests of a single worker.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiterFromRPS creates a limiter directly from requests per second.
// A non-positive rps yields nil, which every method treats as unlimited.
func NewRateLimiterFromRPS(rps float64, burst int) *RateLimiter {
	if rps <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Wait blocks until a token is available or ctx is done.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if rl == nil {
		return nil
	}
	return rl.limiter.Wait(ctx)
}
