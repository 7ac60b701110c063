package gateway

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter throttles outgoing API calls. Wait blocks until a call may proceed.
type Limiter interface {
	Wait(ctx context.Context) error
}

// NewRateLimiter returns a process-local token bucket. rps <= 0 disables throttling.
func NewRateLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}

	if burst <= 0 {
		burst = 1
	}

	return rate.NewLimiter(rate.Limit(rps), burst)
}
