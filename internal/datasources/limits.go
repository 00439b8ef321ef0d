package datasources

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter paces outbound requests to one provider with a token bucket
type Limiter struct {
	limiter *rate.Limiter
}

// NewLimiter allows rps requests per second with the given burst.
// rps <= 0 disables limiting.
func NewLimiter(rps float64, burst int) *Limiter {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &Limiter{limiter: rate.NewLimiter(limit, burst)}
}

// Wait blocks until a request is allowed or ctx is done
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// Allow reports whether a request may go out now without waiting
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}
