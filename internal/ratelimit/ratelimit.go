package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Gate enforces a minimum spacing between consecutive calls.
// One Gate is shared by every upstream client so the spacing holds
// across APIs, not per API.
type Gate struct {
	limiter *rate.Limiter
	spacing time.Duration
}

// New creates a gate that lets one call through per spacing interval.
// A non-positive spacing disables the gate.
func New(spacing time.Duration) *Gate {
	if spacing <= 0 {
		return &Gate{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &Gate{
		limiter: rate.NewLimiter(rate.Every(spacing), 1),
		spacing: spacing,
	}
}

// Wait blocks until the next call is allowed or ctx is cancelled
func (g *Gate) Wait(ctx context.Context) error {
	return g.limiter.Wait(ctx)
}

// Spacing returns the configured minimum spacing
func (g *Gate) Spacing() time.Duration {
	return g.spacing
}
