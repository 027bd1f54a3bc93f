// Package ratelimit throttles bar fetches so an upstream quota is
// never exceeded, whatever the evaluation loop asks for.
package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"marketflow/internal/candles"
	"marketflow/pkg/model"
)

// Limiter wraps rate.Limiter with per-minute construction
type Limiter struct {
	limiter *rate.Limiter
	name    string
}

// NewLimiter creates a new rate limiter
// perMinute specifies the number of requests allowed per minute
func NewLimiter(name string, perMinute int) *Limiter {
	// Convert per-minute rate to per-second
	rps := float64(perMinute) / 60.0
	// Allow burst of up to 5 requests or 1/10th of per-minute limit
	burst := perMinute / 10
	if burst < 1 {
		burst = 1
	}
	if burst > 5 {
		burst = 5
	}

	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		name:    name,
	}
}

// Wait blocks until a token is available or context is cancelled
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// Allow reports whether an event may happen now
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}

// Name returns the limiter name
func (l *Limiter) Name() string {
	return l.name
}

// Source decorates a BarSource so every fetch first takes a token.
type Source struct {
	next    candles.BarSource
	limiter *Limiter
}

// NewSource wraps next with a per-minute fetch budget.
func NewSource(next candles.BarSource, perMinute int) *Source {
	return &Source{
		next:    next,
		limiter: NewLimiter("bars", perMinute),
	}
}

// Bars waits for the limiter and then delegates.
func (s *Source) Bars(ctx context.Context, symbol string, intervalMinutes, count int, asOf time.Time) ([]model.RawBar, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return s.next.Bars(ctx, symbol, intervalMinutes, count, asOf)
}
