package source

import (
	"context"
	"fmt"
	"sync"
	"time"

	"marketflow/internal/candles"
	"marketflow/pkg/model"
)

// Caching wraps a BarSource with an in-memory cache. Designed for
// evaluation runs where several workflows ask for the same series at
// the same instant; entries are keyed by symbol, interval and asOf so
// a later run never sees stale bars.
type Caching struct {
	inner candles.BarSource
	cache map[string][]model.RawBar
	mu    sync.Mutex
}

// NewCaching creates a caching wrapper around inner.
func NewCaching(inner candles.BarSource) *Caching {
	return &Caching{
		inner: inner,
		cache: make(map[string][]model.RawBar),
	}
}

func cacheKey(symbol string, intervalMinutes int, asOf time.Time) string {
	return fmt.Sprintf("%s/%d/%d", symbol, intervalMinutes, asOf.Unix())
}

// Bars serves from cache when a previous fetch already covers the
// request, fetching and caching otherwise.
func (c *Caching) Bars(ctx context.Context, symbol string, intervalMinutes, count int, asOf time.Time) ([]model.RawBar, error) {
	key := cacheKey(symbol, intervalMinutes, asOf)

	c.mu.Lock()
	cached, ok := c.cache[key]
	c.mu.Unlock()
	if ok && len(cached) >= count {
		return cached[:count], nil
	}

	bars, err := c.inner.Bars(ctx, symbol, intervalMinutes, count, asOf)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if len(bars) > len(c.cache[key]) {
		c.cache[key] = bars
	}
	c.mu.Unlock()
	return bars, nil
}
