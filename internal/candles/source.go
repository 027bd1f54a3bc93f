package candles

import (
	"context"
	"fmt"
	"time"

	"marketflow/pkg/model"
)

// BarSource delivers already-fetched price bars, newest first. Network
// access, authentication and midpoint derivation for ask/bid feeds all
// live behind this interface; the aggregator never performs I/O itself.
type BarSource interface {
	// Bars returns up to count bars of intervalMinutes resolution for
	// the instrument, newest first, as of the given instant.
	Bars(ctx context.Context, symbol string, intervalMinutes, count int, asOf time.Time) ([]model.RawBar, error)
}

// Static is an in-memory BarSource keyed by symbol and interval,
// used by tests and by callers that pre-fetch everything up front.
type Static struct {
	bars map[string]map[int][]model.RawBar
}

// NewStatic creates an empty static source.
func NewStatic() *Static {
	return &Static{bars: make(map[string]map[int][]model.RawBar)}
}

// Set registers the newest-first bar series served for a symbol and
// interval.
func (s *Static) Set(symbol string, intervalMinutes int, bars []model.RawBar) {
	if s.bars[symbol] == nil {
		s.bars[symbol] = make(map[int][]model.RawBar)
	}
	s.bars[symbol][intervalMinutes] = bars
}

// Bars implements BarSource.
func (s *Static) Bars(_ context.Context, symbol string, intervalMinutes, count int, _ time.Time) ([]model.RawBar, error) {
	series, ok := s.bars[symbol][intervalMinutes]
	if !ok {
		return nil, fmt.Errorf("no bars for %s at %dm", symbol, intervalMinutes)
	}
	if count < len(series) {
		return series[:count], nil
	}
	return series, nil
}
