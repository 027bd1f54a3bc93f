// Package source provides BarSource implementations: a JSON snapshot
// file for offline runs and tests, plus a caching decorator for
// evaluation loops that ask for the same series repeatedly.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"marketflow/pkg/model"
)

// barRecord is one bar in the snapshot file.
type barRecord struct {
	Time  time.Time `json:"time"`
	Open  float64   `json:"open"`
	High  float64   `json:"high"`
	Low   float64   `json:"low"`
	Close float64   `json:"close"`
}

// snapshot maps symbol -> interval minutes (as string) -> bars.
type snapshot map[string]map[string][]barRecord

// File serves bars from a JSON snapshot. Series are normalized to
// newest-first at load time.
type File struct {
	data snapshot
	log  zerolog.Logger
}

// NewFile loads a snapshot file.
func NewFile(path string, log zerolog.Logger) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading bar snapshot: %w", err)
	}
	var data snapshot
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parsing bar snapshot %s: %w", path, err)
	}
	for _, intervals := range data {
		for _, bars := range intervals {
			sort.Slice(bars, func(i, j int) bool {
				return bars[i].Time.After(bars[j].Time)
			})
		}
	}
	log.Info().Str("path", path).Int("symbols", len(data)).Msg("bar snapshot loaded")
	return &File{data: data, log: log}, nil
}

// Bars returns up to count bars at or before asOf, newest first.
func (f *File) Bars(ctx context.Context, symbol string, intervalMinutes, count int, asOf time.Time) ([]model.RawBar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	intervals, ok := f.data[symbol]
	if !ok {
		return nil, fmt.Errorf("no bars for symbol %s", symbol)
	}
	records, ok := intervals[fmt.Sprintf("%d", intervalMinutes)]
	if !ok {
		return nil, fmt.Errorf("no %d-minute bars for symbol %s", intervalMinutes, symbol)
	}
	bars := make([]model.RawBar, 0, count)
	for _, r := range records {
		if r.Time.After(asOf) {
			continue
		}
		bars = append(bars, model.RawBar{
			Time:  r.Time,
			Open:  r.Open,
			High:  r.High,
			Low:   r.Low,
			Close: r.Close,
		})
		if len(bars) == count {
			break
		}
	}
	return bars, nil
}
