// Package candles builds market-calendar-aware candles out of denser
// bar series. All candle slices handled here are ordered newest first.
package candles

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"marketflow/pkg/model"
)

// maxSessionBars caps a single half-hour fetch for session candles.
const maxSessionBars = 1200

// Service aggregates raw bars from a BarSource into candles.
type Service struct {
	src BarSource
	log zerolog.Logger
}

// NewService creates an aggregation service around a bar source.
func NewService(src BarSource, log zerolog.Logger) *Service {
	return &Service{src: src, log: log.With().Str("component", "candles").Logger()}
}

// BuildIntradayCandles groups a 1-minute series into 15-minute or
// hourly candles aligned on minute-of-hour boundaries. The source must
// deliver exactly durationMinutes bars; anything else is an error, not
// a partial result. One missing tick at the end of a bucket is
// tolerated (close at minute 14/29/44/59 for M15, 58/59 for H1); a
// candle left without its opening bar at the end of the scan is
// discarded.
func (s *Service) BuildIntradayCandles(ctx context.Context, symbol string, durationMinutes int, ut model.UnitTime, asOf time.Time) ([]model.Candle, error) {
	s.log.Debug().Str("symbol", symbol).Int("minutes", durationMinutes).Stringer("ut", ut).Msg("build intraday candles")

	var modulo int
	switch ut {
	case model.M15:
		modulo = 15
	case model.H1:
		modulo = 60
	default:
		return nil, fmt.Errorf("%w: intraday aggregation for %s", model.ErrUnsupportedUnitTime, ut)
	}

	bars, err := s.src.Bars(ctx, symbol, 1, durationMinutes, asOf)
	if err != nil {
		return nil, fmt.Errorf("fetching minute bars for %s: %w", symbol, err)
	}
	if len(bars) != durationMinutes {
		return nil, fmt.Errorf("%w: got %d minute bars, want %d", model.ErrInsufficientData, len(bars), durationMinutes)
	}

	// Align the newest partial bucket away before scanning.
	slice := bars[0].Time.Minute()
	var trim int
	if ut == model.M15 && slice%15 != 0 {
		trim = slice%15 + 1
	} else {
		trim = slice%60 + 1
	}
	if trim >= len(bars) {
		return nil, fmt.Errorf("%w: %d bars left after alignment", model.ErrInsufficientData, len(bars)-trim)
	}
	bars = bars[trim:]

	var candles []model.Candle
	b := newBuilder(ut)
	var last model.RawBar
	for _, bar := range bars {
		minute := bar.Time.Minute()
		switch {
		case !b.active:
			b.start(bar)
		case minute%modulo == 0:
			b.extend(bar)
			candles = append(candles, b.finish(bar.Open, bar.Time))
		case ut == model.M15 && earlyClose15(minute) && minuteGap(bar, last) > 1:
			candles = append(candles, b.finish(last.Open, last.Time))
			b.start(bar)
		case ut == model.H1 && (minute == 58 || minute == 59) && minuteGap(bar, last) > 1:
			candles = append(candles, b.finish(last.Open, last.Time))
			b.start(bar)
		default:
			b.extend(bar)
		}
		last = bar
	}
	// A builder still active here never saw its opening bar; drop it.
	return candles, nil
}

func earlyClose15(minute int) bool {
	return minute == 14 || minute == 29 || minute == 44 || minute == 59
}

func minuteGap(a, b model.RawBar) int {
	gap := a.Time.Minute() - b.Time.Minute()
	if gap < 0 {
		return -gap
	}
	return gap
}

// BuildSessionCandles builds hourly-or-coarser candles bounded by a
// market's trading session. Half-hour bars are fetched for the
// lookback, optionally stitched with the freshest CFD bar when the
// primary instrument looks off-hours, then paired into hourly candles
// on session boundaries. H4 and daily unit times are folded from the
// hourly series.
func (s *Service) BuildSessionCandles(ctx context.Context, symbol, cfdSymbol string, ut model.UnitTime, w model.MarketWindow, lookbackHours int, asOf time.Time) ([]model.Candle, error) {
	if w.OpenMinuteOffset != 0 && w.OpenMinuteOffset != 30 {
		return nil, fmt.Errorf("open minute offset %d not handled, want 0 or 30", w.OpenMinuteOffset)
	}
	s.log.Info().Str("symbol", symbol).Stringer("ut", ut).Time("as_of", asOf).Msg("build session candles")

	count := lookbackHours * 2
	if count > maxSessionBars {
		s.log.Debug().Int("from", count).Int("to", maxSessionBars).Msg("reduce bar count")
		count = maxSessionBars
	}
	bars, err := s.src.Bars(ctx, symbol, 30, count, asOf)
	if err != nil {
		return nil, fmt.Errorf("fetching half-hour bars for %s: %w", symbol, err)
	}
	if len(bars) < count {
		return nil, fmt.Errorf("%w: got %d half-hour bars, want %d", model.ErrInsufficientData, len(bars), count)
	}

	bars, err = s.stitchCFD(ctx, symbol, cfdSymbol, bars, asOf)
	if err != nil {
		return nil, err
	}

	// A newest bar on the session's opening minute means the second
	// half of the current hour is not in yet.
	if bars[0].Time.Minute() == w.OpenMinuteOffset {
		bars = bars[1:]
	}

	hourly := pairSessionBars(bars, w)
	switch ut {
	case model.H1:
		return hourly, nil
	case model.H4:
		return s.FoldToH4(hourly, w.OpenHourUTC), nil
	case model.Daily:
		return s.FoldToDaily(hourly, w), nil
	default:
		return nil, fmt.Errorf("%w: session candles for %s", model.ErrUnsupportedUnitTime, ut)
	}
}

// stitchCFD prepends the freshest CFD bar when the primary series looks
// stale by one bucket: 30-45 minutes means the last half-hour bar is
// missing, 60-75 minutes means a whole hour is.
func (s *Service) stitchCFD(ctx context.Context, symbol, cfdSymbol string, bars []model.RawBar, asOf time.Time) ([]model.RawBar, error) {
	if len(bars) == 0 {
		return bars, nil
	}
	delta := asOf.Sub(bars[0].Time)
	halfBucket := delta > 30*time.Minute && delta < 45*time.Minute
	fullBucket := delta > 60*time.Minute && delta < 75*time.Minute && symbol != cfdSymbol
	if !halfBucket && !fullBucket {
		return bars, nil
	}
	s.log.Debug().Str("cfd", cfdSymbol).Msg("stitch freshest cfd bar")
	cfdBars, err := s.src.Bars(ctx, cfdSymbol, 30, 1, asOf)
	if err != nil {
		return nil, fmt.Errorf("fetching cfd bar for %s: %w", cfdSymbol, err)
	}
	if len(cfdBars) > 0 && cfdBars[0].Time.After(bars[0].Time) {
		bars = append([]model.RawBar{cfdBars[0]}, bars...)
	}
	return bars, nil
}

// pairSessionBars merges half-hour bars two at a time into hourly
// candles. A pair is only taken when the newer bar sits on the hour's
// closing half (minute 30 for sessions opening on the hour, minute 0
// otherwise) inside the session's hours; everything else is skipped so
// day switches with missing buckets stay aligned.
func pairSessionBars(bars []model.RawBar, w model.MarketWindow) []model.Candle {
	closeHalfMinute := 30
	maxHour := w.CloseHourUTC
	if w.OpenMinuteOffset == 30 {
		closeHalfMinute = 0
		// The closing hour candle's second half falls past the hour.
		maxHour++
	}

	var hourly []model.Candle
	for i := 0; i < len(bars); {
		bar := bars[i]
		hour, minute := bar.Time.Hour(), bar.Time.Minute()
		if minute != closeHalfMinute || hour < w.OpenHourUTC || hour > maxHour {
			i++
			continue
		}
		if i+1 >= len(bars) {
			break
		}
		closeHalf, openHalf := bar, bars[i+1]
		hourly = append(hourly, model.Candle{
			Lower:    minFloat(closeHalf.Low, openHalf.Low),
			Higher:   maxFloat(closeHalf.High, openHalf.High),
			Open:     openHalf.Open,
			Close:    closeHalf.Close,
			UnitTime: model.H1,
			Time:     openHalf.Time,
		})
		i += 2
	}
	return hourly
}

// LatestHourCandle returns the newest completed hourly candle, or for
// H4 the newest hourly bar sitting on an H4 run boundary.
func (s *Service) LatestHourCandle(ctx context.Context, symbol string, ut model.UnitTime, asOf time.Time) (model.Candle, error) {
	bars, err := s.src.Bars(ctx, symbol, 60, 5, asOf)
	if err != nil {
		return model.Candle{}, fmt.Errorf("fetching hour bars for %s: %w", symbol, err)
	}
	if len(bars) == 0 {
		return model.Candle{}, fmt.Errorf("%w: no hour bars for %s", model.ErrMissingCandle, symbol)
	}
	switch ut {
	case model.H1:
		return bars[0].Candle(model.H1), nil
	case model.H4:
		for _, bar := range bars {
			switch bar.Time.Hour() {
			case 9, 13, 15:
				return bar.Candle(model.H4), nil
			}
		}
		return model.Candle{}, fmt.Errorf("%w: no h4 boundary bar for %s", model.ErrMissingCandle, symbol)
	default:
		s.log.Error().Stringer("ut", ut).Msg("unit time not handled for hour candle")
		return model.Candle{}, fmt.Errorf("%w: hour candle for %s", model.ErrUnsupportedUnitTime, ut)
	}
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
