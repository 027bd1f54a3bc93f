// Package indicator computes technical indicators over newest-first
// candle sequences. Every function is pure and never mutates its input;
// too little data is always a loud error, never a zeroed value.
package indicator

import (
	"fmt"

	"marketflow/pkg/model"
)

// SimpleMovingAverage averages the closes of the first period candles.
func SimpleMovingAverage(candles []model.Candle, period int) (float64, error) {
	if len(candles) < period {
		return 0, fmt.Errorf("%w: %d candles for ma%d", model.ErrInsufficientData, len(candles), period)
	}
	var sum float64
	for _, c := range candles[:period] {
		sum += c.Close
	}
	return sum / float64(period), nil
}

// ExponentialMovingAverage computes a standard EMA with smoothing
// 2/(period+1), seeded by the simple average of the first period
// values. Input is oldest first: callers holding newest-first candles
// must reverse their closes before calling.
func ExponentialMovingAverage(values []float64, period int) (float64, error) {
	series, err := emaSeries(values, period)
	if err != nil {
		return 0, err
	}
	return series[len(series)-1], nil
}

// emaSeries returns the EMA value at every index from period-1 on,
// oldest first. The returned slice is len(values)-period+1 long.
func emaSeries(values []float64, period int) ([]float64, error) {
	if len(values) < period {
		return nil, fmt.Errorf("%w: %d values for ema%d", model.ErrInsufficientData, len(values), period)
	}
	var seed float64
	for _, v := range values[:period] {
		seed += v
	}
	seed /= float64(period)

	k := 2.0 / float64(period+1)
	series := make([]float64, 0, len(values)-period+1)
	series = append(series, seed)
	ema := seed
	for _, v := range values[period:] {
		ema = v*k + ema*(1-k)
		series = append(series, ema)
	}
	return series, nil
}

// closesOldestFirst extracts the closes of a newest-first candle slice
// in chronological order.
func closesOldestFirst(candles []model.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[len(candles)-1-i] = c.Close
	}
	return out
}
