package indicator

import (
	"fmt"

	"marketflow/pkg/model"
)

// Zero-lag MACD parameterization.
const (
	macdFastPeriod   = 12
	macdSlowPeriod   = 26
	macdSignalPeriod = 9
)

// MACDValue is the newest point of the zero-lag MACD oscillator,
// rounded to 4 decimals.
type MACDValue struct {
	Line   float64 `json:"line"`
	Signal float64 `json:"signal"`
}

// MACDZeroLag computes the zero-lag MACD of the candle series: the
// difference of the zero-lag EMAs of the closes over the fast and slow
// periods, with a zero-lag EMA of that difference as the signal line.
func MACDZeroLag(candles []model.Candle) (MACDValue, error) {
	line, signal, err := macdZeroLagSeries(closesOldestFirst(candles))
	if err != nil {
		return MACDValue{}, err
	}
	return MACDValue{
		Line:   round4(line[len(line)-1]),
		Signal: round4(signal[len(signal)-1]),
	}, nil
}

// macdZeroLagSeries returns the oldest-first MACD line and signal
// series, tail-aligned with each other.
func macdZeroLagSeries(closes []float64) (line, signal []float64, err error) {
	fast, err := zeroLagEMASeries(closes, macdFastPeriod)
	if err != nil {
		return nil, nil, err
	}
	slow, err := zeroLagEMASeries(closes, macdSlowPeriod)
	if err != nil {
		return nil, nil, err
	}
	n := len(slow)
	if len(fast) < n {
		n = len(fast)
	}
	line = make([]float64, n)
	for i := 0; i < n; i++ {
		line[i] = fast[len(fast)-n+i] - slow[len(slow)-n+i]
	}
	signal, err = zeroLagEMASeries(line, macdSignalPeriod)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %d macd points for signal line", model.ErrInsufficientData, n)
	}
	return line[len(line)-len(signal):], signal, nil
}

// zeroLagEMASeries computes 2*EMA(values) - EMA(EMA(values)), the
// classic de-lagged EMA, oldest first.
func zeroLagEMASeries(values []float64, period int) ([]float64, error) {
	ema1, err := emaSeries(values, period)
	if err != nil {
		return nil, err
	}
	ema2, err := emaSeries(ema1, period)
	if err != nil {
		return nil, err
	}
	offset := len(ema1) - len(ema2)
	out := make([]float64, len(ema2))
	for i := range ema2 {
		out[i] = 2*ema1[i+offset] - ema2[i]
	}
	return out, nil
}
