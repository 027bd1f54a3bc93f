package indicator

import (
	"fmt"
	"math"

	"marketflow/pkg/model"
)

// atrPeriod is the smoothing period for the average true range.
const atrPeriod = 14

// AverageTrueRange computes the EMA-smoothed average true range of the
// candle series. The true range of a candle is the largest of its own
// range and the gaps from the previous close to its extremes.
func AverageTrueRange(candles []model.Candle) (float64, error) {
	if len(candles) < atrPeriod+1 {
		return 0, fmt.Errorf("%w: %d candles for atr(%d)", model.ErrInsufficientData, len(candles), atrPeriod)
	}
	// True ranges oldest first; candles are newest first so candle i+1
	// precedes candle i chronologically.
	trs := make([]float64, 0, len(candles)-1)
	for i := len(candles) - 2; i >= 0; i-- {
		cur, prev := candles[i], candles[i+1]
		tr := cur.Higher - cur.Lower
		tr = math.Max(tr, math.Abs(cur.Higher-prev.Close))
		tr = math.Max(tr, math.Abs(cur.Lower-prev.Close))
		trs = append(trs, tr)
	}
	atr, err := ExponentialMovingAverage(trs, atrPeriod)
	if err != nil {
		return 0, err
	}
	return round4(atr), nil
}
