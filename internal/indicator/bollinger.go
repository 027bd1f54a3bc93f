package indicator

import (
	"fmt"
	"math"

	"marketflow/pkg/model"
)

// BollingerBands holds the three band values, rounded to 4 decimals.
// Up-Middle and Middle-Bottom are always equal.
type BollingerBands struct {
	Bottom float64 `json:"bottom"`
	Middle float64 `json:"middle"`
	Up     float64 `json:"up"`
}

// Bollinger computes Bollinger bands over the closes of the first
// period candles: the mean plus/minus stdMult population standard
// deviations.
func Bollinger(candles []model.Candle, stdMult float64, period int) (BollingerBands, error) {
	if len(candles) < period {
		return BollingerBands{}, fmt.Errorf("%w: %d candles for bollinger(%d)", model.ErrInsufficientData, len(candles), period)
	}
	var sum float64
	for _, c := range candles[:period] {
		sum += c.Close
	}
	mean := sum / float64(period)

	var variance float64
	for _, c := range candles[:period] {
		d := c.Close - mean
		variance += d * d
	}
	sigma := math.Sqrt(variance / float64(period))

	return BollingerBands{
		Bottom: round4(mean - stdMult*sigma),
		Middle: round4(mean),
		Up:     round4(mean + stdMult*sigma),
	}, nil
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
