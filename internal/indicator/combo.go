package indicator

import (
	"fmt"

	"marketflow/pkg/model"
)

const (
	comboMAPeriod    = 50
	comboBandStdMult = 2.5
	comboBandPeriod  = 20
	comboSlopeOffset = 5
	comboMinBandFrac = 0.001
)

// ComboSignal is the aggregate trend read built from several
// independent checks. Details records the outcome of each check by
// name so a caller can show why a signal fired.
type ComboSignal struct {
	Price            float64
	HasBeenTriggered bool
	Direction        model.Direction
	Strength         int
	Details          map[string]bool
}

// Combo combines the zero-lag MACD, the 50-period moving average and
// the Bollinger bands into one directional signal. Direction comes
// from the MACD line versus its signal; the remaining checks vote and
// the count of agreeing votes becomes the strength. Returns nil when
// the MACD gives no direction.
func Combo(candles []model.Candle) (*ComboSignal, error) {
	need := comboMAPeriod + comboSlopeOffset
	if need < comboBandPeriod {
		need = comboBandPeriod
	}
	if len(candles) < need {
		return nil, fmt.Errorf("combo: %d candles, need %d: %w", len(candles), need, model.ErrInsufficientData)
	}

	macd, err := MACDZeroLag(candles)
	if err != nil {
		return nil, fmt.Errorf("combo: %w", err)
	}
	var dir model.Direction
	switch {
	case macd.Line > macd.Signal:
		dir = model.Buy
	case macd.Line < macd.Signal:
		dir = model.Sell
	default:
		return nil, nil
	}

	ma, err := SimpleMovingAverage(candles, comboMAPeriod)
	if err != nil {
		return nil, fmt.Errorf("combo: %w", err)
	}
	maPrev, err := SimpleMovingAverage(candles[comboSlopeOffset:], comboMAPeriod)
	if err != nil {
		return nil, fmt.Errorf("combo: %w", err)
	}
	bands, err := Bollinger(candles, comboBandStdMult, comboBandPeriod)
	if err != nil {
		return nil, fmt.Errorf("combo: %w", err)
	}

	price := candles[0].Close
	long := dir == model.Buy

	details := map[string]bool{}
	if long {
		details["macd_cross"] = macd.Line > macd.Signal && macd.Line > 0
		details["ma_vs_band"] = ma > bands.Middle
		details["price_in_band"] = price >= bands.Middle && price <= bands.Up
		details["ma_slope"] = ma > maPrev
	} else {
		details["macd_cross"] = macd.Line < macd.Signal && macd.Line < 0
		details["ma_vs_band"] = ma < bands.Middle
		details["price_in_band"] = price <= bands.Middle && price >= bands.Bottom
		details["ma_slope"] = ma < maPrev
	}
	width := bands.Up - bands.Bottom
	details["band_wide"] = bands.Middle != 0 && width/bands.Middle >= comboMinBandFrac

	strength := 0
	for _, ok := range details {
		if ok {
			strength++
		}
	}

	triggered := price > bands.Up || price < bands.Bottom

	return &ComboSignal{
		Price:            price,
		HasBeenTriggered: triggered,
		Direction:        dir,
		Strength:         strength,
		Details:          details,
	}, nil
}
