package workflow

import (
	"fmt"

	"marketflow/internal/indicator"
	"marketflow/pkg/model"
)

// conditionStrategy resolves one indicator variant to a concrete value
// and tests a candle against it. init is called once per evaluation
// with the condition's candle series; the predicates are then pure.
type conditionStrategy interface {
	init(spec model.IndicatorSpec, candles []model.Candle) error
	belowCondition(c model.Candle, spread float64, element *float64) bool
	aboveCondition(c model.Candle, spread float64, element *float64) bool
}

// strategyFor picks the strategy variant for an indicator type.
func strategyFor(name model.IndicatorType) (conditionStrategy, error) {
	switch name {
	case model.IndicatorMA50:
		return &ma50Strategy{}, nil
	case model.IndicatorBBHigh, model.IndicatorBBLow:
		return &bollingerStrategy{}, nil
	case model.IndicatorZone:
		return &zoneStrategy{}, nil
	case model.IndicatorPolarity:
		return &polarityStrategy{}, nil
	case model.IndicatorCombo:
		return &comboStrategy{}, nil
	}
	return nil, fmt.Errorf("%w: %q", model.ErrUnsupportedIndicator, name)
}

func withinBelowBand(value, level, spread float64) bool {
	return level-spread <= value && value <= level
}

func withinAboveBand(value, level, spread float64) bool {
	return level <= value && value <= level+spread
}

// ma50Strategy tests against the 50-period simple moving average.
type ma50Strategy struct {
	level float64
}

func (s *ma50Strategy) init(spec model.IndicatorSpec, candles []model.Candle) error {
	ma, err := indicator.SimpleMovingAverage(candles, 50)
	if err != nil {
		return err
	}
	s.level = ma
	return nil
}

func (s *ma50Strategy) belowCondition(c model.Candle, spread float64, element *float64) bool {
	if element != nil {
		return withinBelowBand(*element, s.level, spread)
	}
	return withinBelowBand(c.Close, s.level, spread) || withinBelowBand(c.Higher, s.level, spread)
}

func (s *ma50Strategy) aboveCondition(c model.Candle, spread float64, element *float64) bool {
	if element != nil {
		return withinAboveBand(*element, s.level, spread)
	}
	return withinAboveBand(c.Close, s.level, spread) || withinAboveBand(c.Lower, s.level, spread)
}

// bollingerStrategy tests against the upper or lower Bollinger band,
// picked by the indicator name.
type bollingerStrategy struct {
	level float64
}

func (s *bollingerStrategy) init(spec model.IndicatorSpec, candles []model.Candle) error {
	bands, err := indicator.Bollinger(candles, 2.5, 20)
	if err != nil {
		return err
	}
	if spec.Name == model.IndicatorBBHigh {
		s.level = bands.Up
	} else {
		s.level = bands.Bottom
	}
	return nil
}

func (s *bollingerStrategy) belowCondition(c model.Candle, spread float64, element *float64) bool {
	if element != nil {
		return withinBelowBand(*element, s.level, spread)
	}
	return withinBelowBand(c.Close, s.level, spread) || withinBelowBand(c.Higher, s.level, spread)
}

func (s *bollingerStrategy) aboveCondition(c model.Candle, spread float64, element *float64) bool {
	if element != nil {
		return withinAboveBand(*element, s.level, spread)
	}
	return withinAboveBand(c.Close, s.level, spread) || withinAboveBand(c.Lower, s.level, spread)
}

// zoneStrategy tests membership of a fixed two-sided price band.
type zoneStrategy struct {
	low, high float64
}

func (s *zoneStrategy) init(spec model.IndicatorSpec, candles []model.Candle) error {
	if spec.Value == nil || spec.ZoneValue == nil {
		return fmt.Errorf("zone indicator needs value and zone_value")
	}
	lo, hi := *spec.Value, *spec.ZoneValue
	if lo > hi {
		lo, hi = hi, lo
	}
	s.low, s.high = lo, hi
	return nil
}

func (s *zoneStrategy) inZone(v float64) bool {
	return v >= s.low && v <= s.high
}

func (s *zoneStrategy) belowCondition(c model.Candle, spread float64, element *float64) bool {
	if element != nil {
		return s.inZone(*element)
	}
	return s.inZone(c.Close) || s.inZone(c.Higher)
}

func (s *zoneStrategy) aboveCondition(c model.Candle, spread float64, element *float64) bool {
	if element != nil {
		return s.inZone(*element)
	}
	return s.inZone(c.Close) || s.inZone(c.Lower)
}

// polarityStrategy tests a fixed pivot level. A candle qualifies when
// it straddles the level or its relevant extreme sits within spread of
// it on the right side.
type polarityStrategy struct {
	level float64
}

func (s *polarityStrategy) init(spec model.IndicatorSpec, candles []model.Candle) error {
	if spec.Value == nil {
		return fmt.Errorf("polarity indicator needs a value")
	}
	s.level = *spec.Value
	return nil
}

func (s *polarityStrategy) belowCondition(c model.Candle, spread float64, element *float64) bool {
	if element != nil {
		return *element <= s.level && *element >= s.level-spread
	}
	if c.Higher >= s.level && c.Close <= s.level {
		return true
	}
	return c.Higher <= s.level && c.Higher >= s.level-spread
}

func (s *polarityStrategy) aboveCondition(c model.Candle, spread float64, element *float64) bool {
	if element != nil {
		return *element >= s.level && *element <= s.level+spread
	}
	if c.Lower <= s.level && c.Close >= s.level {
		return true
	}
	return c.Lower >= s.level && c.Lower <= s.level+spread
}

// comboStrategy defers to the composite signal. The predicates only
// check the signal's direction; a triggered signal no longer qualifies
// since the breakout already happened.
type comboStrategy struct {
	signal *indicator.ComboSignal
}

func (s *comboStrategy) init(spec model.IndicatorSpec, candles []model.Candle) error {
	sig, err := indicator.Combo(candles)
	if err != nil {
		return err
	}
	s.signal = sig
	return nil
}

func (s *comboStrategy) belowCondition(c model.Candle, spread float64, element *float64) bool {
	return s.signal != nil && !s.signal.HasBeenTriggered && s.signal.Direction == model.Sell
}

func (s *comboStrategy) aboveCondition(c model.Candle, spread float64, element *float64) bool {
	return s.signal != nil && !s.signal.HasBeenTriggered && s.signal.Direction == model.Buy
}
