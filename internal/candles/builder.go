package candles

import (
	"time"

	"marketflow/pkg/model"
)

// builder accumulates low/high/close for a candle whose open is not yet
// known. Scans run newest-first, so the close is seen before the open;
// the builder only yields a candle once the opening bar arrives, so no
// "-1 means unset" sentinel is needed.
type builder struct {
	ut     model.UnitTime
	lower  float64
	higher float64
	close_ float64
	active bool
}

func newBuilder(ut model.UnitTime) *builder {
	return &builder{ut: ut}
}

// start opens a new candle from its newest (closing) bar.
func (b *builder) start(bar model.RawBar) {
	b.lower = bar.Low
	b.higher = bar.High
	b.close_ = bar.Close
	b.active = true
}

// extend widens the candle's range with an intermediate bar.
func (b *builder) extend(bar model.RawBar) {
	if bar.Low < b.lower {
		b.lower = bar.Low
	}
	if bar.High > b.higher {
		b.higher = bar.High
	}
}

// finish seals the candle with its opening price and timestamp and
// resets the builder.
func (b *builder) finish(open float64, t time.Time) model.Candle {
	c := model.Candle{
		Lower:    b.lower,
		Higher:   b.higher,
		Open:     open,
		Close:    b.close_,
		UnitTime: b.ut,
		Time:     t,
	}
	b.active = false
	return c
}
