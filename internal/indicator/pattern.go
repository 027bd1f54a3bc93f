package indicator

import (
	"math"

	"marketflow/pkg/model"
)

// DoubleTop looks for two local highs within tickSize of each other.
// A local high is a candle whose higher is at least that of both
// neighbours; the boundary candles only compete with their single
// neighbour. Pairs are scanned in order (0,1), (0,2), ... and the
// earlier top of the first matching pair is returned, or nil when no
// pair is within tolerance.
func DoubleTop(candles []model.Candle, tickSize float64) *model.Candle {
	if len(candles) < 2 {
		return nil
	}
	var tops []model.Candle
	if candles[0].Higher >= candles[1].Higher {
		tops = append(tops, candles[0])
	}
	for i := 1; i < len(candles)-1; i++ {
		if candles[i].Higher >= candles[i-1].Higher && candles[i].Higher >= candles[i+1].Higher {
			tops = append(tops, candles[i])
		}
	}
	if candles[len(candles)-1].Higher >= candles[len(candles)-2].Higher {
		tops = append(tops, candles[len(candles)-1])
	}
	for i := 0; i < len(tops); i++ {
		for j := i + 1; j < len(tops); j++ {
			if round4(math.Abs(tops[i].Higher-tops[j].Higher)) <= tickSize {
				return &tops[i]
			}
		}
	}
	return nil
}

// ContainingCandle reports the newest candle when its open and close
// fully straddle the previous candle's whole range, in either
// direction. The body must engulf the range, not just the body.
func ContainingCandle(candles []model.Candle) *model.Candle {
	if len(candles) < 2 {
		return nil
	}
	c0, c1 := candles[0], candles[1]
	bullish := c0.Open <= c1.Lower && c0.Close >= c1.Higher
	bearish := c0.Open >= c1.Higher && c0.Close <= c1.Lower
	if bullish || bearish {
		return &candles[0]
	}
	return nil
}

// DoubleInsideBar reports the mother candle when the two newest
// candles' full ranges both sit inside the third candle's range.
func DoubleInsideBar(candles []model.Candle) *model.Candle {
	if len(candles) < 3 {
		return nil
	}
	mother := candles[2]
	inside := func(c model.Candle) bool {
		return c.Lower >= mother.Lower && c.Higher <= mother.Higher
	}
	if inside(candles[0]) && inside(candles[1]) {
		return &candles[2]
	}
	return nil
}
