// Package congestion fits best-effort trend lines over a candle
// window and reports the candles that touch the line. A zone that is
// touched repeatedly without breaking marks price congestion.
package congestion

import (
	"marketflow/pkg/model"
)

// LineType selects which candle extreme the line is fitted against.
type LineType int

const (
	// Resistance fits against candle highs, all candles below the line.
	Resistance LineType = iota
	// Support fits against candle lows, all candles above the line.
	Support
)

const (
	// maxWindow caps how far back the detector looks.
	maxWindow = 50
	// sideTolerance is the 0.2% band a candle may poke through the
	// line without invalidating it.
	sideTolerance = 1.002
	// touchTolerance is the 0.02% band within which a candle counts
	// as touching the line.
	touchTolerance = 0.0002
)

// lineFormula is y = m*x + b anchored at candle index firstX.
type lineFormula struct {
	m, b   float64
	firstX int
}

func extremeOf(lt LineType, c model.Candle) float64 {
	if lt == Support {
		return c.Lower
	}
	return c.Higher
}

// fitLine fits a two-point line through the anchor extreme of the
// window and the anchor-th previous extreme, walking candles
// newest-first and keeping a push-down history of successive extremes.
// When the requested anchor has no recorded extreme the returned
// formula has firstX == 0, which callers reject.
func fitLine(lt LineType, candles []model.Candle, maxLen, anchor int) lineFormula {
	tabVal := make([]float64, len(candles))
	tabIdx := make([]int, len(candles))

	firstIdx := 1
	firstVal := extremeOf(lt, candles[1])

	limit := maxLen
	if len(candles) < limit {
		limit = len(candles)
	}
	for i := 1; i < limit; i++ {
		breaks := (lt == Resistance && candles[i].Higher > firstVal) ||
			(lt == Support && candles[i].Lower < firstVal)
		if !breaks {
			continue
		}
		copy(tabVal[1:], tabVal)
		tabVal[0] = firstVal
		copy(tabIdx[1:], tabIdx)
		tabIdx[0] = firstIdx
		firstVal = extremeOf(lt, candles[i])
		firstIdx = i
	}

	if tabVal[anchor] <= 0 {
		return lineFormula{firstX: 0}
	}
	m := (tabVal[anchor] - firstVal) / float64(tabIdx[anchor]-firstIdx)
	b := tabVal[anchor] - m*float64(tabIdx[anchor])
	return lineFormula{m: m, b: b, firstX: firstIdx}
}

// Detect searches decreasing window sizes from min(50, len) down to 4
// for a resistance (or support) line that every intervening candle
// respects within the side tolerance. Candles within the touch
// tolerance of the first passing line are returned oldest-first, or
// nil when no window yields a valid line. Candles must be newest-first.
func Detect(lt LineType, candles []model.Candle) []model.Candle {
	if len(candles) < 4 {
		return nil
	}
	lookback := maxWindow
	if len(candles) < lookback {
		lookback = len(candles)
	}
	for window := lookback; window > 3; window-- {
		for anchor := 0; anchor < lookback; anchor++ {
			line := fitLine(lt, candles, window, anchor)
			// An anchor within the first candles makes too short a
			// line to mean anything.
			if line.firstX < 3 {
				continue
			}
			var touches []model.Candle
			ok := true
			for x := line.firstX; x > 0; x-- {
				y := line.m*float64(x) + line.b
				ext := extremeOf(lt, candles[x])
				if lt == Resistance && y*sideTolerance < ext {
					ok = false
					break
				}
				if lt == Support && y/sideTolerance > ext {
					ok = false
					break
				}
				d := (y - ext) / y
				if d < 0 {
					d = -d
				}
				if d < touchTolerance {
					touches = append(touches, candles[x])
				}
			}
			if ok {
				return touches
			}
		}
	}
	return nil
}
