// Package workflow evaluates declarative trading rules against candle
// series and emits candidate orders. Workflows are evaluated
// sequentially and independently; a failure in one only skips that one.
package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"marketflow/pkg/model"
)

// CandleProvider is the slice of the candle service the engine needs.
type CandleProvider interface {
	BuildSessionCandles(ctx context.Context, symbol, cfdSymbol string, ut model.UnitTime, w model.MarketWindow, lookbackHours int, asOf time.Time) ([]model.Candle, error)
	LatestHourCandle(ctx context.Context, symbol string, ut model.UnitTime, asOf time.Time) (model.Candle, error)
}

// Engine runs a catalog of workflows against a candle provider.
type Engine struct {
	candles CandleProvider
	log     zerolog.Logger
}

func NewEngine(candles CandleProvider, log zerolog.Logger) *Engine {
	return &Engine{candles: candles, log: log.With().Str("component", "workflow").Logger()}
}

// candleCount is how many hours of candles each indicator needs. The
// unit-time multiplier applies to the window-based indicators only;
// polarity and zone read a single candle whatever the unit time.
func candleCount(name model.IndicatorType, ut model.UnitTime) int {
	multiplier := 1
	switch ut {
	case model.H4:
		multiplier = 4
	case model.Daily:
		multiplier = 8
	}
	switch name {
	case model.IndicatorMA50:
		return 55 * multiplier
	case model.IndicatorCombo:
		return 750 * multiplier
	case model.IndicatorBBHigh, model.IndicatorBBLow:
		return 21 * multiplier
	case model.IndicatorPolarity, model.IndicatorZone:
		return 1
	}
	return 0
}

// Evaluate runs every workflow and collects the candidate orders.
// Disabled or expired workflows are skipped with a log line; candle or
// indicator failures abort only the workflow they occur in.
func (e *Engine) Evaluate(ctx context.Context, workflows []model.Workflow, asOf time.Time) []model.Order {
	var orders []model.Order
	for _, wf := range workflows {
		if !wf.Enabled || wf.Expired(asOf) {
			e.log.Info().Str("workflow", wf.Name).Msg("workflow will not run")
			continue
		}
		e.log.Info().Str("workflow", wf.Name).Msg("run workflow")
		order, err := e.evaluateOne(ctx, wf, asOf)
		if err != nil {
			e.log.Error().Err(err).Str("workflow", wf.Name).Msg("workflow evaluation failed")
			continue
		}
		if order != nil {
			orders = append(orders, *order)
		}
	}
	return orders
}

func (e *Engine) evaluateOne(ctx context.Context, wf model.Workflow, asOf time.Time) (*model.Order, error) {
	condition := wf.Conditions[0]

	candles, err := e.indicatorCandles(ctx, wf, condition.Indicator, asOf)
	if err != nil {
		return nil, err
	}
	if len(candles) > 0 {
		e.log.Debug().Str("workflow", wf.Name).Interface("candle", candles[0]).Msg("newest indicator candle")
	}

	strat, err := strategyFor(condition.Indicator.Name)
	if err != nil {
		return nil, err
	}
	if err := strat.init(condition.Indicator, candles); err != nil {
		return nil, err
	}

	closeCandle, err := e.candles.LatestHourCandle(ctx, wf.CFD, condition.Close.UnitTime, asOf)
	if err != nil {
		return nil, err
	}
	element := elementPrice(closeCandle, condition.Element)

	// The trigger candle always comes from the CFD so the rule keeps
	// working in index off hours.
	triggerCandle, err := e.candles.LatestHourCandle(ctx, wf.CFD, wf.Trigger.UnitTime, asOf)
	if err != nil {
		return nil, err
	}

	trigger := wf.Trigger
	switch condition.Close.Direction {
	case model.Below:
		if !strat.belowCondition(closeCandle, condition.Close.Spread, element) {
			return nil, nil
		}
		if trigger.Location != model.LocationLower || trigger.Signal != model.SignalBreakout {
			e.log.Warn().Str("workflow", wf.Name).Str("location", string(trigger.Location)).Str("signal", string(trigger.Signal)).Msg("trigger combination not handled")
			return nil, nil
		}
		kind := model.OrderLimit
		if trigger.OrderDirection == model.Sell {
			kind = model.OrderOpenStop
		}
		return &model.Order{
			Code:      wf.CFD,
			Price:     triggerCandle.Lower - 1,
			Quantity:  trigger.Quantity,
			Direction: trigger.OrderDirection,
			Kind:      kind,
		}, nil
	case model.Above:
		if !strat.aboveCondition(closeCandle, condition.Close.Spread, element) {
			return nil, nil
		}
		if trigger.Location != model.LocationHigher || trigger.Signal != model.SignalBreakout {
			e.log.Warn().Str("workflow", wf.Name).Str("location", string(trigger.Location)).Str("signal", string(trigger.Signal)).Msg("trigger combination not handled")
			return nil, nil
		}
		kind := model.OrderLimit
		if trigger.OrderDirection == model.Buy {
			kind = model.OrderOpenStop
		}
		return &model.Order{
			Code:      wf.CFD,
			Price:     triggerCandle.Higher + 1,
			Quantity:  trigger.Quantity,
			Direction: trigger.OrderDirection,
			Kind:      kind,
		}, nil
	}
	return nil, nil
}

// indicatorCandles builds the session series the condition's indicator
// is computed on, sized by indicator type and unit time with a 3x
// margin for skipped boundaries.
func (e *Engine) indicatorCandles(ctx context.Context, wf model.Workflow, spec model.IndicatorSpec, asOf time.Time) ([]model.Candle, error) {
	hours := candleCount(spec.Name, spec.UnitTime)
	if hours == 0 {
		return nil, fmt.Errorf("%w: %q", model.ErrUnsupportedIndicator, spec.Name)
	}
	e.log.Debug().Str("indicator", string(spec.Name)).Stringer("ut", spec.UnitTime).Int("hours", hours).Msg("fetch indicator candles")
	return e.candles.BuildSessionCandles(ctx, wf.Index, wf.CFD, spec.UnitTime, wf.Window(), hours*3, asOf)
}

func elementPrice(c model.Candle, element *model.WorkflowElement) *float64 {
	if element == nil {
		return nil
	}
	var v float64
	switch *element {
	case model.ElementClose:
		v = c.Close
	case model.ElementHigh:
		v = c.Higher
	case model.ElementLow:
		v = c.Lower
	default:
		return nil
	}
	return &v
}
