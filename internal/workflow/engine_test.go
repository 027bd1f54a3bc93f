package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketflow/pkg/model"
)

// stubProvider serves canned candles instead of aggregating bars. It
// records the last requested lookback so tests can check fetch sizes.
type stubProvider struct {
	session       []model.Candle
	hour          map[model.UnitTime]model.Candle
	err           error
	lookbackHours int
}

func (s *stubProvider) BuildSessionCandles(_ context.Context, _, _ string, _ model.UnitTime, _ model.MarketWindow, lookbackHours int, _ time.Time) ([]model.Candle, error) {
	s.lookbackHours = lookbackHours
	return s.session, s.err
}

func (s *stubProvider) LatestHourCandle(_ context.Context, _ string, ut model.UnitTime, _ time.Time) (model.Candle, error) {
	c, ok := s.hour[ut]
	if !ok {
		return model.Candle{}, model.ErrMissingCandle
	}
	return c, nil
}

func flatCandles(close float64, n int) []model.Candle {
	out := make([]model.Candle, n)
	for i := range out {
		out[i] = model.Candle{Lower: close - 1, Higher: close + 1, Open: close, Close: close, UnitTime: model.H1}
	}
	return out
}

func ma50Workflow(dir model.WorkflowDirection, spread float64, trigger model.Trigger) model.Workflow {
	return model.Workflow{
		Name:    "test workflow",
		Index:   "DAX.I",
		CFD:     "GER40.I",
		Enabled: true,
		Conditions: []model.Condition{{
			Indicator: model.IndicatorSpec{Name: model.IndicatorMA50, UnitTime: model.H1},
			Close:     model.CloseSpec{Direction: dir, UnitTime: model.H1, Spread: spread},
		}},
		Trigger: trigger,
	}
}

func TestEvaluateShortBreakout(t *testing.T) {
	hourCandle := model.Candle{Lower: 9, Higher: 10.5, Open: 8.5, Close: 10.6, UnitTime: model.H1}
	provider := &stubProvider{
		session: flatCandles(12, 55),
		hour:    map[model.UnitTime]model.Candle{model.H1: hourCandle},
	}
	wf := ma50Workflow(model.Below, 1.5, model.Trigger{
		UnitTime:       model.H1,
		Signal:         model.SignalBreakout,
		Location:       model.LocationLower,
		OrderDirection: model.Sell,
		Quantity:       9,
	})

	engine := NewEngine(provider, zerolog.Nop())
	orders := engine.Evaluate(context.Background(), []model.Workflow{wf}, time.Now().UTC())
	require.Len(t, orders, 1)
	assert.Equal(t, model.Order{
		Code:      "GER40.I",
		Price:     8,
		Quantity:  9,
		Direction: model.Sell,
		Kind:      model.OrderOpenStop,
	}, orders[0])
}

func TestEvaluateLongBreakout(t *testing.T) {
	hourCandle := model.Candle{Lower: 9, Higher: 10.5, Open: 8.5, Close: 10.6, UnitTime: model.H1}
	provider := &stubProvider{
		session: flatCandles(10.5, 55),
		hour:    map[model.UnitTime]model.Candle{model.H1: hourCandle},
	}
	wf := ma50Workflow(model.Above, 2, model.Trigger{
		UnitTime:       model.H1,
		Signal:         model.SignalBreakout,
		Location:       model.LocationHigher,
		OrderDirection: model.Buy,
		Quantity:       1,
	})

	engine := NewEngine(provider, zerolog.Nop())
	orders := engine.Evaluate(context.Background(), []model.Workflow{wf}, time.Now().UTC())
	require.Len(t, orders, 1)
	assert.Equal(t, 11.5, orders[0].Price)
	assert.Equal(t, model.Buy, orders[0].Direction)
	assert.Equal(t, model.OrderOpenStop, orders[0].Kind)
}

func TestEvaluateConditionNotMet(t *testing.T) {
	// MA50 far above the close candle's reach.
	provider := &stubProvider{
		session: flatCandles(50, 55),
		hour: map[model.UnitTime]model.Candle{
			model.H1: {Lower: 9, Higher: 10.5, Open: 8.5, Close: 10.6, UnitTime: model.H1},
		},
	}
	wf := ma50Workflow(model.Below, 1.5, model.Trigger{
		UnitTime:       model.H1,
		Signal:         model.SignalBreakout,
		Location:       model.LocationLower,
		OrderDirection: model.Sell,
		Quantity:       9,
	})

	engine := NewEngine(provider, zerolog.Nop())
	assert.Empty(t, engine.Evaluate(context.Background(), []model.Workflow{wf}, time.Now().UTC()))
}

func TestEvaluateSkipsDisabledAndExpired(t *testing.T) {
	provider := &stubProvider{
		session: flatCandles(12, 55),
		hour: map[model.UnitTime]model.Candle{
			model.H1: {Lower: 9, Higher: 10.5, Open: 8.5, Close: 10.6, UnitTime: model.H1},
		},
	}
	trigger := model.Trigger{
		UnitTime:       model.H1,
		Signal:         model.SignalBreakout,
		Location:       model.LocationLower,
		OrderDirection: model.Sell,
		Quantity:       9,
	}

	disabled := ma50Workflow(model.Below, 1.5, trigger)
	disabled.Enabled = false

	expired := ma50Workflow(model.Below, 1.5, trigger)
	past := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	expired.EndDate = &past

	engine := NewEngine(provider, zerolog.Nop())
	orders := engine.Evaluate(context.Background(), []model.Workflow{disabled, expired}, time.Now().UTC())
	assert.Empty(t, orders)
}

func TestEvaluateUnhandledTriggerCombination(t *testing.T) {
	provider := &stubProvider{
		session: flatCandles(12, 55),
		hour: map[model.UnitTime]model.Candle{
			model.H1: {Lower: 9, Higher: 10.5, Open: 8.5, Close: 10.6, UnitTime: model.H1},
		},
	}
	// Below condition with a higher-side trigger is logged and skipped.
	wf := ma50Workflow(model.Below, 1.5, model.Trigger{
		UnitTime:       model.H1,
		Signal:         model.SignalBreakout,
		Location:       model.LocationHigher,
		OrderDirection: model.Sell,
		Quantity:       9,
	})

	engine := NewEngine(provider, zerolog.Nop())
	assert.Empty(t, engine.Evaluate(context.Background(), []model.Workflow{wf}, time.Now().UTC()))
}

func TestEvaluateMissingCandleSkipsWorkflow(t *testing.T) {
	// No hourly candle available: the workflow fails, the run goes on.
	broken := &stubProvider{
		session: flatCandles(12, 55),
		hour:    map[model.UnitTime]model.Candle{},
	}
	wf := ma50Workflow(model.Below, 1.5, model.Trigger{
		UnitTime:       model.H1,
		Signal:         model.SignalBreakout,
		Location:       model.LocationLower,
		OrderDirection: model.Sell,
		Quantity:       9,
	})

	engine := NewEngine(broken, zerolog.Nop())
	assert.Empty(t, engine.Evaluate(context.Background(), []model.Workflow{wf}, time.Now().UTC()))
}

func TestCandleCountUnitTimeScaling(t *testing.T) {
	cases := []struct {
		name model.IndicatorType
		ut   model.UnitTime
		want int
	}{
		{model.IndicatorMA50, model.H1, 55},
		{model.IndicatorMA50, model.H4, 220},
		{model.IndicatorCombo, model.H4, 3000},
		{model.IndicatorBBHigh, model.Daily, 168},
		{model.IndicatorBBLow, model.H1, 21},
		// single-candle reads are not scaled by the unit time
		{model.IndicatorZone, model.H4, 1},
		{model.IndicatorPolarity, model.Daily, 1},
		{model.IndicatorType("rsi"), model.H1, 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, candleCount(tc.name, tc.ut), "%s %v", tc.name, tc.ut)
	}
}

func TestEvaluateZoneFetchesFlatLookback(t *testing.T) {
	// A zone condition on H4 still reads a single candle's worth of
	// session history.
	provider := &stubProvider{
		session: flatCandles(12, 5),
		hour: map[model.UnitTime]model.Candle{
			model.H1: {Lower: 9, Higher: 10.5, Open: 8.5, Close: 10.6, UnitTime: model.H1},
		},
	}
	low, high := 10.0, 14.0
	wf := ma50Workflow(model.Below, 1.5, model.Trigger{
		UnitTime:       model.H1,
		Signal:         model.SignalBreakout,
		Location:       model.LocationLower,
		OrderDirection: model.Sell,
		Quantity:       1,
	})
	wf.Conditions[0].Indicator = model.IndicatorSpec{
		Name:      model.IndicatorZone,
		UnitTime:  model.H4,
		Value:     &low,
		ZoneValue: &high,
	}

	engine := NewEngine(provider, zerolog.Nop())
	engine.Evaluate(context.Background(), []model.Workflow{wf}, time.Now().UTC())
	assert.Equal(t, 3, provider.lookbackHours)
}
