package model

import (
	"fmt"
	"time"
)

// Direction is the side of a trade order.
type Direction string

const (
	Buy  Direction = "buy"
	Sell Direction = "sell"
)

// ParseDirection maps a catalog literal to a Direction.
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case Buy, Sell:
		return Direction(s), nil
	}
	return "", fmt.Errorf("invalid direction %q", s)
}

// OrderKind is how a candidate order should be placed by the execution
// collaborator.
type OrderKind string

const (
	OrderLimit    OrderKind = "limit"
	OrderStop     OrderKind = "stop"
	OrderOpenStop OrderKind = "open_stop"
	OrderMarket   OrderKind = "market"
)

// WorkflowDirection tells on which side of the indicator the close
// condition must sit.
type WorkflowDirection string

const (
	Below WorkflowDirection = "below"
	Above WorkflowDirection = "above"
)

func ParseWorkflowDirection(s string) (WorkflowDirection, error) {
	switch WorkflowDirection(s) {
	case Below, Above:
		return WorkflowDirection(s), nil
	}
	return "", fmt.Errorf("invalid workflow direction %q", s)
}

// WorkflowLocation is the side of the trigger candle a breakout is
// priced from.
type WorkflowLocation string

const (
	LocationLower  WorkflowLocation = "lower"
	LocationHigher WorkflowLocation = "higher"
)

func ParseWorkflowLocation(s string) (WorkflowLocation, error) {
	switch WorkflowLocation(s) {
	case LocationLower, LocationHigher:
		return WorkflowLocation(s), nil
	}
	return "", fmt.Errorf("invalid workflow location %q", s)
}

// WorkflowSignal names the trigger mechanism. Only breakout exists today.
type WorkflowSignal string

const SignalBreakout WorkflowSignal = "breakout"

func ParseWorkflowSignal(s string) (WorkflowSignal, error) {
	if WorkflowSignal(s) == SignalBreakout {
		return SignalBreakout, nil
	}
	return "", fmt.Errorf("invalid workflow signal %q", s)
}

// WorkflowElement overrides which candle element the close condition
// compares against the indicator.
type WorkflowElement string

const (
	ElementClose WorkflowElement = "close"
	ElementHigh  WorkflowElement = "high"
	ElementLow   WorkflowElement = "low"
)

func ParseWorkflowElement(s string) (WorkflowElement, error) {
	switch WorkflowElement(s) {
	case ElementClose, ElementHigh, ElementLow:
		return WorkflowElement(s), nil
	}
	return "", fmt.Errorf("invalid workflow element %q", s)
}

// IndicatorType selects the condition strategy for a workflow.
type IndicatorType string

const (
	IndicatorMA50     IndicatorType = "ma50"
	IndicatorBBHigh   IndicatorType = "bbh"
	IndicatorBBLow    IndicatorType = "bbb"
	IndicatorCombo    IndicatorType = "combo"
	IndicatorPolarity IndicatorType = "pol"
	IndicatorZone     IndicatorType = "zone"
)

func ParseIndicatorType(s string) (IndicatorType, error) {
	switch IndicatorType(s) {
	case IndicatorMA50, IndicatorBBHigh, IndicatorBBLow,
		IndicatorCombo, IndicatorPolarity, IndicatorZone:
		return IndicatorType(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedIndicator, s)
}

// IndicatorSpec names the indicator a condition evaluates, at which unit
// time, with optional fixed levels for zone and polarity variants.
type IndicatorSpec struct {
	Name      IndicatorType `yaml:"name"`
	UnitTime  UnitTime      `yaml:"ut"`
	Value     *float64      `yaml:"value,omitempty"`
	ZoneValue *float64      `yaml:"zone_value,omitempty"`
}

// CloseSpec describes how the close candle is compared to the indicator.
type CloseSpec struct {
	Direction WorkflowDirection `yaml:"direction"`
	UnitTime  UnitTime          `yaml:"ut"`
	Spread    float64           `yaml:"spread"`
}

// Condition pairs an indicator with a close comparison. Element is
// optional; when empty the strategy tests both the close and the
// relevant extreme of the candle.
type Condition struct {
	Indicator IndicatorSpec    `yaml:"indicator"`
	Close     CloseSpec        `yaml:"close"`
	Element   *WorkflowElement `yaml:"element,omitempty"`
}

// Trigger describes the order emitted when a workflow's conditions hold.
type Trigger struct {
	UnitTime       UnitTime         `yaml:"ut"`
	Signal         WorkflowSignal   `yaml:"signal"`
	Location       WorkflowLocation `yaml:"location"`
	OrderDirection Direction        `yaml:"order_direction"`
	Quantity       float64          `yaml:"quantity"`
}

// Workflow is one declarative trading rule. Index is the instrument the
// indicator is computed on; CFD is the proxy instrument used for close
// and trigger candles so the rule keeps working outside the index's
// trading hours. Workflows are read-only during evaluation.
type Workflow struct {
	ID         string      `yaml:"id,omitempty"`
	Name       string      `yaml:"name"`
	Index      string      `yaml:"index"`
	CFD        string      `yaml:"cfd"`
	EndDate    *time.Time  `yaml:"-"`
	Enabled    bool        `yaml:"enable"`
	DryRun     bool        `yaml:"dry_run,omitempty"`
	IsUS       bool        `yaml:"is_us,omitempty"`
	Conditions []Condition `yaml:"conditions"`
	Trigger    Trigger     `yaml:"trigger"`
}

// Window returns the market session the workflow's index trades in.
func (w Workflow) Window() MarketWindow {
	if w.IsUS {
		return USMarket()
	}
	return EUMarket()
}

// Expired reports whether the workflow's end date is strictly in the
// past relative to now. A missing end date never expires.
func (w Workflow) Expired(now time.Time) bool {
	if w.EndDate == nil {
		return false
	}
	y, m, d := now.UTC().Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return w.EndDate.Before(today)
}

// Order is a candidate order produced by the engine. Ownership passes to the
// order-placement collaborator as soon as the engine returns it.
type Order struct {
	Code      string    `json:"code"`
	Price     float64   `json:"price"`
	Quantity  float64   `json:"quantity"`
	Direction Direction `json:"direction"`
	Kind      OrderKind `json:"kind"`
}
