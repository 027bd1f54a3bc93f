package model

import "errors"

// Failure taxonomy shared by the aggregator, the indicator library and
// the workflow engine. Callers wrap these with context via fmt.Errorf
// and %w; nothing in this module retries or fabricates partial results.
var (
	// ErrInsufficientData: too few bars or candles for the requested
	// computation.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrUnsupportedUnitTime: an aggregation or trigger was requested
	// for a unit time the engine does not implement.
	ErrUnsupportedUnitTime = errors.New("unsupported unit time")

	// ErrUnsupportedIndicator: a workflow references an indicator type
	// with no registered strategy.
	ErrUnsupportedIndicator = errors.New("unsupported indicator")

	// ErrMissingCandle: a trigger or close candle lookup returned
	// nothing.
	ErrMissingCandle = errors.New("missing candle")
)
