package model

import (
	"fmt"
	"time"
)

// UnitTime is the duration a candle represents. The ordering of the
// constants matters: aggregation only moves from finer to coarser units.
type UnitTime int

const (
	M15 UnitTime = iota
	H1
	H4
	Daily
	Weekly
)

var unitTimeNames = map[UnitTime]string{
	M15:    "15m",
	H1:     "h1",
	H4:     "h4",
	Daily:  "daily",
	Weekly: "weekly",
}

// ParseUnitTime maps a catalog literal to a UnitTime.
func ParseUnitTime(s string) (UnitTime, error) {
	for ut, name := range unitTimeNames {
		if name == s {
			return ut, nil
		}
	}
	return 0, fmt.Errorf("%w: unit time %q", ErrUnsupportedUnitTime, s)
}

func (u UnitTime) String() string {
	if name, ok := unitTimeNames[u]; ok {
		return name
	}
	return fmt.Sprintf("UnitTime(%d)", int(u))
}

// MarshalYAML makes UnitTime round-trip through catalog files.
func (u UnitTime) MarshalYAML() (interface{}, error) {
	return u.String(), nil
}

func (u *UnitTime) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	ut, err := ParseUnitTime(s)
	if err != nil {
		return err
	}
	*u = ut
	return nil
}

// Candle is one OHLC bar for a fixed time unit. Sequences of candles are
// ordered newest-first throughout this module.
type Candle struct {
	Lower    float64   `json:"lower"`
	Higher   float64   `json:"higher"`
	Open     float64   `json:"open"`
	Close    float64   `json:"close"`
	UnitTime UnitTime  `json:"unit_time"`
	Time     time.Time `json:"time,omitempty"`
}

// RawBar is a price bar as delivered by an external bar source.
type RawBar struct {
	Time  time.Time `json:"time"`
	Open  float64   `json:"open"`
	High  float64   `json:"high"`
	Low   float64   `json:"low"`
	Close float64   `json:"close"`
}

// Candle converts a raw bar into a candle of the given unit.
func (b RawBar) Candle(ut UnitTime) Candle {
	return Candle{
		Lower:    b.Low,
		Higher:   b.High,
		Open:     b.Open,
		Close:    b.Close,
		UnitTime: ut,
		Time:     b.Time,
	}
}

// MarketWindow describes a market's daily trading session in UTC.
// OpenMinuteOffset is 0 for sessions opening on the hour and 30 for
// sessions opening on the half hour.
type MarketWindow struct {
	OpenHourUTC      int `yaml:"open_hour"`
	CloseHourUTC     int `yaml:"close_hour"`
	OpenMinuteOffset int `yaml:"open_minutes"`
}

// EUMarket is the continental European session, 07:00-15:00 UTC.
func EUMarket() MarketWindow {
	return MarketWindow{OpenHourUTC: 7, CloseHourUTC: 15, OpenMinuteOffset: 0}
}

// USMarket is the US session, 13:30-20:00 UTC.
func USMarket() MarketWindow {
	return MarketWindow{OpenHourUTC: 13, CloseHourUTC: 20, OpenMinuteOffset: 30}
}
