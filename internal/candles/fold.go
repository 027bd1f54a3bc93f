package candles

import (
	"time"

	"marketflow/pkg/model"
)

// h4Runs maps a session's opening hour to the H4 run table: the hour an
// hourly run ends on, and how many hourly candles it spans. For the
// 07:00 session the runs are 07-09, 10-13 and 14-15.
var h4Runs = map[int]map[int]int{
	7:  {9: 3, 13: 4, 15: 2},
	13: {16: 4, 20: 4},
}

// FoldToH4 merges fixed runs of consecutive hourly candles into 4-hour
// candles. Input and output are newest first; the run's end hour is
// therefore encountered first. Runs that do not end on a recognized
// boundary hour are skipped with a debug note, not treated as errors.
func (s *Service) FoldToH4(hourly []model.Candle, openHourUTC int) []model.Candle {
	runs, ok := h4Runs[openHourUTC]
	if !ok {
		s.log.Debug().Int("open_hour", openHourUTC).Msg("no h4 run table for session")
		return nil
	}
	var out []model.Candle
	for i := 0; i < len(hourly); {
		length, ok := runs[hourly[i].Time.Hour()]
		if !ok || i+length > len(hourly) {
			s.log.Debug().Time("candle", hourly[i].Time).Msg("skip hourly candle outside h4 run")
			i++
			continue
		}
		out = append(out, mergeRun(hourly[i:i+length], model.H4))
		i += length
	}
	return out
}

// FoldToDaily merges one full session's worth of hourly candles into a
// daily candle. The run ends on the session's last hourly candle.
func (s *Service) FoldToDaily(hourly []model.Candle, w model.MarketWindow) []model.Candle {
	length := w.CloseHourUTC - w.OpenHourUTC + 1
	endHour := w.CloseHourUTC
	if w.OpenMinuteOffset == 30 {
		// Half-hour sessions: candles are dated on :30 and the last one
		// starts an hour before the close.
		length = w.CloseHourUTC - w.OpenHourUTC
		endHour = w.CloseHourUTC - 1
	}
	var out []model.Candle
	for i := 0; i < len(hourly); {
		if hourly[i].Time.Hour() != endHour || i+length > len(hourly) {
			s.log.Debug().Time("candle", hourly[i].Time).Msg("skip hourly candle outside daily run")
			i++
			continue
		}
		out = append(out, mergeRun(hourly[i:i+length], model.Daily))
		i += length
	}
	return out
}

// mergeRun folds a newest-first run of candles into one coarser candle:
// close from the newest, open and date from the oldest, range over all.
func mergeRun(run []model.Candle, ut model.UnitTime) model.Candle {
	oldest := run[len(run)-1]
	merged := model.Candle{
		Lower:    run[0].Lower,
		Higher:   run[0].Higher,
		Open:     oldest.Open,
		Close:    run[0].Close,
		UnitTime: ut,
		Time:     oldest.Time,
	}
	for _, c := range run[1:] {
		if c.Lower < merged.Lower {
			merged.Lower = c.Lower
		}
		if c.Higher > merged.Higher {
			merged.Higher = c.Higher
		}
	}
	return merged
}

// BuildDailyFromIntraday reconstructs one daily candle for a partial
// trading day out of hourly candles, for assets that have not received
// a full day bar yet. It requires exactly one candle at the session's
// opening hour and exactly one at its closing hour for that day of the
// month; otherwise it reports absence rather than a partial candle.
func BuildDailyFromIntraday(hourly []model.Candle, dayOfMonth int, w model.MarketWindow) *model.Candle {
	var openCandle, closeCandle *model.Candle
	openSeen, closeSeen := 0, 0
	lower, higher := -1.0, -1.0
	var date time.Time
	for i := range hourly {
		c := hourly[i]
		if c.Time.Day() != dayOfMonth {
			continue
		}
		switch c.Time.Hour() {
		case w.OpenHourUTC:
			openSeen++
			openCandle = &hourly[i]
			date = c.Time
		case w.CloseHourUTC:
			closeSeen++
			closeCandle = &hourly[i]
		}
		if lower < 0 || c.Lower < lower {
			lower = c.Lower
		}
		if higher < 0 || c.Higher > higher {
			higher = c.Higher
		}
	}
	if openSeen != 1 || closeSeen != 1 {
		return nil
	}
	return &model.Candle{
		Lower:    lower,
		Higher:   higher,
		Open:     openCandle.Open,
		Close:    closeCandle.Close,
		UnitTime: model.Daily,
		Time:     date,
	}
}
