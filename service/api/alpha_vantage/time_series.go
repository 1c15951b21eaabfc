package alpha_vantage

import (
	"strings"
)

type TimeSeries uint8

// TimeSeries specifies which daily feed to query for closing prices.
const (
	TimeSeriesDaily TimeSeries = iota
	TimeSeriesDailyAdjusted
)

func (t TimeSeries) Name() string {
	switch t {
	case TimeSeriesDaily:
		return "TimeSeriesDaily"
	case TimeSeriesDailyAdjusted:
		return "TimeSeriesDailyAdjusted"
	default:
		return ""
	}
}

func (t TimeSeries) Function() string {
	switch t {
	case TimeSeriesDaily:
		return "TIME_SERIES_DAILY"
	case TimeSeriesDailyAdjusted:
		return "TIME_SERIES_DAILY_ADJUSTED"
	default:
		return ""
	}
}

// TimeSeriesKey is the top level json object holding the series, both daily feeds share it
func (t TimeSeries) TimeSeriesKey() string {
	switch t {
	case TimeSeriesDaily, TimeSeriesDailyAdjusted:
		return "Time Series (Daily)"
	default:
		return ""
	}
}

func (t TimeSeries) IsAdjusted() bool {
	return strings.HasSuffix(t.Function(), "_ADJUSTED")
}

// ParseTimeSeries maps the cli/config name onto a series, anything but "adjusted" is the raw daily feed
func ParseTimeSeries(s string) TimeSeries {
	if strings.EqualFold(strings.TrimSpace(s), "adjusted") {
		return TimeSeriesDailyAdjusted
	}
	return TimeSeriesDaily
}
