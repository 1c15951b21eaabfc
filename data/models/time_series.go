package models

import (
	"time"

	"github.com/guregu/null/v6"
)

type TimeSeriesResult struct {
	Metadata   *TimeSeriesMetadata
	TimeSeries []*DailyClose
}

// TimeSeriesMetadata is one row per symbol, last refreshed is what the feed reported on the last sync
type TimeSeriesMetadata struct {
	Id            int32       `db:"id"`
	Symbol        string      `db:"symbol"`
	LastRefreshed time.Time   `db:"last_refreshed"`
	Information   null.String `db:"information"`
	TimeZone      null.String `db:"time_zone"`
}

// DailyClose is a single trading day close, trading date is always a UTC calendar day
type DailyClose struct {
	SourceId      int32      `db:"source_id"`
	TradingDate   time.Time  `db:"trading_date"`
	Close         float64    `db:"close"`
	AdjustedClose null.Float `db:"adjusted_close"`
}

// Price prefers the adjusted close when the feed supplied one
func (dc *DailyClose) Price() float64 {
	if dc.AdjustedClose.Valid {
		return dc.AdjustedClose.Float64
	}
	return dc.Close
}
