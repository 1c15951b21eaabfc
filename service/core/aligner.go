package core

import "time"

// TemporalAligner maps a publication date plus a signed trading day offset onto the variation index.
//
// The anchor is always Ceiling(date): news published on a weekend or holiday belongs to the next
// session's move. Offsets then walk one trading day at a time from the anchor, so -1 means the
// session before the anchor, never the calendar day before the publication.
type TemporalAligner struct {
	index *PriceVariationIndex
}

func NewTemporalAligner(index *PriceVariationIndex) *TemporalAligner {
	return &TemporalAligner{index: index}
}

// Align reports false when the anchor or any intermediate step falls off either end of the index
func (ta *TemporalAligner) Align(date time.Time, offset int) (TradingDay, bool) {
	day, ok := ta.index.Ceiling(date)
	if !ok {
		return TradingDay{}, false
	}

	step := ta.index.Successor
	if offset < 0 {
		step = ta.index.Predecessor
		offset = -offset
	}

	for range offset {
		if day, ok = step(day.Date); !ok {
			return TradingDay{}, false
		}
	}

	return day, true
}
