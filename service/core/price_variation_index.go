package core

import (
	"fmt"
	"sort"
	"time"

	ex "github.com/GabrielFrota/NewsPrice/data/extensions"
	m "github.com/GabrielFrota/NewsPrice/data/models"
)

// ClosingPrice is one raw observation of the price feed
type ClosingPrice struct {
	Date  time.Time
	Price float64
}

// TradingDay is a date the market was open, variation is the close minus the previous trading day close
type TradingDay struct {
	Date      time.Time
	Variation float64
}

// DataError means there is nothing sensible to align against, it aborts the whole report
type DataError struct {
	Reason string
}

func (e *DataError) Error() string {
	return fmt.Sprintf("invalid price series: %s", e.Reason)
}

// PriceVariationIndex is an immutable, date ordered series of day over day price variations.
// Navigation never fails loudly, every query reports whether a matching day exists.
type PriceVariationIndex struct {
	days []TradingDay
}

// NewPriceVariationIndex diffs consecutive closes. The first close only serves as the base for the
// second one, so the index holds len(closes)-1 days.
func NewPriceVariationIndex(closes []ClosingPrice) (*PriceVariationIndex, error) {
	if len(closes) < 2 {
		return nil, &DataError{Reason: fmt.Sprintf("at least 2 closing prices are required, got %d", len(closes))}
	}

	days := make([]TradingDay, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		prev, curr := closes[i-1], closes[i]
		prevDate, currDate := ex.ToDate(prev.Date), ex.ToDate(curr.Date)
		if !currDate.After(prevDate) {
			return nil, &DataError{Reason: fmt.Sprintf("dates must be unique and ascending, %s follows %s", ex.FmtShort(currDate), ex.FmtShort(prevDate))}
		}

		days = append(days, TradingDay{
			Date:      currDate,
			Variation: curr.Price - prev.Price,
		})
	}

	return &PriceVariationIndex{days: days}, nil
}

// ClosingPricesFromDailyCloses maps stored or fetched closes, expected oldest first
func ClosingPricesFromDailyCloses(closes []*m.DailyClose) []ClosingPrice {
	res := make([]ClosingPrice, len(closes))
	for i, c := range closes {
		res[i] = ClosingPrice{Date: c.TradingDate, Price: c.Price()}
	}
	return res
}

func (idx *PriceVariationIndex) Len() int {
	return len(idx.days)
}

// Days returns a copy of the ordered trading days
func (idx *PriceVariationIndex) Days() []TradingDay {
	res := make([]TradingDay, len(idx.days))
	copy(res, idx.days)
	return res
}

// Ceiling returns the day with the smallest date >= d
func (idx *PriceVariationIndex) Ceiling(d time.Time) (TradingDay, bool) {
	i := idx.searchFrom(d)
	if i == len(idx.days) {
		return TradingDay{}, false
	}
	return idx.days[i], true
}

// Predecessor returns the day with the greatest date strictly before d
func (idx *PriceVariationIndex) Predecessor(d time.Time) (TradingDay, bool) {
	i := idx.searchFrom(d) - 1
	if i < 0 {
		return TradingDay{}, false
	}
	return idx.days[i], true
}

// Successor returns the day with the smallest date strictly after d
func (idx *PriceVariationIndex) Successor(d time.Time) (TradingDay, bool) {
	d = ex.ToDate(d)
	i := sort.Search(len(idx.days), func(i int) bool {
		return idx.days[i].Date.After(d)
	})
	if i == len(idx.days) {
		return TradingDay{}, false
	}
	return idx.days[i], true
}

// searchFrom is the position of the first day on or after d
func (idx *PriceVariationIndex) searchFrom(d time.Time) int {
	d = ex.ToDate(d)
	return sort.Search(len(idx.days), func(i int) bool {
		return !idx.days[i].Date.Before(d)
	})
}
