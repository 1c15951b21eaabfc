package models

import "github.com/guregu/null/v6"

// ReportRequest carries caller supplied inputs, dates are YYYY-MM-DD.
// Prices must be ascending by date; observations may repeat a date and need not fall on trading days.
type ReportRequest struct {
	Prices       []PricePoint       `json:"prices" validate:"dive"`
	Observations []ObservationPoint `json:"observations" validate:"dive"`
}

type PricePoint struct {
	Date  string  `json:"date" validate:"required,datetime=2006-01-02"`
	Close float64 `json:"close"`
}

type ObservationPoint struct {
	Date  string `json:"date" validate:"required,datetime=2006-01-02"`
	Score int    `json:"score" validate:"min=-2,max=2"`
}

type ReportResponse struct {
	Symbol       null.String    `json:"symbol"`
	Query        null.String    `json:"query"`
	From         null.String    `json:"from"`
	To           null.String    `json:"to"`
	Observations int            `json:"observations"`
	TradingDays  int            `json:"tradingDays"`
	Results      []OffsetResult `json:"results"`
}

// OffsetResult has a coefficient only when outcome is "computed", otherwise it is null
type OffsetResult struct {
	Offset      int           `json:"offset"`
	Description string        `json:"description"`
	Outcome     string        `json:"outcome"`
	Coefficient null.Float    `json:"coefficient"`
	Excluded    int           `json:"excluded"`
	Pairs       []AlignedPair `json:"pairs"`
}

type AlignedPair struct {
	PublishedOn string  `json:"publishedOn"`
	TradingDay  string  `json:"tradingDay"`
	Score       int     `json:"score"`
	Variation   float64 `json:"variation"`
}
