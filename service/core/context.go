package core

import (
	"context"
	"errors"
	"time"

	m "github.com/GabrielFrota/NewsPrice/data/models"
	r "github.com/GabrielFrota/NewsPrice/data/repos"
	av "github.com/GabrielFrota/NewsPrice/service/api/alpha_vantage"
	nyt "github.com/GabrielFrota/NewsPrice/service/api/nytimes"
	"github.com/GabrielFrota/NewsPrice/service/sentiment"
)

// ErrNotConfigured is returned when a report needs a feed or classifier whose key is missing
var ErrNotConfigured = errors.New("not configured")

// PriceFeed is satisfied by the alpha vantage client
type PriceFeed interface {
	GetDailyCloses(ctx context.Context, series av.TimeSeries, ticker string, from, to time.Time) (*m.TimeSeriesResult, error)
}

// NewsFeed is satisfied by the new york times client
type NewsFeed interface {
	SearchArticles(ctx context.Context, query string, from, to time.Time) ([]nyt.Article, error)
}

// ServiceContext wires the feeds, storage and classifier a report run needs.
// Postgres is nil when no database is configured, nothing is persisted then.
// The feeds and classifier are nil when their keys are missing, only caller supplied reports work then.
type ServiceContext struct {
	Context      context.Context
	Postgres     *r.Postgres
	AlphaVantage PriceFeed
	NYTimes      NewsFeed
	Classifier   sentiment.Classifier
	Series       av.TimeSeries
	Metrics      *Metrics
}
