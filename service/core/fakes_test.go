package core

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	m "github.com/GabrielFrota/NewsPrice/data/models"
	av "github.com/GabrielFrota/NewsPrice/service/api/alpha_vantage"
	nyt "github.com/GabrielFrota/NewsPrice/service/api/nytimes"
)

type fakePriceFeed struct {
	closes []*m.DailyClose
	err    error
}

func (f *fakePriceFeed) GetDailyCloses(ctx context.Context, series av.TimeSeries, ticker string, from, to time.Time) (*m.TimeSeriesResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &m.TimeSeriesResult{
		Metadata:   &m.TimeSeriesMetadata{Symbol: ticker, LastRefreshed: to},
		TimeSeries: f.closes,
	}, nil
}

type fakeNewsFeed struct {
	articles []nyt.Article
	err      error
}

func (f *fakeNewsFeed) SearchArticles(ctx context.Context, query string, from, to time.Time) ([]nyt.Article, error) {
	return f.articles, f.err
}

// fakeClassifier scores by exact abstract, unknown text is an error
type fakeClassifier struct {
	scores map[string]int
	calls  atomic.Int32
}

func (f *fakeClassifier) Classify(ctx context.Context, text string) (int, error) {
	f.calls.Add(1)
	score, ok := f.scores[text]
	if !ok {
		return 0, fmt.Errorf("no score for %q", text)
	}
	return score, nil
}

func (f *fakeClassifier) Name() string {
	return "fake"
}

// exampleCloses are the closes behind exampleIndex
func exampleCloses() []*m.DailyClose {
	return []*m.DailyClose{
		{TradingDate: d0, Close: 100},
		{TradingDate: d1, Close: 101},
		{TradingDate: d2, Close: 99},
		{TradingDate: d3, Close: 99.5},
		{TradingDate: d4, Close: 102.5},
	}
}

func exampleArticles() []nyt.Article {
	return []nyt.Article{
		{PublishedOn: d1, Abstract: "Deliveries beat estimates.", WebURL: "https://example.com/1"},
		{PublishedOn: d2, Abstract: "Record quarter announced.", WebURL: "https://example.com/2"},
		{PublishedOn: d2.AddDate(0, 0, 1), Abstract: "Regulators open an inquiry.", WebURL: "https://example.com/3"},
		{PublishedOn: d4, Abstract: "Shares were flat.", WebURL: "https://example.com/4"},
	}
}

func exampleClassifier() *fakeClassifier {
	return &fakeClassifier{scores: map[string]int{
		"Deliveries beat estimates.":  1,
		"Record quarter announced.":   2,
		"Regulators open an inquiry.": -2,
		"Shares were flat.":           0,
	}}
}

func fakeServiceContext() *ServiceContext {
	return &ServiceContext{
		Context:      context.Background(),
		AlphaVantage: &fakePriceFeed{closes: exampleCloses()},
		NYTimes:      &fakeNewsFeed{articles: exampleArticles()},
		Classifier:   exampleClassifier(),
		Series:       av.TimeSeriesDaily,
		Metrics:      NewMetrics(),
	}
}
