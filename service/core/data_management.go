package core

import (
	"fmt"
	"time"

	"github.com/guregu/null/v6"
	"github.com/rs/zerolog/log"

	ex "github.com/GabrielFrota/NewsPrice/data/extensions"
	m "github.com/GabrielFrota/NewsPrice/data/models"
	nyt "github.com/GabrielFrota/NewsPrice/service/api/nytimes"
)

// SyncDailyCloses fetches the closes of symbol within [from, to] and, when storage is configured,
// stores the trading days newer than anything already stored.
func (sc *ServiceContext) SyncDailyCloses(symbol string, from, to time.Time) ([]*m.DailyClose, error) {
	if sc.AlphaVantage == nil {
		return nil, fmt.Errorf("error syncing %s, price feed %w", symbol, ErrNotConfigured)
	}

	tsr, err := sc.AlphaVantage.GetDailyCloses(sc.Context, sc.Series, symbol, from, to)
	if err != nil {
		return nil, fmt.Errorf("error fetching daily closes for %s: %w", symbol, err)
	}

	if sc.Postgres == nil {
		return tsr.TimeSeries, nil
	}

	if err := sc.storeDailyCloses(symbol, tsr); err != nil {
		return nil, err
	}

	return tsr.TimeSeries, nil
}

func (sc *ServiceContext) storeDailyCloses(symbol string, tsr *m.TimeSeriesResult) error {
	md, err := sc.Postgres.GetMetaDataBySymbol(sc.Context, symbol)
	if err != nil {
		return fmt.Errorf("error determining if meta data exists in sync data: %w", err)
	}

	tx, err := sc.Postgres.GetTransaction(sc.Context)
	if err != nil {
		return fmt.Errorf("error beginning transaction: %w", err)
	}
	defer tx.Rollback(sc.Context) // no-op once committed

	if md == nil {
		log.Info().Str("symbol", symbol).Msg("adding new symbol to db")
		md = &m.TimeSeriesMetadata{
			Symbol:        symbol,
			LastRefreshed: tsr.Metadata.LastRefreshed,
			Information:   tsr.Metadata.Information,
			TimeZone:      tsr.Metadata.TimeZone,
		}

		if err := sc.Postgres.InsertNewMetaData(sc.Context, md, &tx); err != nil {
			return fmt.Errorf("error adding %s to db: %w", symbol, err)
		}
	}

	mrd, err := sc.Postgres.GetMostRecentTradingDate(sc.Context, symbol)
	if err != nil {
		return fmt.Errorf("error getting most recent trading date for symbol %s: %w", symbol, err)
	}

	f := func(dc *m.DailyClose) bool { return mrd == nil || dc.TradingDate.After(*mrd) }
	toInsert := ex.FilterMultiplePtr(tsr.TimeSeries, f)

	var ra int64
	if len(toInsert) > 0 {
		ra, err = sc.Postgres.InsertDailyCloses(sc.Context, toInsert, md.Id, &tx)
		if err != nil {
			return fmt.Errorf("error inserting daily closes: %w", err)
		}
	}

	if err := sc.Postgres.UpdateLastRefreshedDate(sc.Context, symbol, tsr.Metadata.LastRefreshed, &tx); err != nil {
		return err
	}

	if err := tx.Commit(sc.Context); err != nil {
		return fmt.Errorf("error committing daily closes for symbol %s: %w", symbol, err)
	}

	log.Info().Str("symbol", symbol).Int("fetched", len(tsr.TimeSeries)).Int64("inserted", ra).Msg("daily closes synced")
	return nil
}

// SyncNewsSentiment searches articles for query and scores them. With storage configured an article
// already scored for the same query keeps its stored score, only new articles reach the classifier
// and are stored afterwards.
func (sc *ServiceContext) SyncNewsSentiment(query string, from, to time.Time) (*SentimentObservationSet, error) {
	if sc.NYTimes == nil {
		return nil, fmt.Errorf("error syncing news for %q, news feed %w", query, ErrNotConfigured)
	}

	articles, err := sc.NYTimes.SearchArticles(sc.Context, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("error searching articles for %q: %w", query, err)
	}

	stored := map[string]*m.NewsSentiment{}
	if sc.Postgres != nil && len(articles) > 0 {
		urls := make([]string, len(articles))
		for i, a := range articles {
			urls[i] = a.WebURL
		}

		stored, err = sc.Postgres.GetNewsSentimentByUrls(sc.Context, query, urls)
		if err != nil {
			return nil, fmt.Errorf("error reading stored sentiment for %q: %w", query, err)
		}
	}

	pending := ex.FilterMultiple(articles, func(a nyt.Article) bool {
		_, ok := stored[a.WebURL]
		return !ok
	})

	scoredNew, err := ScoreArticles(sc.Context, sc.Classifier, pending)
	if err != nil {
		return nil, err
	}
	sc.Metrics.RecordClassified(false, len(scoredNew))
	sc.Metrics.RecordClassified(true, len(articles)-len(pending))

	if sc.Postgres != nil && len(scoredNew) > 0 {
		if _, err := sc.Postgres.InsertNewsSentiment(sc.Context, sc.toNewsSentiment(query, scoredNew)); err != nil {
			return nil, fmt.Errorf("error storing sentiment for %q: %w", query, err)
		}
	}

	// observations follow search order whether the score was stored or new
	scored := make([]ScoredArticle, 0, len(articles))
	next := 0
	for _, a := range articles {
		if ns, ok := stored[a.WebURL]; ok {
			scored = append(scored, ScoredArticle{Article: a, Score: int(ns.Score)})
			continue
		}
		scored = append(scored, scoredNew[next])
		next++
	}

	log.Info().Str("query", query).Int("articles", len(articles)).Int("classified", len(scoredNew)).Msg("news sentiment synced")
	return ObservationsFromScored(scored)
}

func (sc *ServiceContext) toNewsSentiment(query string, scored []ScoredArticle) []*m.NewsSentiment {
	model := null.String{}
	if sc.Classifier != nil {
		model = null.StringFrom(sc.Classifier.Name())
	}

	res := make([]*m.NewsSentiment, len(scored))
	for i, s := range scored {
		res[i] = &m.NewsSentiment{
			Query:       query,
			WebUrl:      s.WebURL,
			PublishedOn: s.PublishedOn,
			Abstract:    s.Abstract,
			Score:       int16(s.Score),
			Model:       model,
		}
	}
	return res
}
