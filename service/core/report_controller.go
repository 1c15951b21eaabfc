package core

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/guregu/null/v6"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	ex "github.com/GabrielFrota/NewsPrice/data/extensions"
	m "github.com/GabrielFrota/NewsPrice/data/models"
	"github.com/GabrielFrota/NewsPrice/service/logging"
	sm "github.com/GabrielFrota/NewsPrice/service/models"
)

const (
	SourceFeeds  = "feeds"
	SourceCaller = "caller"
)

// RequestError is input rejected before any work is done
type RequestError struct {
	Reason string
}

func (e *RequestError) Error() string {
	return "invalid request: " + e.Reason
}

var validate = validator.New()

// RunReport fetches closes and news for the range, classifies the news and correlates both
func (sc *ServiceContext) RunReport(symbol, query string, from, to time.Time) (res *CorrelationReport, err error) {
	defer func() { sc.Metrics.RecordReport(SourceFeeds, err) }()

	start := time.Now()
	if symbol == "" || query == "" {
		return nil, &RequestError{Reason: "symbol and query are required"}
	}
	if from.IsZero() || to.IsZero() || to.Before(from) {
		return nil, &RequestError{Reason: fmt.Sprintf("invalid range %s to %s", ex.FmtShort(from), ex.FmtShort(to))}
	}

	logger := log.With().Str("symbol", symbol).Str("query", query).Str("from", ex.FmtShort(from)).Str("to", ex.FmtShort(to)).Logger()
	logger.Info().Msg("received request to run report")

	var closes []*m.DailyClose
	var observations *SentimentObservationSet

	g, gctx := errgroup.WithContext(sc.Context)
	scg := *sc
	scg.Context = gctx

	g.Go(func() error {
		stepStart := time.Now()
		defer sc.Metrics.ObserveStep("sync_closes", stepStart)

		var err error
		closes, err = scg.SyncDailyCloses(symbol, from, to)
		return err
	})
	g.Go(func() error {
		stepStart := time.Now()
		defer sc.Metrics.ObserveStep("sync_news", stepStart)

		var err error
		observations, err = scg.SyncNewsSentiment(query, from, to)
		return err
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("error syncing report inputs")
		return nil, err
	}
	logging.Step("sync inputs", start).Int("closes", len(closes)).Int("observations", observations.Len()).Msg("report inputs ready")

	res, err = sc.correlate(ClosingPricesFromDailyCloses(closes), observations)
	if err != nil {
		logger.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("error building report")
		return nil, err
	}

	logging.Step("report", start).Str("symbol", symbol).Msg("report completed")
	return res, nil
}

// RunReportFromRequest correlates caller supplied prices and observations, nothing is fetched or stored
func (sc *ServiceContext) RunReportFromRequest(req sm.ReportRequest) (res *CorrelationReport, err error) {
	defer func() { sc.Metrics.RecordReport(SourceCaller, err) }()

	start := time.Now()
	if err := validate.Struct(req); err != nil {
		return nil, &RequestError{Reason: err.Error()}
	}

	closes := make([]ClosingPrice, len(req.Prices))
	for i, p := range req.Prices {
		date, err := ex.ParseShort(p.Date)
		if err != nil {
			return nil, &RequestError{Reason: err.Error()}
		}
		closes[i] = ClosingPrice{Date: date, Price: p.Close}
	}

	observations := NewSentimentObservationSet()
	for _, o := range req.Observations {
		date, err := ex.ParseShort(o.Date)
		if err != nil {
			return nil, &RequestError{Reason: err.Error()}
		}
		if err := observations.Add(date, o.Score); err != nil {
			return nil, &RequestError{Reason: err.Error()}
		}
	}

	res, err = sc.correlate(closes, observations)
	if err != nil {
		return nil, err
	}

	logging.Step("report", start).Str("source", SourceCaller).Int("closes", len(closes)).Int("observations", observations.Len()).Msg("report completed")
	return res, nil
}

func (sc *ServiceContext) correlate(closes []ClosingPrice, observations *SentimentObservationSet) (*CorrelationReport, error) {
	start := time.Now()
	defer sc.Metrics.ObserveStep("correlate", start)

	index, err := NewPriceVariationIndex(closes)
	if err != nil {
		return nil, err
	}

	report, err := BuildReport(observations, index)
	if err != nil {
		return nil, err
	}

	sc.Metrics.RecordOutcomes(report)
	return report, nil
}

// ToReportResponse maps a report onto its api payload, a coefficient is only set for computed outcomes
func ToReportResponse(report *CorrelationReport, symbol, query string, from, to time.Time) *sm.ReportResponse {
	res := &sm.ReportResponse{
		Symbol:       null.NewString(symbol, symbol != ""),
		Query:        null.NewString(query, query != ""),
		From:         null.NewString(ex.FmtShort(from), !from.IsZero()),
		To:           null.NewString(ex.FmtShort(to), !to.IsZero()),
		Observations: report.Observations,
		TradingDays:  report.TradingDays,
		Results:      make([]sm.OffsetResult, len(report.Results)),
	}

	for i, r := range report.Results {
		pairs := make([]sm.AlignedPair, len(r.Pairs))
		for j, p := range r.Pairs {
			pairs[j] = sm.AlignedPair{
				PublishedOn: ex.FmtShort(p.PublishedOn),
				TradingDay:  ex.FmtShort(p.TradingDay),
				Score:       p.Score,
				Variation:   p.Variation,
			}
		}

		res.Results[i] = sm.OffsetResult{
			Offset:      r.Offset,
			Description: OffsetDescription(r.Offset),
			Outcome:     r.Outcome.Name(),
			Coefficient: null.NewFloat(r.Coefficient, r.Outcome == OutcomeComputed),
			Excluded:    r.Excluded,
			Pairs:       pairs,
		}
	}

	return res
}
