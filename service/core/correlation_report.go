package core

import (
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// ReportOffsets is the fixed reporting order, in trading days relative to the publication anchor
var ReportOffsets = []int{0, -2, -1, 1, 2}

// AlignedPair is one observation matched to a trading day for a given offset
type AlignedPair struct {
	PublishedOn time.Time
	TradingDay  time.Time
	Score       int
	Variation   float64
}

// CorrelationResult holds the paired vectors of one offset and either the coefficient or the marker replacing it.
// Coefficient is only meaningful when Outcome is OutcomeComputed.
type CorrelationResult struct {
	Offset      int
	Pairs       []AlignedPair
	Excluded    int
	Outcome     Outcome
	Coefficient float64
}

func (cr *CorrelationResult) Scores() []float64 {
	res := make([]float64, len(cr.Pairs))
	for i, p := range cr.Pairs {
		res[i] = float64(p.Score)
	}
	return res
}

func (cr *CorrelationResult) Variations() []float64 {
	res := make([]float64, len(cr.Pairs))
	for i, p := range cr.Pairs {
		res[i] = p.Variation
	}
	return res
}

type CorrelationReport struct {
	Observations int
	TradingDays  int
	Results      []CorrelationResult
}

// ByOffset looks up the result for one of the ReportOffsets
func (r *CorrelationReport) ByOffset(offset int) (CorrelationResult, bool) {
	for _, res := range r.Results {
		if res.Offset == offset {
			return res, true
		}
	}
	return CorrelationResult{}, false
}

// BuildReport aligns every observation at each of the ReportOffsets and correlates score against variation.
// The index is read only, so offsets are computed concurrently; each one writes to its own slot.
func BuildReport(observations *SentimentObservationSet, index *PriceVariationIndex) (*CorrelationReport, error) {
	if index == nil {
		return nil, &DataError{Reason: "no price variation index"}
	}
	if observations == nil {
		observations = NewSentimentObservationSet()
	}

	aligner := NewTemporalAligner(index)
	obs := observations.Observations()
	results := make([]CorrelationResult, len(ReportOffsets))

	var g errgroup.Group
	for i, offset := range ReportOffsets {
		g.Go(func() error {
			res, err := correlateOffset(aligner, obs, offset)
			if err != nil {
				return fmt.Errorf("error correlating offset %d: %w", offset, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &CorrelationReport{
		Observations: len(obs),
		TradingDays:  index.Len(),
		Results:      results,
	}, nil
}

func correlateOffset(aligner *TemporalAligner, observations []SentimentObservation, offset int) (CorrelationResult, error) {
	res := CorrelationResult{
		Offset: offset,
		Pairs:  make([]AlignedPair, 0, len(observations)),
	}

	for _, o := range observations {
		day, ok := aligner.Align(o.Date, offset)
		if !ok {
			res.Excluded++
			continue
		}

		res.Pairs = append(res.Pairs, AlignedPair{
			PublishedOn: o.Date,
			TradingDay:  day.Date,
			Score:       o.Score,
			Variation:   day.Variation,
		})
	}

	coefficient, outcome, err := PearsonCorrelation(res.Scores(), res.Variations())
	if err != nil {
		return res, err
	}

	res.Outcome = outcome
	res.Coefficient = coefficient
	return res, nil
}

// OffsetDescription is the human label used when printing a report
func OffsetDescription(offset int) string {
	switch {
	case offset == 0:
		return "same trading day as news date"
	case offset == -1:
		return "1 trading day before news date"
	case offset < 0:
		return fmt.Sprintf("%d trading days before news date", -offset)
	case offset == 1:
		return "1 trading day after news date"
	default:
		return fmt.Sprintf("%d trading days after news date", offset)
	}
}
