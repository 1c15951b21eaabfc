package core

import (
	"fmt"
	"slices"
	"time"

	ex "github.com/GabrielFrota/NewsPrice/data/extensions"
)

const (
	MinSentimentScore = -2
	MaxSentimentScore = 2
)

// SentimentObservation is the classified sentiment of one news item on the day it was published,
// which need not be a trading day
type SentimentObservation struct {
	Date  time.Time
	Score int
}

// SentimentObservationSet keeps observations in arrival order, several may share a date
type SentimentObservationSet struct {
	observations []SentimentObservation
}

func NewSentimentObservationSet() *SentimentObservationSet {
	return &SentimentObservationSet{}
}

func (s *SentimentObservationSet) Add(date time.Time, score int) error {
	if score < MinSentimentScore || score > MaxSentimentScore {
		return fmt.Errorf("sentiment score %d on %s is outside [%d, %d]", score, ex.FmtShort(date), MinSentimentScore, MaxSentimentScore)
	}

	s.observations = append(s.observations, SentimentObservation{
		Date:  ex.ToDate(date),
		Score: score,
	})
	return nil
}

func (s *SentimentObservationSet) Len() int {
	return len(s.observations)
}

// Observations returns a copy in arrival order
func (s *SentimentObservationSet) Observations() []SentimentObservation {
	return slices.Clone(s.observations)
}
