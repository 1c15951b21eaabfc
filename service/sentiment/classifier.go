package sentiment

import (
	"context"
	"fmt"
)

// Scores are on a five point scale, very negative to very positive
const (
	MinScore = -2
	MaxScore = 2
)

// Classifier scores the overall sentiment of a piece of text
type Classifier interface {
	Classify(ctx context.Context, text string) (int, error)
	// Name identifies the model behind the scores, stored alongside them
	Name() string
}

func ValidateScore(score int) error {
	if score < MinScore || score > MaxScore {
		return fmt.Errorf("sentiment score %d is outside [%d, %d]", score, MinScore, MaxScore)
	}
	return nil
}

// AggregateSentenceScores reduces per sentence scores to one: the score with the largest magnitude,
// the earlier sentence winning a tie between opposite signs.
func AggregateSentenceScores(scores []int) (int, error) {
	if len(scores) == 0 {
		return 0, fmt.Errorf("error aggregating sentence scores, no sentences were scored")
	}

	res := scores[0]
	for _, s := range scores {
		if err := ValidateScore(s); err != nil {
			return 0, err
		}
		if abs(s) > abs(res) {
			res = s
		}
	}

	return res, nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
