package core

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	nyt "github.com/GabrielFrota/NewsPrice/service/api/nytimes"
	"github.com/GabrielFrota/NewsPrice/service/sentiment"
)

// MaxConcurrentClassifications bounds in flight model calls
const MaxConcurrentClassifications = 4

// ScoredArticle is an article with the score of its abstract
type ScoredArticle struct {
	nyt.Article
	Score int
}

// ScoreArticles classifies every abstract, results keep the order of articles
func ScoreArticles(ctx context.Context, classifier sentiment.Classifier, articles []nyt.Article) ([]ScoredArticle, error) {
	if len(articles) == 0 {
		return []ScoredArticle{}, nil
	}
	if classifier == nil {
		return nil, fmt.Errorf("error scoring articles, sentiment classifier %w", ErrNotConfigured)
	}

	res := make([]ScoredArticle, len(articles))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(MaxConcurrentClassifications)
	for i, a := range articles {
		g.Go(func() error {
			score, err := classifier.Classify(gctx, a.Abstract)
			if err != nil {
				return fmt.Errorf("error classifying %s: %w", a.WebURL, err)
			}
			res[i] = ScoredArticle{Article: a, Score: score}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return res, nil
}

// ObservationsFromScored keeps the publication date and score of each article
func ObservationsFromScored(scored []ScoredArticle) (*SentimentObservationSet, error) {
	set := NewSentimentObservationSet()
	for _, s := range scored {
		if err := set.Add(s.PublishedOn, s.Score); err != nil {
			return nil, err
		}
	}
	return set, nil
}

// ClassifyArticles turns articles into sentiment observations on their publication dates
func ClassifyArticles(ctx context.Context, classifier sentiment.Classifier, articles []nyt.Article) (*SentimentObservationSet, error) {
	scored, err := ScoreArticles(ctx, classifier, articles)
	if err != nil {
		return nil, err
	}
	return ObservationsFromScored(scored)
}
