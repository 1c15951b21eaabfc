package repos

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	m "github.com/GabrielFrota/NewsPrice/data/models"
	q "github.com/GabrielFrota/NewsPrice/data/queries"
)

func (pg *Postgres) GetNewsSentiment(ctx context.Context, query string, from, to time.Time) ([]*m.NewsSentiment, error) {
	args := pgx.NamedArgs{
		"query": query,
		"from":  from,
		"to":    to,
	}

	res, err := Query[m.NewsSentiment](ctx, pg, q.Get(q.QueryHelper.Select.NewsSentimentByQuery), args)
	if err != nil {
		return nil, fmt.Errorf("unable to get news sentiment for query %q: %w", query, err)
	}
	return res, nil
}

// GetNewsSentimentByUrls is keyed by url so already classified articles are not sent to the model again
func (pg *Postgres) GetNewsSentimentByUrls(ctx context.Context, query string, webUrls []string) (map[string]*m.NewsSentiment, error) {
	args := pgx.NamedArgs{
		"query":    query,
		"web_urls": webUrls,
	}

	res, err := Query[m.NewsSentiment](ctx, pg, q.Get(q.QueryHelper.Select.NewsSentimentByUrls), args)
	if err != nil {
		return nil, fmt.Errorf("unable to get news sentiment by urls: %w", err)
	}

	lookup := make(map[string]*m.NewsSentiment, len(res))
	for _, v := range res {
		lookup[v.WebUrl] = v
	}
	return lookup, nil
}

func (pg *Postgres) InsertNewsSentimentTx(ctx context.Context, rows []*m.NewsSentiment, tx pgx.Tx) (int64, error) {
	for _, r := range rows {
		if r.Query == "" {
			return 0, fmt.Errorf("news sentiment query is required")
		}
		if r.Score < -2 || r.Score > 2 {
			return 0, fmt.Errorf("news sentiment score %d out of range for %s", r.Score, r.WebUrl)
		}
	}

	columns := []string{"query", "web_url", "published_on", "abstract", "score", "model"}
	entries := make([][]any, len(rows))
	for i, r := range rows {
		entries[i] = []any{r.Query, r.WebUrl, r.PublishedOn, r.Abstract, r.Score, r.Model}
	}

	ct, err := tx.CopyFrom(ctx, pgx.Identifier{"news_sentiment"}, columns, pgx.CopyFromRows(entries))
	if err != nil {
		return 0, fmt.Errorf("error inserting news sentiment: %w", err)
	}
	return ct, nil
}

func (pg *Postgres) InsertNewsSentiment(ctx context.Context, rows []*m.NewsSentiment) (int64, error) {
	tx, err := pg.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("error beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	ct, err := pg.InsertNewsSentimentTx(ctx, rows, tx)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("error committing news sentiment insert: %w", err)
	}

	return ct, nil
}
