package repos

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	m "github.com/GabrielFrota/NewsPrice/data/models"
	q "github.com/GabrielFrota/NewsPrice/data/queries"
)

// GetDailyCloses returns the stored closes for symbol within [from, to], oldest first
func (pg *Postgres) GetDailyCloses(ctx context.Context, symbol string, from, to time.Time) ([]*m.DailyClose, error) {
	args := pgx.NamedArgs{
		"symbol": symbol,
		"from":   from,
		"to":     to,
	}

	res, err := Query[m.DailyClose](ctx, pg, q.Get(q.QueryHelper.Select.DailyClosesBySymbol), args)
	if err != nil {
		return nil, fmt.Errorf("unable to query daily closes by symbol (%s): %w", symbol, err)
	}
	return res, nil
}

// GetMostRecentTradingDate returns nil when nothing has been stored for the symbol yet
func (pg *Postgres) GetMostRecentTradingDate(ctx context.Context, symbol string) (*time.Time, error) {
	var mrd *time.Time
	args := pgx.NamedArgs{"symbol": symbol}
	if err := pg.db.QueryRow(ctx, q.Get(q.QueryHelper.Select.MostRecentTradingDateBySymbol), args).Scan(&mrd); err != nil {
		return nil, fmt.Errorf("unable to query most recent trading date (%s): %w", symbol, err)
	}
	return mrd, nil
}

func (pg *Postgres) InsertDailyCloses(ctx context.Context, data []*m.DailyClose, sourceId int32, tx *pgx.Tx) (int64, error) {
	columns := []string{"source_id", "trading_date", "close", "adjusted_close"}

	entries := make([][]any, len(data))
	for i, ent := range data {
		entries[i] = []any{sourceId, ent.TradingDate, ent.Close, ent.AdjustedClose}
	}

	ct, err := pg.BulkInsert(ctx, "daily_close", columns, entries, tx)
	if err != nil {
		return 0, fmt.Errorf("error inserting daily closes: %w", err)
	}
	return ct, nil
}
