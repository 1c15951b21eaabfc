package repos

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"

	ex "github.com/GabrielFrota/NewsPrice/data/extensions"
	m "github.com/GabrielFrota/NewsPrice/data/models"
)

func Test_Base_CanGetConnectionAndPing(t *testing.T) {
	ctx := context.Background()
	pg := getConnection(t, ctx)

	if err := pg.Ping(ctx); err != nil {
		t.Errorf("error pinging postgres database: %s", err)
	}
}

func Test_TimeSeriesMetaDataRepo_CanInsertAndGet(t *testing.T) {
	symbol := "_TEST"

	testMetaData := m.TimeSeriesMetadata{
		Symbol:        symbol,
		LastRefreshed: time.Date(2021, time.November, 26, 0, 0, 0, 0, time.UTC),
		TimeZone:      null.StringFrom("US/Eastern"),
	}

	ctx := context.Background()
	pg := getConnection(t, ctx)

	exists, err := pg.GetMetaDataBySymbol(ctx, symbol)
	require.NoError(t, err)
	require.Nil(t, exists, "symbol %s has not been inserted yet", symbol)

	require.NoError(t, pg.InsertNewMetaData(ctx, &testMetaData, nil))
	if testMetaData.Id == 0 {
		t.Fatalf("id for test meta data failed to set properly")
	}

	defer pg.deleteTestTimeSeriesData(t, ctx, testMetaData.Id)

	res, err := pg.GetMetaDataBySymbol(ctx, symbol)
	require.NoError(t, err)

	ex.AssertAreEqual(t, "id", testMetaData.Id, res.Id)
	ex.AssertAreEqual(t, "symbol", testMetaData.Symbol, res.Symbol)
	ex.AssertAreEqual(t, "time zone", "US/Eastern", res.TimeZone.String)
	if !testMetaData.LastRefreshed.Equal(res.LastRefreshed) {
		t.Fatalf("last refreshed time did not match, inserted %s, got back %s", ex.FmtLong(testMetaData.LastRefreshed), ex.FmtLong(res.LastRefreshed))
	}

	refreshed := testMetaData.LastRefreshed.AddDate(0, 0, 3)
	require.NoError(t, pg.UpdateLastRefreshedDate(ctx, symbol, refreshed, nil))

	res, err = pg.GetMetaDataBySymbol(ctx, symbol)
	require.NoError(t, err)
	require.True(t, refreshed.Equal(res.LastRefreshed))
}

func Test_TimeSeriesDataRepo_CanInsertAndGet(t *testing.T) {
	symbol := "_TEST2"

	testMetaData := m.TimeSeriesMetadata{
		Symbol:        symbol,
		LastRefreshed: time.Date(2021, time.September, 2, 0, 0, 0, 0, time.UTC),
	}

	ctx := context.Background()
	pg := getConnection(t, ctx)

	require.NoError(t, pg.InsertNewMetaData(ctx, &testMetaData, nil))
	defer pg.deleteTestTimeSeriesData(t, ctx, testMetaData.Id)

	mrd, err := pg.GetMostRecentTradingDate(ctx, symbol)
	require.NoError(t, err)
	require.Nil(t, mrd)

	closes := []*m.DailyClose{
		{TradingDate: time.Date(2021, time.September, 1, 0, 0, 0, 0, time.UTC), Close: 734.09},
		{TradingDate: time.Date(2021, time.September, 2, 0, 0, 0, 0, time.UTC), Close: 732.39, AdjustedClose: null.FloatFrom(732.39)},
	}

	ct, err := pg.InsertDailyCloses(ctx, closes, testMetaData.Id, nil)
	require.NoError(t, err)
	ex.AssertAreEqual(t, "rows inserted", int64(len(closes)), ct)

	from := time.Date(2021, time.August, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2021, time.December, 1, 0, 0, 0, 0, time.UTC)
	res, err := pg.GetDailyCloses(ctx, symbol, from, to)
	require.NoError(t, err)
	require.Len(t, res, 2)

	// oldest first
	ex.AssertAreEqual(t, "first close", 734.09, res[0].Close)
	ex.AssertAreEqual(t, "first adjusted close valid", false, res[0].AdjustedClose.Valid)
	ex.AssertAreEqual(t, "second price", 732.39, res[1].Price())

	mrd, err = pg.GetMostRecentTradingDate(ctx, symbol)
	require.NoError(t, err)
	require.NotNil(t, mrd)
	ex.AssertAreEqual(t, "most recent", "2021-09-02", ex.FmtShort(*mrd))
}

func Test_NewsSentimentRepo_CanInsertAndGet(t *testing.T) {
	query := "_TEST_QUERY"
	ctx := context.Background()
	pg := getConnection(t, ctx)
	defer pg.deleteTestNewsSentiment(t, ctx, query)

	rows := []*m.NewsSentiment{
		{Query: query, WebUrl: "https://example.test/a", PublishedOn: time.Date(2021, time.October, 2, 0, 0, 0, 0, time.UTC), Abstract: "a", Score: -1},
		{Query: query, WebUrl: "https://example.test/b", PublishedOn: time.Date(2021, time.October, 4, 0, 0, 0, 0, time.UTC), Abstract: "b", Score: 2, Model: null.StringFrom("test")},
	}

	ct, err := pg.InsertNewsSentiment(ctx, rows)
	require.NoError(t, err)
	ex.AssertAreEqual(t, "rows inserted", int64(2), ct)

	stored, err := pg.GetNewsSentiment(ctx, query, rows[0].PublishedOn, rows[1].PublishedOn)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	ex.AssertAreEqual(t, "first score", int16(-1), stored[0].Score)

	lookup, err := pg.GetNewsSentimentByUrls(ctx, query, []string{"https://example.test/b", "https://example.test/missing"})
	require.NoError(t, err)
	require.Len(t, lookup, 1)
	ex.AssertAreEqual(t, "model", "test", lookup["https://example.test/b"].Model.String)
}

func Test_NewsSentimentRepo_RejectsOutOfRangeScore(t *testing.T) {
	ctx := context.Background()
	pg := getConnection(t, ctx)

	_, err := pg.InsertNewsSentiment(ctx, []*m.NewsSentiment{{Query: "_TEST_QUERY", WebUrl: "x", Score: 3}})
	require.Error(t, err)
}

func getConnection(t *testing.T, ctx context.Context) *Postgres {
	t.Helper()
	_ = godotenv.Load("../../.env")

	connectionString := os.Getenv("DATABASE_URL")
	if connectionString == "" {
		t.Skip("DATABASE_URL not set, skipping postgres integration test")
	}

	res, err := GetPostgresConnection(ctx, connectionString)
	if err != nil {
		t.Fatalf("error getting postgres connection: %s", err)
	}

	t.Cleanup(func() {
		res.Close()
	})

	return res
}

func (pg *Postgres) deleteTestTimeSeriesData(t *testing.T, ctx context.Context, id int32) {
	t.Helper()

	args := pgx.NamedArgs{"source_id": id}
	if _, err := pg.db.Exec(ctx, "DELETE FROM daily_close WHERE source_id = @source_id", args); err != nil {
		t.Errorf("cleanup daily_close failed: %s", err)
	}

	if _, err := pg.db.Exec(ctx, "DELETE FROM price_series_metadata WHERE id = @source_id", args); err != nil {
		t.Errorf("cleanup price_series_metadata failed: %s", err)
	}
}

func (pg *Postgres) deleteTestNewsSentiment(t *testing.T, ctx context.Context, query string) {
	t.Helper()

	if _, err := pg.db.Exec(ctx, "DELETE FROM news_sentiment WHERE query = @query", pgx.NamedArgs{"query": query}); err != nil {
		t.Errorf("cleanup news_sentiment failed: %s", err)
	}
}
