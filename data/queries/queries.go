package queries

import (
	"embed"
	"fmt"
)

//go:embed insert/*.sql select/*.sql update/*.sql
var Files embed.FS

// ^^^ the go:embed directive is used to embed the files in the queries package
// meaning on compile time it will convert the files to binary data and embed it in the queries package

type InsertQueries struct {
	Metadata string
}

type SelectQueries struct {
	DailyClosesBySymbol           string
	MetaDataBySymbol              string
	MostRecentTradingDateBySymbol string
	NewsSentimentByQuery          string
	NewsSentimentByUrls           string
}

type UpdateQueries struct {
	LastRefreshedDate string
}

type QueryHelperStruct struct {
	Insert InsertQueries
	Select SelectQueries
	Update UpdateQueries
}

var QueryHelper = QueryHelperStruct{
	Insert: InsertQueries{
		Metadata: "insert/metadata.sql",
	},
	Select: SelectQueries{
		DailyClosesBySymbol:           "select/daily_closes_by_symbol.sql",
		MetaDataBySymbol:              "select/meta_data_by_symbol.sql",
		MostRecentTradingDateBySymbol: "select/most_recent_trading_date_by_symbol.sql",
		NewsSentimentByQuery:          "select/news_sentiment_by_query.sql",
		NewsSentimentByUrls:           "select/news_sentiment_by_urls.sql",
	},
	Update: UpdateQueries{
		LastRefreshedDate: "update/last_refreshed_date.sql",
	},
}

func Get(path string) string {
	content, err := Files.ReadFile(path)
	if err != nil {
		panic(fmt.Errorf("error reading query file: %w", err))
	}

	return string(content)
}
