package models

import (
	"time"

	"github.com/guregu/null/v6"
)

// NewsSentiment is a classified news abstract. Only inputs to a report are stored, never the report itself.
type NewsSentiment struct {
	Id          int32       `db:"id"`
	Query       string      `db:"query"`
	WebUrl      string      `db:"web_url"`
	PublishedOn time.Time   `db:"published_on"`
	Abstract    string      `db:"abstract"`
	Score       int16       `db:"score"`
	Model       null.String `db:"model"`
	CreatedAt   time.Time   `db:"created_at"`
}
