package domain

import "time"

// SearchConfig is a stored search the ingestion run executes when Enabled.
// Zero ResultLimit and empty Timeframe fall back to ingestion defaults.
type SearchConfig struct {
	ID               string    `db:"id"                 json:"id"`
	SearchTerm       string    `db:"search_term"        json:"search_term"        binding:"required"`
	ResultLimit      int       `db:"result_limit"       json:"result_limit"`
	Timeframe        string    `db:"timeframe"          json:"timeframe"`
	Category         string    `db:"category"           json:"category"`
	FetchFullContent bool      `db:"fetch_full_content" json:"fetch_full_content"`
	Enabled          bool      `db:"enabled"            json:"enabled"`
	CreatedAt        time.Time `db:"created_at"         json:"created_at"`
}
