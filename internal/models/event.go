package models

import "time"

// SearchEvent is published after every semantic search.
type SearchEvent struct {
	EventID     string    `json:"event_id"`
	Query       string    `json:"query"`
	Terms       []string  `json:"terms"`
	FailedTerms int       `json:"failed_terms"`
	ResultCount int       `json:"result_count"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// TrendEvent is published after every successful trend ranking.
type TrendEvent struct {
	EventID        string         `json:"event_id"`
	MainCategory   MainCategory   `json:"main_category"`
	TargetAudience TargetAudience `json:"target_audience"`
	SeasonalCount  int            `json:"seasonal_count"`
	TrendCount     int            `json:"trend_count"`
	OccurredAt     time.Time      `json:"occurred_at"`
}
