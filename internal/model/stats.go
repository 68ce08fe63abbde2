package model

// EventCounts splits the events table by publication and by date.
// Upcoming includes events dated today.
type EventCounts struct {
	Total     int `json:"total"`
	Published int `json:"published"`
	Upcoming  int `json:"upcoming"`
	Past      int `json:"past"`
}

// FeedbackSummary aggregates ratings.  Average is nil when there is no
// feedback and is rounded to two decimals otherwise.
type FeedbackSummary struct {
	Average *float64 `json:"average"`
	Count   int      `json:"count"`
}
