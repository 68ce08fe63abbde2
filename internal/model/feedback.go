package model

import "time"

// Feedback is a participant's rating of an event.  Each user has at most
// one feedback row per event; submitting again replaces the rating.
type Feedback struct {
	ID        uint64              `json:"id"`                 // feedback.id
	EventID   uint64              `json:"event_id"`           // feedback.event_id
	UserID    uint64              `json:"user_id"`            // feedback.user_id
	Rating    int                 `json:"rating"`             // feedback.rating (1..5)
	Comments  *string             `json:"comments,omitempty"` // feedback.comments (nullable)
	CreatedAt time.Time           `json:"created_at"`         // feedback.created_at
	UpdatedAt time.Time           `json:"updated_at"`         // feedback.updated_at
	Author    *ParticipantSummary `json:"user,omitempty"`
}
