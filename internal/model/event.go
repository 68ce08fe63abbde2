package model

import "time"

// Event is a campus event that participants can register for.  Only
// published events accept registrations.  A nil Capacity means the event
// is unbounded.
//
// Fields:
//   - ID: primary key identifier.
//   - Name: display name.
//   - Category: optional category (Tech, Sports, ...).
//   - Description: optional long description.
//   - Date: calendar date in YYYY-MM-DD form.
//   - StartTime: optional HH:MM start.
//   - EndTime: optional HH:MM end.
//   - Venue: optional venue name.
//   - Capacity: maximum admitted participants (nil = unbounded).
//   - CoverImageURL: optional cover image.
//   - Tags: free-form labels.
//   - CreatedBy: user ID of the admin who created the event.
//   - IsPublished: whether the event is visible and open for registration.
//   - CreatedAt: creation timestamp.
//   - UpdatedAt: last update timestamp.
type Event struct {
	ID            uint64    `json:"id"`                        // events.id
	Name          string    `json:"name"`                      // events.name
	Category      *string   `json:"category,omitempty"`        // events.category (nullable)
	Description   *string   `json:"description,omitempty"`     // events.description (nullable)
	Date          string    `json:"date"`                      // events.event_date
	StartTime     *string   `json:"start_time,omitempty"`      // events.start_time (nullable)
	EndTime       *string   `json:"end_time,omitempty"`        // events.end_time (nullable)
	Venue         *string   `json:"venue,omitempty"`           // events.venue (nullable)
	Capacity      *int      `json:"capacity,omitempty"`        // events.capacity (nullable)
	CoverImageURL *string   `json:"cover_image_url,omitempty"` // events.cover_image_url (nullable)
	Tags          []string  `json:"tags"`                      // events.tags (JSON array)
	CreatedBy     uint64    `json:"created_by"`                // events.created_by
	IsPublished   bool      `json:"is_published"`              // events.is_published
	CreatedAt     time.Time `json:"created_at"`                // events.created_at
	UpdatedAt     time.Time `json:"updated_at"`                // events.updated_at
}
