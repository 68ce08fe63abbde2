package model

import "time"

// RegistrationStatus is the lifecycle state of a registration.  Only the
// four values declared below are ever stored.
type RegistrationStatus string

const (
	StatusRegistered RegistrationStatus = "registered"
	StatusWaitlisted RegistrationStatus = "waitlisted"
	StatusCancelled  RegistrationStatus = "cancelled"
	StatusCheckedIn  RegistrationStatus = "checked_in"
)

// Statuses lists every registration status in display order.
var Statuses = []RegistrationStatus{StatusRegistered, StatusWaitlisted, StatusCancelled, StatusCheckedIn}

// Active reports whether the registration still holds a place in the event,
// either admitted or waiting for one.
func (s RegistrationStatus) Active() bool {
	return s == StatusRegistered || s == StatusWaitlisted
}

// Admitted reports whether the registration occupies capacity.
func (s RegistrationStatus) Admitted() bool {
	return s == StatusRegistered || s == StatusCheckedIn
}

// Valid reports whether s is one of the known statuses.
func (s RegistrationStatus) Valid() bool {
	switch s {
	case StatusRegistered, StatusWaitlisted, StatusCancelled, StatusCheckedIn:
		return true
	}
	return false
}

// Registration records a participant's place in an event.  There is at
// most one row per (EventID, ParticipantID); re-registering after a
// cancellation updates the same row.
//
// Fields:
//   - ID: primary key identifier.
//   - EventID: event the participant registered for.
//   - ParticipantID: user ID of the participant.
//   - Status: lifecycle state (registered, waitlisted, cancelled,
//     checked_in).
//   - Code: check-in code, assigned once and never changed.
//   - CreatedAt: creation timestamp.
//   - UpdatedAt: last update timestamp.
//   - Participant: name/email of the participant when loaded for staff.
type Registration struct {
	ID            uint64              `json:"id"`             // registrations.id
	EventID       uint64              `json:"event_id"`       // registrations.event_id
	ParticipantID uint64              `json:"participant_id"` // registrations.participant_id
	Status        RegistrationStatus  `json:"status"`         // registrations.status
	Code          string              `json:"code"`           // registrations.code
	CreatedAt     time.Time           `json:"created_at"`     // registrations.created_at
	UpdatedAt     time.Time           `json:"updated_at"`     // registrations.updated_at
	Participant   *ParticipantSummary `json:"participant,omitempty"`
}

// ParticipantSummary is the subset of user data shown next to a
// registration in staff listings.
type ParticipantSummary struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}
