// Package queue defines the registration notice payload exchanged over the
// message broker and the consumer that turns notices into mail.
package queue

import (
	"time"

	"github.com/iliyamo/campus-events/internal/registration"
)

// RegistrationNotice is published after a participant registers.  It holds
// enough about the event for consumers to notify without reading it back;
// participant details are resolved by the consumer.
type RegistrationNotice struct {
	EventID       uint64    `json:"event_id"`
	EventName     string    `json:"event_name"`
	EventDate     string    `json:"event_date"`
	ParticipantID uint64    `json:"participant_id"`
	Status        string    `json:"status"`
	Code          string    `json:"code"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// NoticeFrom converts an engine notice into the wire payload.
func NoticeFrom(n registration.Notice, at time.Time) RegistrationNotice {
	return RegistrationNotice{
		EventID:       n.EventID,
		EventName:     n.EventName,
		EventDate:     n.EventDate,
		ParticipantID: n.ParticipantID,
		Status:        string(n.Status),
		Code:          n.Code,
		OccurredAt:    at.UTC(),
	}
}
