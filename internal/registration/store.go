// Package registration implements admission, waitlisting and the status
// lifecycle of event registrations.  All state changes go through
// Store.Upsert, which serializes writers per event so that the capacity
// check and the write happen in one step.
package registration

import (
	"context"

	"github.com/iliyamo/campus-events/internal/model"
)

// Key identifies the single registration a participant can hold for an
// event.
type Key struct {
	EventID       uint64
	ParticipantID uint64
}

// Snapshot is the event state Upsert read inside its critical section.
type Snapshot struct {
	// Admitted counts registered and checked-in records for the event.
	Admitted int
	// Event is the event row as locked by the store, or nil when the store
	// keeps no event data of its own.  When set it supersedes any lookup
	// made before Upsert was called.
	Event *EventInfo
}

// Mutator receives the current record (nil when none exists) and the
// snapshot taken with it.  It returns the record to persist, or nil to
// leave the store untouched.  A returned error aborts the write.
type Mutator func(cur *model.Registration, snap Snapshot) (*model.Registration, error)

// Store is the durable set of registrations.  Implementations must make
// Upsert indivisible for the whole event: no other Upsert for the same
// event may observe or change state between the admitted count and the
// write.  Lookups report absence through the boolean, not an error.
type Store interface {
	Upsert(ctx context.Context, key Key, fn Mutator) (*model.Registration, error)
	FindByCode(ctx context.Context, eventID uint64, code string) (*model.Registration, bool, error)
	FindByParticipant(ctx context.Context, eventID, participantID uint64) (*model.Registration, bool, error)
	CountAdmitted(ctx context.Context, eventID uint64) (int, error)
	ListByEvent(ctx context.Context, eventID uint64) ([]model.Registration, error)
	ListByParticipant(ctx context.Context, participantID uint64) ([]model.Registration, error)
	// CountByStatus groups registrations by status, for one event or,
	// when eventID is nil, across all events.
	CountByStatus(ctx context.Context, eventID *uint64) (map[model.RegistrationStatus]int, error)
	// CountParticipants returns the number of distinct participants that
	// hold any registration.
	CountParticipants(ctx context.Context) (int, error)
}

// EventInfo is what the engine needs to know about an event.
type EventInfo struct {
	Name      string
	Date      string
	Published bool
	Capacity  *int
}

// EventLookup resolves events.  found is false when the event does not
// exist.
type EventLookup interface {
	LookupEvent(ctx context.Context, eventID uint64) (info EventInfo, found bool, err error)
}

// Notice describes a completed registration for the notification
// collaborator.
type Notice struct {
	EventID       uint64
	EventName     string
	EventDate     string
	ParticipantID uint64
	Status        model.RegistrationStatus
	Code          string
}

// Notifier is invoked after a successful registration.  Failures are
// logged by the engine and never affect the registration.
type Notifier interface {
	NotifyRegistration(ctx context.Context, n Notice) error
}
