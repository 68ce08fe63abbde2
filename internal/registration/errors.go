package registration

import (
	"context"
	"errors"
)

// Sentinel errors returned by the engine.  Handlers compare with errors.Is
// and translate them into HTTP responses.
var (
	ErrEventNotFound        = errors.New("event not found")
	ErrEventNotPublished    = errors.New("event is not open for registration")
	ErrAlreadyRegistered    = errors.New("already registered")
	ErrRegistrationNotFound = errors.New("registration not found")
	ErrInvalidSelector      = errors.New("provide code or participant id")
	ErrInvalidCapacity      = errors.New("capacity must be a positive integer")

	// ErrTransient marks store timeouts and contention.  The operation had
	// no effect and can be retried.
	ErrTransient = errors.New("registration store temporarily unavailable")

	// ErrDependency marks a collaborator (mailer, broker) failure.
	ErrDependency = errors.New("dependency unavailable")

	// ErrCodeCollision is reported by stores when a freshly generated code
	// is already used within the event.  It is always wrapped as transient.
	ErrCodeCollision = errors.New("check-in code already in use")
)

// Kind classifies an error for propagation decisions.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindConflict
	KindInvalidInput
	KindTransient
	KindDependency
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindInvalidInput:
		return "invalid_input"
	case KindTransient:
		return "transient"
	case KindDependency:
		return "dependency_failure"
	}
	return "internal"
}

// KindOf maps err onto the error taxonomy.  Context deadlines count as
// transient because the caller may retry them.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindInternal
	case errors.Is(err, ErrEventNotFound), errors.Is(err, ErrEventNotPublished), errors.Is(err, ErrRegistrationNotFound):
		return KindNotFound
	case errors.Is(err, ErrAlreadyRegistered):
		return KindConflict
	case errors.Is(err, ErrInvalidSelector), errors.Is(err, ErrInvalidCapacity):
		return KindInvalidInput
	case errors.Is(err, ErrTransient), errors.Is(err, context.DeadlineExceeded):
		return KindTransient
	case errors.Is(err, ErrDependency):
		return KindDependency
	}
	return KindInternal
}

// Transient wraps err so that errors.Is(result, ErrTransient) holds while
// the original cause stays reachable.
func Transient(err error) error {
	if err == nil || errors.Is(err, ErrTransient) {
		return err
	}
	return errors.Join(ErrTransient, err)
}
