package registration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/iliyamo/campus-events/internal/logger"
	"github.com/iliyamo/campus-events/internal/model"
)

// Config bounds how long the engine waits on the store and how often it
// retries transient failures.
type Config struct {
	OpTimeout     time.Duration // per store call
	MaxAttempts   int           // total attempts for a transition
	RetryBackoff  time.Duration // first backoff, doubled after each retry
	NotifyTimeout time.Duration // budget for one background notification
}

// DefaultConfig returns the settings used when none are configured.
func DefaultConfig() Config {
	return Config{
		OpTimeout:     5 * time.Second,
		MaxAttempts:   3,
		RetryBackoff:  50 * time.Millisecond,
		NotifyTimeout: 10 * time.Second,
	}
}

// Selector picks the registration to check in.  At least one field must
// be set; when both are, they must refer to the same registration.
type Selector struct {
	Code          string
	ParticipantID uint64
}

// Availability summarises how full an event is.
type Availability struct {
	EventID   uint64 `json:"event_id"`
	Admitted  int    `json:"admitted"`
	Capacity  *int   `json:"capacity"`
	Remaining *int   `json:"remaining"`
}

// Engine runs the registration lifecycle: register, cancel and check-in.
// It is safe for concurrent use.
type Engine struct {
	store    Store
	events   EventLookup
	codes    CodeGenerator
	notifier Notifier
	log      *slog.Logger
	cfg      Config

	wg sync.WaitGroup
}

// NewEngine wires an Engine.  notifier may be nil; store, events and codes
// must not be.
func NewEngine(store Store, events EventLookup, codes CodeGenerator, notifier Notifier, log *slog.Logger, cfg Config) *Engine {
	if store == nil || events == nil || codes == nil {
		panic("nil dependency passed to NewEngine")
	}
	def := DefaultConfig()
	if cfg.OpTimeout <= 0 {
		cfg.OpTimeout = def.OpTimeout
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = def.RetryBackoff
	}
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = def.NotifyTimeout
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Engine{store: store, events: events, codes: codes, notifier: notifier, log: log, cfg: cfg}
}

// Register admits or waitlists participantID for eventID.  A cancelled
// registration is revived with a fresh capacity check and keeps its code.
func (e *Engine) Register(ctx context.Context, eventID, participantID uint64) (*model.Registration, error) {
	const op = "registration.Engine.Register"
	log := e.log.With(slog.String("op", op), slog.Uint64("event_id", eventID), slog.Uint64("participant_id", participantID))

	ev, err := e.openEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	reg, err := e.upsert(ctx, Key{EventID: eventID, ParticipantID: participantID}, func(cur *model.Registration, snap Snapshot) (*model.Registration, error) {
		capacity := ev.Capacity
		if snap.Event != nil {
			if !snap.Event.Published {
				return nil, ErrEventNotPublished
			}
			capacity = snap.Event.Capacity
		}
		if cur != nil && cur.Status != model.StatusCancelled {
			return nil, ErrAlreadyRegistered
		}
		var next model.Registration
		if cur != nil {
			next = *cur
		}
		next.Status = Decide(snap.Admitted, capacity)
		if next.Code == "" {
			code, err := e.codes.NewCode()
			if err != nil {
				return nil, fmt.Errorf("generate code: %w", err)
			}
			next.Code = code
		}
		return &next, nil
	})
	if err != nil {
		if KindOf(err) != KindConflict {
			log.Error("register failed", logger.Err(err))
		}
		return nil, err
	}
	log.Info("participant registered", slog.String("status", string(reg.Status)))

	e.notify(Notice{
		EventID:       eventID,
		EventName:     ev.Name,
		EventDate:     ev.Date,
		ParticipantID: participantID,
		Status:        reg.Status,
		Code:          reg.Code,
	})
	return reg, nil
}

// Cancel moves an active registration to cancelled.  Cancelling twice
// yields ErrRegistrationNotFound on the second call.
func (e *Engine) Cancel(ctx context.Context, eventID, participantID uint64) (*model.Registration, error) {
	reg, err := e.upsert(ctx, Key{EventID: eventID, ParticipantID: participantID}, func(cur *model.Registration, _ Snapshot) (*model.Registration, error) {
		if cur == nil || !cur.Status.Active() {
			return nil, ErrRegistrationNotFound
		}
		next := *cur
		next.Status = model.StatusCancelled
		return &next, nil
	})
	if err != nil {
		return nil, notFoundForMissingEvent(err)
	}
	e.log.Info("registration cancelled", slog.Uint64("event_id", eventID), slog.Uint64("participant_id", participantID))
	return reg, nil
}

// CheckIn marks attendance.  Waitlisted participants are admitted on the
// spot; a registration that is already checked in is returned unchanged.
func (e *Engine) CheckIn(ctx context.Context, eventID uint64, sel Selector) (*model.Registration, error) {
	if sel.Code == "" && sel.ParticipantID == 0 {
		return nil, ErrInvalidSelector
	}
	participantID := sel.ParticipantID
	if sel.Code != "" {
		var (
			found bool
			reg   *model.Registration
		)
		err := e.withTimeout(ctx, func(ctx context.Context) error {
			var err error
			reg, found, err = e.store.FindByCode(ctx, eventID, sel.Code)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("resolve code: %w", err)
		}
		if !found || (participantID != 0 && reg.ParticipantID != participantID) {
			return nil, ErrRegistrationNotFound
		}
		participantID = reg.ParticipantID
	}

	reg, err := e.upsert(ctx, Key{EventID: eventID, ParticipantID: participantID}, func(cur *model.Registration, _ Snapshot) (*model.Registration, error) {
		if cur == nil || cur.Status == model.StatusCancelled {
			return nil, ErrRegistrationNotFound
		}
		if cur.Status == model.StatusCheckedIn {
			return nil, nil
		}
		next := *cur
		next.Status = model.StatusCheckedIn
		return &next, nil
	})
	if err != nil {
		return nil, notFoundForMissingEvent(err)
	}
	e.log.Info("participant checked in", slog.Uint64("event_id", eventID), slog.Uint64("participant_id", participantID))
	return reg, nil
}

// Get returns the participant's registration for the event.
func (e *Engine) Get(ctx context.Context, eventID, participantID uint64) (*model.Registration, error) {
	var (
		reg   *model.Registration
		found bool
	)
	err := e.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		reg, found, err = e.store.FindByParticipant(ctx, eventID, participantID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrRegistrationNotFound
	}
	return reg, nil
}

// List returns every registration of the event for staff views.
func (e *Engine) List(ctx context.Context, eventID uint64) ([]model.Registration, error) {
	var regs []model.Registration
	err := e.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		regs, err = e.store.ListByEvent(ctx, eventID)
		return err
	})
	return regs, err
}

// ListMine returns every registration held by participantID.
func (e *Engine) ListMine(ctx context.Context, participantID uint64) ([]model.Registration, error) {
	var regs []model.Registration
	err := e.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		regs, err = e.store.ListByParticipant(ctx, participantID)
		return err
	})
	return regs, err
}

// Availability reports admitted count and remaining places.  The numbers
// may already be stale when the caller reads them.
func (e *Engine) Availability(ctx context.Context, eventID uint64) (Availability, error) {
	ev, found, err := e.lookupEvent(ctx, eventID)
	if err != nil {
		return Availability{}, err
	}
	if !found || !ev.Published {
		return Availability{}, ErrEventNotFound
	}
	var admitted int
	err = e.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		admitted, err = e.store.CountAdmitted(ctx, eventID)
		return err
	})
	if err != nil {
		return Availability{}, err
	}
	out := Availability{EventID: eventID, Admitted: admitted}
	if ev.Capacity != nil && *ev.Capacity > 0 {
		capacity := *ev.Capacity
		remaining := capacity - admitted
		if remaining < 0 {
			remaining = 0
		}
		out.Capacity = &capacity
		out.Remaining = &remaining
	}
	return out, nil
}

// Wait blocks until background notifications have finished.
func (e *Engine) Wait() { e.wg.Wait() }

func (e *Engine) openEvent(ctx context.Context, eventID uint64) (EventInfo, error) {
	ev, found, err := e.lookupEvent(ctx, eventID)
	if err != nil {
		return EventInfo{}, err
	}
	if !found {
		return EventInfo{}, ErrEventNotFound
	}
	if !ev.Published {
		return EventInfo{}, ErrEventNotPublished
	}
	return ev, nil
}

// lookupEvent bounds the event lookup by OpTimeout.  An expired or
// cancelled context is reported as transient.
func (e *Engine) lookupEvent(ctx context.Context, eventID uint64) (EventInfo, bool, error) {
	var (
		ev    EventInfo
		found bool
	)
	err := e.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		ev, found, err = e.events.LookupEvent(ctx, eventID)
		return err
	})
	if err != nil {
		err = fmt.Errorf("lookup event: %w", err)
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			err = Transient(err)
		}
		return EventInfo{}, false, err
	}
	return ev, found, nil
}

// upsert runs fn through the store, retrying transient failures with
// doubling backoff.  fn runs again on every attempt so it always sees
// fresh state.
func (e *Engine) upsert(ctx context.Context, key Key, fn Mutator) (*model.Registration, error) {
	backoff := e.cfg.RetryBackoff
	for attempt := 1; ; attempt++ {
		var reg *model.Registration
		err := e.withTimeout(ctx, func(ctx context.Context) error {
			var err error
			reg, err = e.store.Upsert(ctx, key, fn)
			return err
		})
		if err == nil {
			return reg, nil
		}
		if KindOf(err) != KindTransient {
			return nil, err
		}
		if attempt >= e.cfg.MaxAttempts || ctx.Err() != nil {
			return nil, Transient(err)
		}
		e.log.Warn("transient store failure, retrying",
			slog.Uint64("event_id", key.EventID),
			slog.Int("attempt", attempt),
			logger.Err(err),
		)
		t := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, Transient(ctx.Err())
		case <-t.C:
		}
		backoff *= 2
	}
}

func (e *Engine) withTimeout(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.OpTimeout)
	defer cancel()
	return fn(ctx)
}

func (e *Engine) notify(n Notice) {
	if e.notifier == nil {
		return
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), e.cfg.NotifyTimeout)
		defer cancel()
		if err := e.notifier.NotifyRegistration(ctx, n); err != nil {
			e.log.Warn("registration notice not delivered",
				slog.Uint64("event_id", n.EventID),
				slog.Uint64("participant_id", n.ParticipantID),
				logger.Err(errors.Join(ErrDependency, err)),
			)
		}
	}()
}

// notFoundForMissingEvent reports a missing event as a missing
// registration for operations that address an existing record.
func notFoundForMissingEvent(err error) error {
	if errors.Is(err, ErrEventNotFound) {
		return ErrRegistrationNotFound
	}
	return err
}
