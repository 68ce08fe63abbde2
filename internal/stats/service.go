// Package stats computes per-event and dashboard registration counts.  It
// only reads; a snapshot may lag concurrent writes by the cache TTL.
package stats

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/iliyamo/campus-events/internal/logger"
	"github.com/iliyamo/campus-events/internal/model"
	"github.com/iliyamo/campus-events/internal/registration"
)

// RegistrationCounter is the read side of registration.Store used here.
type RegistrationCounter interface {
	CountByStatus(ctx context.Context, eventID *uint64) (map[model.RegistrationStatus]int, error)
	CountParticipants(ctx context.Context) (int, error)
}

// FeedbackSummarizer averages ratings for one event or, with a nil
// eventID, for all of them.
type FeedbackSummarizer interface {
	Summary(ctx context.Context, eventID *uint64) (model.FeedbackSummary, error)
}

// EventCounter splits events by publication and date.
type EventCounter interface {
	Counts(ctx context.Context, today string) (model.EventCounts, error)
}

// UserCounter counts users per role.
type UserCounter interface {
	CountByRole(ctx context.Context) (map[string]int, error)
}

// StatusCounts is a registration count per status.
type StatusCounts struct {
	Registered int `json:"registered"`
	Waitlisted int `json:"waitlisted"`
	Cancelled  int `json:"cancelled"`
	CheckedIn  int `json:"checked_in"`
}

func (s StatusCounts) total() int { return s.Registered + s.Waitlisted + s.Cancelled + s.CheckedIn }

func statusCounts(m map[model.RegistrationStatus]int) StatusCounts {
	return StatusCounts{
		Registered: m[model.StatusRegistered],
		Waitlisted: m[model.StatusWaitlisted],
		Cancelled:  m[model.StatusCancelled],
		CheckedIn:  m[model.StatusCheckedIn],
	}
}

// EventSummary describes one event.  Admitted counts registered and
// checked-in records, the ones that hold a place.
type EventSummary struct {
	EventID  uint64                `json:"event_id"`
	ByStatus StatusCounts          `json:"by_status"`
	Total    int                   `json:"total"`
	Admitted int                   `json:"admitted"`
	Capacity *int                  `json:"capacity"`
	Feedback model.FeedbackSummary `json:"feedback"`
}

// Dashboard is the global staff overview.
type Dashboard struct {
	Events        model.EventCounts `json:"events"`
	Registrations struct {
		Total    int          `json:"total"`
		ByStatus StatusCounts `json:"by_status"`
	} `json:"registrations"`
	Participants struct {
		Unique    int `json:"unique"`
		CheckedIn int `json:"checked_in"`
	} `json:"participants"`
	Feedback model.FeedbackSummary `json:"feedback"`
	Users    struct {
		Total        int `json:"total"`
		Admins       int `json:"admins"`
		Coordinators int `json:"coordinators"`
		Students     int `json:"students"`
	} `json:"users"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Service answers statistics queries.  feedback, eventCounts and users may
// be nil; their sections are then left at zero.
type Service struct {
	regs        RegistrationCounter
	events      registration.EventLookup
	eventCounts EventCounter
	feedback    FeedbackSummarizer
	users       UserCounter
	cache       *Cache
	log         *slog.Logger
	now         func() time.Time
}

// NewService wires a Service.  cache may be nil.
func NewService(regs RegistrationCounter, events registration.EventLookup, eventCounts EventCounter,
	feedback FeedbackSummarizer, users UserCounter, cache *Cache, log *slog.Logger) *Service {
	if regs == nil || events == nil {
		panic("nil dependency passed to stats.NewService")
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Service{
		regs:        regs,
		events:      events,
		eventCounts: eventCounts,
		feedback:    feedback,
		users:       users,
		cache:       cache,
		log:         log.With(slog.String("component", "stats")),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

const dashboardKey = "dashboard"

func eventKey(id uint64) string { return "event:" + strconv.FormatUint(id, 10) }

// EventStats summarises one event.  Unknown events yield
// registration.ErrEventNotFound.
func (s *Service) EventStats(ctx context.Context, eventID uint64) (EventSummary, error) {
	info, found, err := s.events.LookupEvent(ctx, eventID)
	if err != nil {
		return EventSummary{}, fmt.Errorf("lookup event: %w", err)
	}
	if !found {
		return EventSummary{}, registration.ErrEventNotFound
	}

	var out EventSummary
	if s.cachedGet(ctx, eventKey(eventID), &out) {
		return out, nil
	}

	counts, err := s.regs.CountByStatus(ctx, &eventID)
	if err != nil {
		return EventSummary{}, fmt.Errorf("count registrations: %w", err)
	}
	out = EventSummary{EventID: eventID, ByStatus: statusCounts(counts), Capacity: info.Capacity}
	out.Total = out.ByStatus.total()
	out.Admitted = out.ByStatus.Registered + out.ByStatus.CheckedIn
	if s.feedback != nil {
		if out.Feedback, err = s.feedback.Summary(ctx, &eventID); err != nil {
			return EventSummary{}, fmt.Errorf("summarise feedback: %w", err)
		}
	}
	s.cachedSet(ctx, eventKey(eventID), out)
	return out, nil
}

// Global returns the dashboard, from cache when a fresh snapshot exists.
func (s *Service) Global(ctx context.Context) (Dashboard, error) {
	var d Dashboard
	if s.cachedGet(ctx, dashboardKey, &d) {
		return d, nil
	}
	return s.Refresh(ctx)
}

// Refresh recomputes the dashboard and stores the snapshot.
func (s *Service) Refresh(ctx context.Context) (Dashboard, error) {
	var d Dashboard
	now := s.now()
	d.GeneratedAt = now

	if s.eventCounts != nil {
		c, err := s.eventCounts.Counts(ctx, now.Format("2006-01-02"))
		if err != nil {
			return Dashboard{}, fmt.Errorf("count events: %w", err)
		}
		d.Events = c
	}

	counts, err := s.regs.CountByStatus(ctx, nil)
	if err != nil {
		return Dashboard{}, fmt.Errorf("count registrations: %w", err)
	}
	d.Registrations.ByStatus = statusCounts(counts)
	d.Registrations.Total = d.Registrations.ByStatus.total()

	unique, err := s.regs.CountParticipants(ctx)
	if err != nil {
		return Dashboard{}, fmt.Errorf("count participants: %w", err)
	}
	d.Participants.Unique = unique
	d.Participants.CheckedIn = d.Registrations.ByStatus.CheckedIn

	if s.feedback != nil {
		if d.Feedback, err = s.feedback.Summary(ctx, nil); err != nil {
			return Dashboard{}, fmt.Errorf("summarise feedback: %w", err)
		}
	}

	if s.users != nil {
		roles, err := s.users.CountByRole(ctx)
		if err != nil {
			return Dashboard{}, fmt.Errorf("count users: %w", err)
		}
		d.Users.Admins = roles[model.RoleAdmin]
		d.Users.Coordinators = roles[model.RoleCoordinator]
		d.Users.Students = roles[model.RoleStudent]
		for _, n := range roles {
			d.Users.Total += n
		}
	}

	s.cachedSet(ctx, dashboardKey, d)
	return d, nil
}

// Forget drops cached snapshots touched by a change to eventID.
func (s *Service) Forget(ctx context.Context, eventID uint64) {
	if err := s.cache.Delete(ctx, eventKey(eventID), dashboardKey); err != nil {
		s.log.Warn("stats cache delete failed", slog.Uint64("event_id", eventID), logger.Err(err))
	}
}

// cachedGet treats any cache failure as a miss.
func (s *Service) cachedGet(ctx context.Context, key string, dst interface{}) bool {
	ok, err := s.cache.Get(ctx, key, dst)
	if err != nil {
		s.log.Warn("stats cache read failed", slog.String("key", key), logger.Err(err))
		return false
	}
	return ok
}

func (s *Service) cachedSet(ctx context.Context, key string, v interface{}) {
	if err := s.cache.Set(ctx, key, v); err != nil {
		s.log.Warn("stats cache write failed", slog.String("key", key), logger.Err(err))
	}
}
