package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campus-events/internal/logger"
	"github.com/iliyamo/campus-events/internal/model"
	"github.com/iliyamo/campus-events/internal/registration"
	"github.com/iliyamo/campus-events/internal/repository"
	"github.com/iliyamo/campus-events/internal/stats"
)

// EventStore is the event persistence used by EventHandler.
type EventStore interface {
	Create(ctx context.Context, ev *model.Event) error
	GetByID(ctx context.Context, id uint64) (*model.Event, error)
	ListPublished(ctx context.Context) ([]model.Event, error)
	ListAll(ctx context.Context) ([]model.Event, error)
	SearchPublished(ctx context.Context, q repository.EventSearchQuery) ([]model.Event, int64, error)
	Update(ctx context.Context, id uint64, p repository.EventPatch) (*model.Event, error)
	Delete(ctx context.Context, id uint64) error
}

// StatsReader serves per-event and dashboard statistics.
type StatsReader interface {
	EventStats(ctx context.Context, eventID uint64) (stats.EventSummary, error)
	Global(ctx context.Context) (stats.Dashboard, error)
	Forget(ctx context.Context, eventID uint64)
}

// EventHandler serves event browsing and event management.
type EventHandler struct {
	Events EventStore
	Stats  StatsReader
	// Invalidate drops cached public responses after a change.  May be nil.
	Invalidate func(ctx context.Context) error
	Log        *slog.Logger
}

// NewEventHandler constructs an EventHandler and panics if a required
// dependency is nil.
func NewEventHandler(events EventStore, st StatsReader, invalidate func(context.Context) error, log *slog.Logger) *EventHandler {
	if events == nil || st == nil {
		panic("nil dependency passed to NewEventHandler")
	}
	if log == nil {
		log = logger.Discard()
	}
	return &EventHandler{Events: events, Stats: st, Invalidate: invalidate, Log: log}
}

type createEventReq struct {
	Name          string   `json:"name" validate:"required,min=2,max=200"`
	Category      *string  `json:"category" validate:"omitempty,max=80"`
	Description   *string  `json:"description"`
	Date          string   `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime     *string  `json:"start_time" validate:"omitempty,datetime=15:04"`
	EndTime       *string  `json:"end_time" validate:"omitempty,datetime=15:04"`
	Venue         *string  `json:"venue" validate:"omitempty,max=200"`
	Capacity      *int     `json:"capacity"`
	CoverImageURL *string  `json:"cover_image_url" validate:"omitempty,url"`
	Tags          []string `json:"tags" validate:"omitempty,dive,max=40"`
	IsPublished   *bool    `json:"is_published"`
}

type updateEventReq struct {
	Name          *string   `json:"name" validate:"omitempty,min=2,max=200"`
	Category      *string   `json:"category" validate:"omitempty,max=80"`
	Description   *string   `json:"description"`
	Date          *string   `json:"date" validate:"omitempty,datetime=2006-01-02"`
	StartTime     *string   `json:"start_time" validate:"omitempty,datetime=15:04"`
	EndTime       *string   `json:"end_time" validate:"omitempty,datetime=15:04"`
	Venue         *string   `json:"venue" validate:"omitempty,max=200"`
	Capacity      *int      `json:"capacity"`
	ClearCapacity bool      `json:"clear_capacity"` // makes the event unbounded
	CoverImageURL *string   `json:"cover_image_url" validate:"omitempty,url"`
	Tags          *[]string `json:"tags"`
	IsPublished   *bool     `json:"is_published"`
}

// eventMetrics is the summary shown on the public event page.  Registered
// counts every admitted participant, checked in or not.
type eventMetrics struct {
	Registered    int      `json:"registered"`
	Waitlisted    int      `json:"waitlisted"`
	Cancelled     int      `json:"cancelled"`
	FeedbackAvg   *float64 `json:"feedbackAvg"`
	FeedbackCount int      `json:"feedbackCount"`
}

func validCapacity(c *int) bool { return c == nil || *c > 0 }

// ListPublished returns published events in date order.
func (h *EventHandler) ListPublished(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	events, err := h.Events.ListPublished(ctx)
	if err != nil {
		h.Log.Error("list published events failed", logger.Err(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, events)
}

// Search filters published events by name, category, venue and tag.
// time: "upcoming" (default), "past" or "any".
func (h *EventHandler) Search(c echo.Context) error {
	timeFilter := strings.ToLower(strings.TrimSpace(c.QueryParam("time")))
	switch timeFilter {
	case "":
		timeFilter = "upcoming"
	case "upcoming", "past", "any":
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "time must be one of upcoming, past, any"})
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	ps, _ := strconv.Atoi(c.QueryParam("page_size"))
	if ps < 1 {
		ps = 20
	}
	if ps > 100 {
		ps = 100
	}

	q := repository.EventSearchQuery{
		Name:       strings.TrimSpace(c.QueryParam("q")),
		Category:   strings.TrimSpace(c.QueryParam("category")),
		Venue:      strings.TrimSpace(c.QueryParam("venue")),
		Tag:        strings.TrimSpace(c.QueryParam("tag")),
		TimeFilter: timeFilter,
		Page:       page,
		PageSize:   ps,
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	items, total, err := h.Events.SearchPublished(ctx, q)
	if err != nil {
		h.Log.Error("search events failed", logger.Err(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"data":      items,
		"total":     total,
		"page":      page,
		"page_size": ps,
	})
}

// ListAll returns every event, newest first, for staff.
func (h *EventHandler) ListAll(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	events, err := h.Events.ListAll(ctx)
	if err != nil {
		h.Log.Error("list events failed", logger.Err(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, events)
}

// Get returns a published event with its registration metrics.
func (h *EventHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	ev, err := h.Events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		h.Log.Error("load event failed", slog.Uint64("event_id", id), logger.Err(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !ev.IsPublished {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
	}
	sum, err := h.Stats.EventStats(ctx, id)
	if err != nil {
		return registrationError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"event": ev,
		"metrics": eventMetrics{
			Registered:    sum.Admitted,
			Waitlisted:    sum.ByStatus.Waitlisted,
			Cancelled:     sum.ByStatus.Cancelled,
			FeedbackAvg:   sum.Feedback.Average,
			FeedbackCount: sum.Feedback.Count,
		},
	})
}

// Create adds an event owned by the calling admin.
func (h *EventHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createEventReq
	if err := bindAndValidate(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if !validCapacity(req.Capacity) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": registration.ErrInvalidCapacity.Error()})
	}
	ev := &model.Event{
		Name:          strings.TrimSpace(req.Name),
		Category:      req.Category,
		Description:   req.Description,
		Date:          req.Date,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		Venue:         req.Venue,
		Capacity:      req.Capacity,
		CoverImageURL: req.CoverImageURL,
		Tags:          req.Tags,
		CreatedBy:     uid,
	}
	if req.IsPublished != nil {
		ev.IsPublished = *req.IsPublished
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	if err := h.Events.Create(ctx, ev); err != nil {
		h.Log.Error("create event failed", logger.Err(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create event failed"})
	}
	h.changed(ctx, ev.ID)
	h.Log.Info("event created", slog.Uint64("event_id", ev.ID), slog.Uint64("created_by", uid))
	return c.JSON(http.StatusCreated, ev)
}

// Update applies a partial change.  Lowering the capacity below the
// admitted count does not remove anybody; new registrations waitlist.
func (h *EventHandler) Update(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var req updateEventReq
	if err := bindAndValidate(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if !validCapacity(req.Capacity) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": registration.ErrInvalidCapacity.Error()})
	}
	if req.ClearCapacity && req.Capacity != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "capacity and clear_capacity are exclusive"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	ev, err := h.Events.Update(ctx, id, repository.EventPatch{
		Name:          req.Name,
		Category:      req.Category,
		Description:   req.Description,
		Date:          req.Date,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		Venue:         req.Venue,
		Capacity:      req.Capacity,
		ClearCapacity: req.ClearCapacity,
		CoverImageURL: req.CoverImageURL,
		Tags:          req.Tags,
		IsPublished:   req.IsPublished,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		h.Log.Error("update event failed", slog.Uint64("event_id", id), logger.Err(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update event failed"})
	}
	h.changed(ctx, id)
	return c.JSON(http.StatusOK, ev)
}

// Delete removes an event together with its registrations and feedback.
func (h *EventHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	if err := h.Events.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		h.Log.Error("delete event failed", slog.Uint64("event_id", id), logger.Err(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete event failed"})
	}
	h.changed(ctx, id)
	h.Log.Info("event deleted", slog.Uint64("event_id", id))
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// changed drops cached views of eventID.  Failures only delay freshness.
func (h *EventHandler) changed(ctx context.Context, eventID uint64) {
	h.Stats.Forget(ctx, eventID)
	if h.Invalidate == nil {
		return
	}
	if err := h.Invalidate(ctx); err != nil {
		h.Log.Warn("response cache invalidation failed", slog.Uint64("event_id", eventID), logger.Err(err))
	}
}
