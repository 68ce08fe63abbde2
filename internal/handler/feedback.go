package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campus-events/internal/logger"
	"github.com/iliyamo/campus-events/internal/model"
	"github.com/iliyamo/campus-events/internal/registration"
)

// FeedbackStore persists one rating per user and event.
type FeedbackStore interface {
	Upsert(ctx context.Context, eventID, userID uint64, rating int, comments *string) (*model.Feedback, error)
	ListByEvent(ctx context.Context, eventID uint64) ([]model.Feedback, error)
}

// FeedbackHandler serves event ratings.
type FeedbackHandler struct {
	Feedback FeedbackStore
	Events   registration.EventLookup
	Stats    StatsReader
	Log      *slog.Logger
}

// NewFeedbackHandler constructs a FeedbackHandler.  st may be nil.
func NewFeedbackHandler(fb FeedbackStore, events registration.EventLookup, st StatsReader, log *slog.Logger) *FeedbackHandler {
	if fb == nil || events == nil {
		panic("nil dependency passed to NewFeedbackHandler")
	}
	if log == nil {
		log = logger.Discard()
	}
	return &FeedbackHandler{Feedback: fb, Events: events, Stats: st, Log: log}
}

type feedbackReq struct {
	Rating   int     `json:"rating" validate:"required,min=1,max=5"`
	Comments *string `json:"comments" validate:"omitempty,max=2000"`
}

// Submit creates or replaces the caller's rating of the event.
func (h *FeedbackHandler) Submit(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	eventID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var req feedbackReq
	if err := bindAndValidate(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	if _, found, err := h.Events.LookupEvent(ctx, eventID); err != nil {
		h.Log.Error("lookup event failed", slog.Uint64("event_id", eventID), logger.Err(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	} else if !found {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
	}

	fb, err := h.Feedback.Upsert(ctx, eventID, uid, req.Rating, req.Comments)
	if err != nil {
		h.Log.Error("save feedback failed", slog.Uint64("event_id", eventID), logger.Err(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save feedback failed"})
	}
	if h.Stats != nil {
		h.Stats.Forget(ctx, eventID)
	}
	return c.JSON(http.StatusCreated, fb)
}

// List returns all ratings of the event for staff.
func (h *FeedbackHandler) List(c echo.Context) error {
	eventID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	list, err := h.Feedback.ListByEvent(ctx, eventID)
	if err != nil {
		h.Log.Error("list feedback failed", slog.Uint64("event_id", eventID), logger.Err(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, list)
}
