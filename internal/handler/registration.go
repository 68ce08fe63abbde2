package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campus-events/internal/logger"
	"github.com/iliyamo/campus-events/internal/model"
	"github.com/iliyamo/campus-events/internal/registration"
)

// Lifecycle is the registration engine as seen by the HTTP layer.
type Lifecycle interface {
	Register(ctx context.Context, eventID, participantID uint64) (*model.Registration, error)
	Cancel(ctx context.Context, eventID, participantID uint64) (*model.Registration, error)
	CheckIn(ctx context.Context, eventID uint64, sel registration.Selector) (*model.Registration, error)
	Get(ctx context.Context, eventID, participantID uint64) (*model.Registration, error)
	List(ctx context.Context, eventID uint64) ([]model.Registration, error)
	ListMine(ctx context.Context, participantID uint64) ([]model.Registration, error)
	Availability(ctx context.Context, eventID uint64) (registration.Availability, error)
}

// RegistrationHandler exposes register, cancel and check-in.
type RegistrationHandler struct {
	Engine Lifecycle
	Stats  StatsReader
	Log    *slog.Logger
}

// NewRegistrationHandler constructs a RegistrationHandler.  st may be nil.
func NewRegistrationHandler(engine Lifecycle, st StatsReader, log *slog.Logger) *RegistrationHandler {
	if engine == nil {
		panic("nil engine passed to NewRegistrationHandler")
	}
	if log == nil {
		log = logger.Discard()
	}
	return &RegistrationHandler{Engine: engine, Stats: st, Log: log}
}

type checkInReq struct {
	Code          string `json:"code" validate:"omitempty,len=8,alphanum"`
	ParticipantID uint64 `json:"participant_id"`
}

// Register admits the caller to the event or puts them on its waitlist.
func (h *RegistrationHandler) Register(c echo.Context) error {
	return h.transition(c, http.StatusCreated, h.Engine.Register)
}

// Cancel withdraws the caller's active registration.
func (h *RegistrationHandler) Cancel(c echo.Context) error {
	return h.transition(c, http.StatusOK, h.Engine.Cancel)
}

func (h *RegistrationHandler) transition(c echo.Context, status int,
	op func(ctx context.Context, eventID, participantID uint64) (*model.Registration, error)) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	eventID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	reg, err := op(ctx, eventID, uid)
	if err != nil {
		return registrationError(c, h.Log, err)
	}
	h.forget(ctx, eventID)
	return c.JSON(status, reg)
}

// CheckIn marks attendance by code, participant id, or both.
func (h *RegistrationHandler) CheckIn(c echo.Context) error {
	eventID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var req checkInReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Code = strings.TrimSpace(req.Code)
	if err := check(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	reg, err := h.Engine.CheckIn(ctx, eventID, registration.Selector{
		Code:          req.Code,
		ParticipantID: req.ParticipantID,
	})
	if err != nil {
		return registrationError(c, h.Log, err)
	}
	h.forget(ctx, eventID)
	return c.JSON(http.StatusOK, reg)
}

// List returns the event's registrations with participant names for staff.
func (h *RegistrationHandler) List(c echo.Context) error {
	eventID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	regs, err := h.Engine.List(ctx, eventID)
	if err != nil {
		return registrationError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, regs)
}

// Mine returns every registration held by the caller.
func (h *RegistrationHandler) Mine(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	regs, err := h.Engine.ListMine(ctx, uid)
	if err != nil {
		return registrationError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, regs)
}

// MineForEvent returns the caller's registration for one event.
func (h *RegistrationHandler) MineForEvent(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	eventID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	reg, err := h.Engine.Get(ctx, eventID, uid)
	if err != nil {
		return registrationError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, reg)
}

// Availability reports how many places remain.
func (h *RegistrationHandler) Availability(c echo.Context) error {
	eventID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	av, err := h.Engine.Availability(ctx, eventID)
	if err != nil {
		return registrationError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, av)
}

func (h *RegistrationHandler) forget(ctx context.Context, eventID uint64) {
	if h.Stats != nil {
		h.Stats.Forget(ctx, eventID)
	}
}
