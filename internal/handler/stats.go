package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campus-events/internal/logger"
)

// StatsHandler serves staff statistics.
type StatsHandler struct {
	Stats StatsReader
	Log   *slog.Logger
}

func NewStatsHandler(st StatsReader, log *slog.Logger) *StatsHandler {
	if log == nil {
		log = logger.Discard()
	}
	return &StatsHandler{Stats: st, Log: log}
}

// Event returns per-status counts and feedback for one event.
func (h *StatsHandler) Event(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	sum, err := h.Stats.EventStats(ctx, id)
	if err != nil {
		return registrationError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, sum)
}

// Global returns the admin dashboard.
func (h *StatsHandler) Global(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	d, err := h.Stats.Global(ctx)
	if err != nil {
		return registrationError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, d)
}
