package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campus-events/internal/handler"
	"github.com/iliyamo/campus-events/internal/middleware"
	"github.com/iliyamo/campus-events/internal/model"
)

// RegisterStaff registers endpoints for coordinators and admins: event
// editing, attendee lists, check-in and per-event statistics.
func RegisterStaff(e *echo.Echo, ev *handler.EventHandler, reg *handler.RegistrationHandler,
	fb *handler.FeedbackHandler, st *handler.StatsHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin, model.RoleCoordinator),
	)

	// ---- Events ----
	g.GET("/events/all", ev.ListAll)
	g.PATCH("/events/:id", ev.Update)

	// ---- Attendance ----
	g.GET("/events/:id/registrations", reg.List)
	g.POST("/events/:id/checkin", reg.CheckIn)

	// ---- Feedback & stats ----
	g.GET("/events/:id/feedback", fb.List)
	g.GET("/events/:id/stats", st.Event)
}

// RegisterAdmin registers ADMIN-only endpoints.
func RegisterAdmin(e *echo.Echo, ev *handler.EventHandler, st *handler.StatsHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)
	g.POST("/events", ev.Create)
	g.DELETE("/events/:id", ev.Delete)
	g.GET("/stats", st.Global)
}
