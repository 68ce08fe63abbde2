package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campus-events/internal/handler"
	"github.com/iliyamo/campus-events/internal/middleware"
)

// RegisterParticipant registers endpoints any signed-in user may call.
// limiter may be nil; when set it throttles each caller.
func RegisterParticipant(e *echo.Echo, reg *handler.RegistrationHandler, fb *handler.FeedbackHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	mw := []echo.MiddlewareFunc{
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(participantRoles...),
	}
	if limiter != nil {
		mw = append(mw, limiter)
	}
	g := e.Group("/v1", mw...)

	g.POST("/events/:id/register", reg.Register)
	g.POST("/events/:id/cancel", reg.Cancel)
	g.GET("/events/:id/my-registration", reg.MineForEvent)
	g.GET("/my-registrations", reg.Mine)
	g.POST("/events/:id/feedback", fb.Submit)
}
