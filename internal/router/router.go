package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campus-events/internal/handler"
	"github.com/iliyamo/campus-events/internal/middleware"
	"github.com/iliyamo/campus-events/internal/model"
)

// Every role may register, cancel and rate events.
var participantRoles = []string{model.RoleStudent, model.RoleCoordinator, model.RoleAdmin}

// RegisterRoutes registers routes that do not require authentication: the
// liveness probe and, when ready is non-nil, the readiness probe.
func RegisterRoutes(e *echo.Echo, ready echo.HandlerFunc) {
	e.GET("/healthz", handler.Health)
	if ready != nil {
		e.GET("/readyz", ready)
	}
}

// RegisterAuth registers all authentication-related routes.  Token
// operations live under /v1/auth; profile endpoints under /v1 require a
// valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)              // rotates the refresh token
	g.POST("/refresh-access", a.RefreshAccess) // keeps the refresh token
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret), middleware.RequireRole(participantRoles...))
	auth.GET("/me", a.Me)
	auth.PATCH("/me", a.UpdateMe)

	// Logout also answers outside the auth group so that a refresh token
	// alone is enough.
	e.POST("/v1/logout", a.Logout)
}

// RegisterPublic registers unauthenticated event browsing.  cache may be
// nil; when set it fronts every public read.
func RegisterPublic(e *echo.Echo, ev *handler.EventHandler, reg *handler.RegistrationHandler, cache echo.MiddlewareFunc) {
	var mw []echo.MiddlewareFunc
	if cache != nil {
		mw = append(mw, cache)
	}
	e.GET("/v1/events", ev.ListPublished, mw...)
	e.GET("/v1/events/search", ev.Search, mw...)
	e.GET("/v1/events/:id", ev.Get, mw...)
	e.GET("/v1/events/:id/availability", reg.Availability, mw...)
}
