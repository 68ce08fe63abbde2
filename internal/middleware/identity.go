package middleware

// identity.go holds helpers shared by the rate limiter and the response
// cache to tell callers apart.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// callerKey returns the authenticated user ID as a string, or "anon" when
// JWTAuth has not run for this request.
func callerKey(c echo.Context) string {
	switch v := c.Get(CtxUserID).(type) {
	case uint64:
		return strconv.FormatUint(v, 10)
	case string:
		if v != "" {
			return v
		}
	}
	return "anon"
}

// personalized reports whether the response may depend on who is asking.
func personalized(c echo.Context) bool {
	return c.Request().Header.Get("Authorization") != "" || c.Get(CtxUserID) != nil
}
