package handler

import (
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campus-events/internal/middleware"
)

type request struct {
	method string
	body   string
	query  string // raw query string without the leading '?'
	id     string // value of the :id path parameter, if any
	userID uint64 // caller; zero means unauthenticated
	header map[string]string
}

func newContext(r request) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	method := r.method
	if method == "" {
		method = "GET"
	}
	target := "/"
	if r.query != "" {
		target += "?" + r.query
	}
	req := httptest.NewRequest(method, target, strings.NewReader(r.body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range r.header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if r.id != "" {
		c.SetParamNames("id")
		c.SetParamValues(r.id)
	}
	if r.userID != 0 {
		c.Set(middleware.CtxUserID, r.userID)
		c.Set(middleware.CtxRole, "STUDENT")
	}
	return c, rec
}
