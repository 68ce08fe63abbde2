package handler // handler defines http handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campus-events/internal/logger"
	"github.com/iliyamo/campus-events/internal/middleware"
	"github.com/iliyamo/campus-events/internal/registration"
)

// requestTimeout bounds the storage work done by one request.
const requestTimeout = 5 * time.Second

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// getUserID extracts the user_id from echo.Context and converts it to uint64
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get(middleware.CtxUserID)
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

// bindAndValidate decodes the request body into dst and runs its validate
// tags.  The returned error text is safe to show to the client.
func bindAndValidate(c echo.Context, dst interface{}) error {
	if err := c.Bind(dst); err != nil {
		return errors.New("invalid body")
	}
	return check(dst)
}

// check runs the validate tags of dst.
func check(dst interface{}) error {
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fieldMessage(fe))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return errors.New("invalid body")
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min", "max", "gte", "lte", "gt":
		return fmt.Sprintf("%s must satisfy %s=%s", field, fe.Tag(), fe.Param())
	case "email":
		return field + " must be a valid email"
	case "url":
		return field + " must be a valid URL"
	case "datetime":
		return fmt.Sprintf("%s must match %s", field, fe.Param())
	}
	return field + " is invalid"
}

// registrationError writes the response for an error returned by the
// registration engine or the stats service.
func registrationError(c echo.Context, log *slog.Logger, err error) error {
	switch registration.KindOf(err) {
	case registration.KindNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"error": notFoundMessage(err)})
	case registration.KindConflict:
		return c.JSON(http.StatusConflict, echo.Map{"error": "already registered"})
	case registration.KindInvalidInput:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case registration.KindTransient:
		log.Warn("registration store unavailable", slog.String("path", c.Path()), logger.Err(err))
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "temporarily unavailable, retry"})
	case registration.KindDependency:
		log.Error("dependency failure", slog.String("path", c.Path()), logger.Err(err))
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "dependency unavailable"})
	}
	log.Error("request failed", slog.String("path", c.Path()), logger.Err(err))
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

func notFoundMessage(err error) string {
	if errors.Is(err, registration.ErrRegistrationNotFound) {
		return "registration not found"
	}
	return "event not found"
}
