package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/todobot/core/internal/domain/entities"
	"github.com/todobot/core/internal/ports"
)

// CustomValidator wraps the validator
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator returns an echo validator that reports fields by their JSON names
func NewValidator() *CustomValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &CustomValidator{validator: v}
}

// Validate validates structs
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// bindAndValidate decodes the request body into req and validates it
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, ports.ErrorResponse{Message: "Invalid request body"})
	}
	return validate(c, req)
}

func validate(c echo.Context, req interface{}) error {
	if err := c.Validate(req); err != nil {
		return validationError(err)
	}
	return nil
}

// validationError converts validator output into a 400 with per-field details
func validationError(err error) *echo.HTTPError {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return echo.NewHTTPError(http.StatusBadRequest, ports.ErrorResponse{Message: err.Error()})
	}

	details := make(map[string]interface{}, len(fieldErrs))
	for _, fe := range fieldErrs {
		details[fe.Field()] = fe.Tag()
	}
	return echo.NewHTTPError(http.StatusBadRequest, ports.ErrorResponse{
		Message: "Validation failed",
		Details: details,
	})
}

// decodePartial decodes a PUT/PATCH body into req and also returns the raw
// fields so callers can tell an explicit null from an absent key.
func decodePartial(c echo.Context, req interface{}) (map[string]json.RawMessage, error) {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, ports.ErrorResponse{Message: "Invalid request body"})
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		body = []byte("{}")
	}

	raw := make(map[string]json.RawMessage)
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, ports.ErrorResponse{Message: "Invalid request body"})
	}
	if err := json.Unmarshal(body, req); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, ports.ErrorResponse{Message: "Invalid request body"})
	}
	return raw, validate(c, req)
}

func isNull(raw map[string]json.RawMessage, key string) bool {
	value, ok := raw[key]
	return ok && string(value) == "null"
}

// mapServiceError translates domain errors into HTTP errors
func mapServiceError(err error) error {
	switch {
	case errors.Is(err, entities.ErrTaskNotFound),
		errors.Is(err, entities.ErrCategoryNotFound),
		errors.Is(err, entities.ErrUserNotFound):
		return echo.NewHTTPError(http.StatusNotFound, ports.ErrorResponse{Message: notFoundMessage(err)})
	case errors.Is(err, entities.ErrDuplicateCategory):
		return echo.NewHTTPError(http.StatusBadRequest, ports.ErrorResponse{
			Message: "Validation failed",
			Details: map[string]interface{}{"name": entities.ErrDuplicateCategory.Error()},
		})
	case errors.Is(err, entities.ErrValidation),
		errors.Is(err, entities.ErrReminderInPast),
		errors.Is(err, entities.ErrTaskNotSchedulable):
		return echo.NewHTTPError(http.StatusBadRequest, ports.ErrorResponse{Message: err.Error()})
	default:
		return err
	}
}

func notFoundMessage(err error) string {
	switch {
	case errors.Is(err, entities.ErrTaskNotFound):
		return "Task not found"
	case errors.Is(err, entities.ErrCategoryNotFound):
		return "Category not found"
	default:
		return "User not found"
	}
}

func badQuery(name string) error {
	return echo.NewHTTPError(http.StatusBadRequest, ports.ErrorResponse{Message: fmt.Sprintf("Invalid %s parameter", name)})
}

func queryInt(c echo.Context, name string) (int, error) {
	value := c.QueryParam(name)
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0, badQuery(name)
	}
	return n, nil
}

func queryInt64(c echo.Context, name string) (*int64, error) {
	value := c.QueryParam(name)
	if value == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return nil, badQuery(name)
	}
	return &n, nil
}

func queryString(c echo.Context, name string) *string {
	value := strings.TrimSpace(c.QueryParam(name))
	if value == "" {
		return nil
	}
	return &value
}

func queryStatus(c echo.Context) (*entities.TaskStatus, error) {
	value := c.QueryParam("status")
	if value == "" {
		return nil, nil
	}
	status := entities.TaskStatus(value)
	if !status.IsValid() {
		return nil, badQuery("status")
	}
	return &status, nil
}
