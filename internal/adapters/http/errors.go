package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/wanderly/wanderly/internal/adapters/mapping"
	"github.com/wanderly/wanderly/internal/adapters/upstream"
	"github.com/wanderly/wanderly/internal/core/usecases"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // bad_request, not_found, internal_error, ...
	Message   string `json:"message"` // Human-readable message
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadRequest, "bad_request", msg)
}

func errUnauthorized(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusUnauthorized, "unauthorized", msg)
}

func errForbidden(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusForbidden, "forbidden", msg)
}

func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusNotFound, "not_found", msg)
}

func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusInternalServerError, "internal_error", msg)
}

func errUnavailable(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusServiceUnavailable, "unavailable", msg)
}

// errFromService maps service and adapter errors onto API errors. Internal
// details are logged, not returned.
func errFromService(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, usecases.ErrPlaceNotFound):
		return errNotFound(c, "place not found")
	case errors.Is(err, usecases.ErrInvalidQuery):
		return errBadRequest(c, err.Error())
	case errors.Is(err, mapping.ErrInvalidJSON), errors.Is(err, mapping.ErrNoName):
		return errBadRequest(c, err.Error())
	case errors.Is(err, usecases.ErrNoSource):
		return errUnavailable(c, "upstream source not configured")
	case errors.Is(err, upstream.ErrCircuitOpen):
		return errUnavailable(c, "upstream temporarily unavailable")
	default:
		LoggerFromCtx(c.UserContext()).Error("request failed", "path", c.Path(), "error", err)
		return errInternal(c, "internal error")
	}
}
