package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"docvault/internal/http/middleware"
	"docvault/internal/service"
)

// errorPayload is the standardized single-message error body.
type errorPayload struct {
	RequestID string `json:"request_id,omitempty"`
	Error     string `json:"error"`
}

// validationPayload carries field-level validation failures.
type validationPayload struct {
	RequestID string               `json:"request_id,omitempty"`
	Errors    []service.FieldError `json:"errors"`
}

// requestIDFromCtx extracts the request_id stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// writeError writes a standardized JSON error response. The message must be
// safe for clients: no internal errors, paths, or stack traces.
func writeError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(errorPayload{
		RequestID: requestIDFromCtx(c),
		Error:     message,
	})
}

// writeFieldErrors writes a 400 with an errors array, one entry per field.
func writeFieldErrors(c *fiber.Ctx, fields []service.FieldError) error {
	return c.Status(fiber.StatusBadRequest).JSON(validationPayload{
		RequestID: requestIDFromCtx(c),
		Errors:    fields,
	})
}

// writeServiceError maps service-level errors onto HTTP responses.
// Unrecognized errors become a generic 500; the detail stays server-side.
func writeServiceError(c *fiber.Ctx, err error) error {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return writeFieldErrors(c, verr.Fields)
	case errors.Is(err, service.ErrNotFound):
		return writeError(c, fiber.StatusNotFound, "Document not found")
	case errors.Is(err, service.ErrFileMissing):
		return writeError(c, fiber.StatusNotFound, "File not found on server")
	case errors.Is(err, service.ErrUsernameTaken):
		return writeError(c, fiber.StatusConflict, "Username already taken")
	case errors.Is(err, service.ErrInvalidCredentials):
		return writeError(c, fiber.StatusUnauthorized, "Invalid credentials")
	default:
		return writeError(c, fiber.StatusInternalServerError, "Internal server error")
	}
}

// ErrorHandler returns a Fiber global error handler that standardizes error
// responses, including errors raised by middleware (e.g. auth rejections).
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		message := "Internal server error"
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
			switch status {
			case fiber.StatusBadRequest:
				message = "Bad request"
			case fiber.StatusUnauthorized:
				message = e.Message
			case fiber.StatusNotFound:
				message = "Resource not found"
			case fiber.StatusMethodNotAllowed:
				message = "Method not allowed"
			case fiber.StatusRequestEntityTooLarge:
				message = "File too large"
			default:
				message = "Internal server error"
			}
		}
		return writeError(c, status, message)
	}
}
