package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/rvlionxz/absensi-kiosk/internal/core/domain"
)

const msgServerError = "Terjadi kesalahan pada server."

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // Error code: bad_request, not_found, internal_error, etc.
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

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, 400, "bad_request", msg)
}

// errUnauthorized returns a 401 error.
func errUnauthorized(c *fiber.Ctx, msg string) error {
	return newError(c, 401, "unauthorized", msg)
}

// errForbidden returns a 403 error.
func errForbidden(c *fiber.Ctx, msg string) error {
	return newError(c, 403, "forbidden", msg)
}

// errConflict returns a 409 error.
func errConflict(c *fiber.Ctx, msg string) error {
	return newError(c, 409, "conflict", msg)
}

// errUnprocessable returns a 422 error.
func errUnprocessable(c *fiber.Ctx, code, msg string) error {
	return newError(c, 422, code, msg)
}

// errFrom maps a use case error to a response. fallback is shown when the
// attendance API gave no message of its own.
func errFrom(c *fiber.Ctx, err error, fallback string) error {
	var remote *domain.RemoteError
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidFilter):
		return errBadRequest(c, err.Error())
	case errors.Is(err, domain.ErrNoSession), errors.Is(err, domain.ErrSessionInvalid):
		return errUnauthorized(c, "login required")
	case errors.Is(err, domain.ErrForbidden):
		return errForbidden(c, "admin role required")
	case errors.Is(err, domain.ErrLocationNotReady):
		return errUnprocessable(c, "location_not_ready", "Harap tunggu sebentar hingga lokasi Anda berhasil terdeteksi.")
	case errors.Is(err, domain.ErrOutsideRadius):
		return errUnprocessable(c, "outside_radius", "Anda di luar area klinik")
	case errors.Is(err, domain.ErrSubmissionInFlight):
		return errConflict(c, "check-in already in progress")
	case errors.Is(err, domain.ErrAlreadyCheckedIn):
		return errConflict(c, "already checked in today")
	case errors.Is(err, domain.ErrStatusUnavailable):
		return errConflict(c, "attendance status is not available")
	case errors.As(err, &remote):
		msg := domain.ServerMessage(err, fallback)
		if remote.StatusCode >= 400 && remote.StatusCode < 500 {
			return newError(c, remote.StatusCode, "remote_rejected", msg)
		}
		return newError(c, 502, "bad_gateway", msg)
	case errors.Is(err, context.DeadlineExceeded):
		return newError(c, 504, "timeout", fallback)
	default:
		LoggerFromCtx(c.UserContext()).Error("request failed", "error", err)
		return newError(c, 502, "bad_gateway", fallback)
	}
}
