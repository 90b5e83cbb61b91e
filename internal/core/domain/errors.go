package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrLocationUnsupported means the device has no location capability.
	ErrLocationUnsupported = errors.New("location capability not supported")

	// ErrLocationNotReady means no coordinates are available yet.
	ErrLocationNotReady = errors.New("location not ready")

	// ErrOutsideRadius means the latest sample is not admissible.
	ErrOutsideRadius = errors.New("outside clinic radius")

	// ErrSubmissionInFlight means a check-in request is already pending.
	ErrSubmissionInFlight = errors.New("check-in already in progress")

	// ErrAlreadyCheckedIn means the session is already checked in.
	ErrAlreadyCheckedIn = errors.New("already checked in")

	// ErrStatusUnavailable means the status is still loading or failed to load.
	ErrStatusUnavailable = errors.New("attendance status unavailable")

	// ErrNoSession means there is no valid stored credential.
	ErrNoSession = errors.New("no active session")

	// ErrSessionInvalid means the stored credential could not be decoded.
	ErrSessionInvalid = errors.New("stored session is invalid")

	// ErrForbidden means the session role may not perform the action.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidFilter means the history filter is unknown.
	ErrInvalidFilter = errors.New("invalid history filter")

	// ErrValidation wraps invalid user input.
	ErrValidation = errors.New("validation failed")
)

// RemoteError is a non-2xx response of the attendance API. Message is the
// server-provided "message" field, when present.
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("remote api: status %d: %s", e.StatusCode, e.Message)
}

// ServerMessage returns the server-provided message of a RemoteError in
// err's chain, or fallback.
func ServerMessage(err error, fallback string) string {
	var re *RemoteError
	if errors.As(err, &re) && re.Message != "" {
		return re.Message
	}
	return fallback
}
