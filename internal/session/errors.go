package session

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned for operations against an unknown or
// expired session ID.
var ErrSessionNotFound = errors.New("session not found")

// ErrNotReady is returned when an operation needs analyzed columns but
// the session has not reached the ready phase.
var ErrNotReady = errors.New("session is not ready")

// ValidationError rejects a file before any session state is created
// (size limit, unsupported extension, empty upload).
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", e.Reason)
}
