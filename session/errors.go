package session

import (
	"errors"
	"fmt"
)

var ErrNoToken = errors.New("no authentication token available")

// AuthenticationError is returned when a token is required but missing, or
// when the backend rejects the login credentials.
type AuthenticationError struct {
	Message    string
	StatusCode int
	Err        error
}

func (e *AuthenticationError) Error() string {
	return e.Message
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// SessionExpiredError describes why a session was invalidated. It travels
// with Invalidation events and is never returned to callers.
type SessionExpiredError struct {
	Cause error
}

func (e *SessionExpiredError) Error() string {
	if e.Cause == nil {
		return "session expired"
	}
	return fmt.Sprintf("session expired: %v", e.Cause)
}

func (e *SessionExpiredError) Unwrap() error {
	return e.Cause
}
