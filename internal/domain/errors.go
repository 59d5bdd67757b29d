package domain

import (
	"errors"
	"fmt"
)

// Authentication errors.
var (
	ErrInvalidCredentials = errors.New("incorrect username or password")
	ErrChallengeExpired   = errors.New("challenge session expired")
	ErrUnauthenticated    = errors.New("not authenticated")
	ErrTooManyAttempts    = errors.New("too many login attempts")
)

// Transport and payload errors.
var (
	ErrNetwork          = errors.New("identity endpoint unreachable")
	ErrMalformedProfile = errors.New("malformed profile response")
)

// StatusError reports an unexpected HTTP status from the identity
// endpoint, for responses the error taxonomy has no better name for.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("identity endpoint returned status %d", e.Code)
}
