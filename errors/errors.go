package errors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidToken      = fmt.Errorf("invalid or expired token")
	ErrMissingToken      = fmt.Errorf("authorization token is missing")
	ErrUserNotFound      = fmt.Errorf("user not found")
	ErrRoomForbidden     = fmt.Errorf("user is not a participant of this room")
	ErrBrokerUnavailable = fmt.Errorf("broker unavailable")
	ErrPersistence       = fmt.Errorf("persistence failed")
	ErrRateLimited       = fmt.Errorf("rate limit exceeded")
	ErrInvalidPayload    = fmt.Errorf("malformed payload")
	ErrNotFound          = fmt.Errorf("record not found")
	ErrWorkerPanic       = fmt.Errorf("worker panic")
	ErrSessionClosed     = fmt.Errorf("session closed")
)

// Retryable reports whether the client may retry the failed operation.
// Broker outages and persistence failures are transient; authorization
// and validation failures are final.
func Retryable(err error) bool {
	switch {
	case errors.Is(err, ErrBrokerUnavailable),
		errors.Is(err, ErrPersistence),
		errors.Is(err, ErrRateLimited):
		return true
	default:
		return false
	}
}
