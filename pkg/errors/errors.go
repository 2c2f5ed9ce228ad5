package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrNotFound     = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden    = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict     = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation   = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal     = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")

	// Reservation error kinds. Each keeps its own code so clients can tell
	// "try another clinic" apart from "you are blocked" and "try again shortly".
	ErrSlotInactive         = New("SLOT_INACTIVE", http.StatusBadRequest, "clinic is not open for reservation")
	ErrAlreadyReserved      = New("ALREADY_RESERVED", http.StatusBadRequest, "student already reserved this clinic")
	ErrNotReserved          = New("NOT_RESERVED", http.StatusBadRequest, "student has no reservation for this clinic")
	ErrNoShowBlocked        = New("NO_SHOW_BLOCKED", http.StatusForbidden, "reservations blocked due to repeated no-shows")
	ErrCapacityExceeded     = New("CAPACITY_EXCEEDED", http.StatusConflict, "clinic is already full")
	ErrConcurrentAccess     = New("CONCURRENT_ACCESS", http.StatusConflict, "another reservation for this clinic is in progress")
	ErrRateLimited          = New("RATE_LIMITED", http.StatusTooManyRequests, "too many reservation attempts")
	ErrCancellationDisabled = New("CANCELLATION_DISABLED", http.StatusForbidden, "reservation cancellation is disabled, contact an administrator")
	ErrInvalidOutcome       = New("INVALID_OUTCOME", http.StatusBadRequest, "invalid attendance outcome")

	// ErrCacheMiss signals a cache lookup found nothing. Never surfaced to callers.
	ErrCacheMiss = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
