package api

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotAuthenticated is returned before any network I/O when a
	// mutating call is made without a bearer token.
	ErrNotAuthenticated = errors.New("api: not authenticated")

	// ErrNotFound is returned when the backend answers 404.
	ErrNotFound = errors.New("api: not found")

	// ErrInvalidInput wraps validation failures of a PostInput.
	ErrInvalidInput = errors.New("api: invalid input")
)

// Error describes a failed backend call: a transport error, a non-2xx
// status, or a response without success:true or its payload key.
type Error struct {
	Op      string // e.g. "create post"
	Status  int    // 0 for transport errors
	Message string // backend-provided message, if any
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "":
		return fmt.Sprintf("api: %s: %s", e.Op, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("api: %s: %v", e.Op, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("api: %s: %s", e.Op, http.StatusText(e.Status))
	}
	return fmt.Sprintf("api: %s: unsuccessful response", e.Op)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ValidationError reports the first PostInput field that failed validation.
type ValidationError struct {
	Field string
	Tag   string
}

func (e *ValidationError) Error() string {
	switch e.Tag {
	case "required":
		return fmt.Sprintf("%s is required", e.Field)
	case "max":
		return fmt.Sprintf("%s is too long", e.Field)
	case "url":
		return fmt.Sprintf("%s must be a valid URL", e.Field)
	}
	return fmt.Sprintf("%s is invalid", e.Field)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// Message returns the backend's message for err, or fallback when err
// carries none. Validation errors describe themselves.
func Message(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return vErr.Error()
	}
	return fallback
}

func asError(err error, target any) bool {
	return errors.As(err, target)
}
