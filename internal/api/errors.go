package api

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnauthorized marks 401/403 responses. The session is not re-negotiated
// mid-flight; callers surface the failure and let the user sign in again.
var ErrUnauthorized = errors.New("unauthorized")

// ErrNotFound marks 404 responses.
var ErrNotFound = errors.New("not found")

// GenericMessage is shown when the backend gives no usable error field.
const GenericMessage = "something went wrong, please try again"

// Error is a backend-reported failure: a 4xx/5xx status plus whatever
// human-readable message the response body carried.
type Error struct {
	Status    int
	Message   string
	RequestID string
}

func (e *Error) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Message)
}

func (e *Error) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	}
	return nil
}

// IsNotFound reports whether err is a backend 404.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// UserMessage extracts a message fit for a notification toast from any error.
// Server-provided text wins; everything else collapses to the generic fallback.
func UserMessage(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" && apiErr.Message != GenericMessage {
		return apiErr.Message
	}
	return GenericMessage
}

// errorBody matches the two shapes the backend uses for failures.
type errorBody struct {
	ErrorField string `json:"error"`
	Message    string `json:"message"`
}

func (b errorBody) text() string {
	if b.ErrorField != "" {
		return b.ErrorField
	}
	if b.Message != "" {
		return b.Message
	}
	return GenericMessage
}
