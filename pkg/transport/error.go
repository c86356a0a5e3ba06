package transport

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a classified request failure. Every failed request — whether
// it never reached the server or came back with a failure status —
// surfaces as an *Error so callers can branch on one type.
type Error struct {
	// StatusCode is the HTTP status, or 0 for network-level failures.
	StatusCode int

	// Code is the notice code assigned by the classifier.
	Code string

	// Detail is the server-supplied failure text, when present.
	Detail string

	// Header holds the failure response headers (nil for network
	// failures). Login reads X-Attempts-Remaining and
	// X-Lockout-Seconds from here.
	Header http.Header

	// Timeout reports whether a network-level failure was a timeout
	// rather than a connectivity failure.
	Timeout bool

	// Err is the underlying error for network-level failures.
	Err error
}

func (e *Error) Error() string {
	if e.StatusCode == 0 {
		if e.Timeout {
			return fmt.Sprintf("rodeo: request timed out: %v", e.Err)
		}
		return fmt.Sprintf("rodeo: network failure: %v", e.Err)
	}
	if e.Detail != "" {
		return fmt.Sprintf("rodeo: %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Detail)
	}
	return fmt.Sprintf("rodeo: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

func (e *Error) Unwrap() error { return e.Err }

// IsNetwork reports whether the failure never produced an HTTP response.
func (e *Error) IsNetwork() bool { return e.StatusCode == 0 }

// AsError extracts a classified *Error from err, if there is one.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	if apiErr, ok := AsError(err); ok {
		return apiErr.StatusCode
	}
	return 0
}
