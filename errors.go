package portal

import (
	"fmt"
	"net/http"
	"time"
)

// Error codes carried by APIError when the server supplies one, plus the
// codes the client synthesizes for non-JSON failures.
const (
	ErrorCodeBadRequest   = "bad_request"
	ErrorCodeUnauthorized = "unauthorized"
	ErrorCodeForbidden    = "forbidden"
	ErrorCodeNotFound     = "not_found"
	ErrorCodeConflict     = "conflict"
	ErrorCodeServerError  = "server_error"
	ErrorCodeUnknown      = "unknown_error"
)

// RateLimitError reports that a sensitive operation was blocked client-side
// before any network call was made. RetryAfter tells the caller how long to
// wait.
type RateLimitError struct {
	Operation  string
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s rate limit exceeded, retry after %s", e.Operation, e.RetryAfter)
}

// NetworkError reports a connectivity failure. Surfaced as a generic
// "check your connection" condition unless a fallback value applies.
type NetworkError struct {
	Err error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

// Unwrap returns the underlying transport error.
func (e *NetworkError) Unwrap() error { return e.Err }

// TimeoutError reports that a request exceeded the configured duration.
// Kept distinct from NetworkError so the UI can word it differently.
type TimeoutError struct {
	Timeout time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request timed out after %s", e.Timeout)
}

// SessionExpiredError reports a 401 response. By the time the caller sees
// it, the stored token is already removed and the session-expired listeners
// have fired; the UI should show a re-authentication prompt, not a raw
// error.
type SessionExpiredError struct{}

// Error implements the error interface.
func (e *SessionExpiredError) Error() string {
	return "session expired"
}

// APIError represents a non-2xx HTTP response with a server-supplied
// message and code. Message has already passed through SanitizeText, since
// error payloads are untrusted input.
type APIError struct {
	Status  int    // HTTP status code
	Code    string // server error code, or a synthesized one
	Message string // sanitized human-readable message
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Code, e.Message)
}

// statusMessage is the fallback user-facing message for a status code when
// the response body carries no usable JSON error payload.
func statusMessage(status int) (code, message string) {
	switch status {
	case http.StatusBadRequest:
		return ErrorCodeBadRequest, "The request was invalid"
	case http.StatusUnauthorized:
		return ErrorCodeUnauthorized, "Authentication required"
	case http.StatusForbidden:
		return ErrorCodeForbidden, "You do not have access to this resource"
	case http.StatusNotFound:
		return ErrorCodeNotFound, "The requested resource was not found"
	case http.StatusConflict:
		return ErrorCodeConflict, "The request conflicts with the current state"
	case http.StatusTooManyRequests:
		return ErrorCodeUnknown, "Too many requests, try again later"
	default:
		if status >= 500 {
			return ErrorCodeServerError, "The server encountered an error"
		}
		return ErrorCodeUnknown, fmt.Sprintf("Request failed with status %d", status)
	}
}
