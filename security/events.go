package security

// Event type constants for security audit logging. These keep event names
// consistent across the SDK and prevent typos when logging.
const (
	// Session lifecycle events

	// EventLoginSucceeded is logged when the API accepts a login.
	EventLoginSucceeded = "login_succeeded"

	// EventLoginFailed is logged when the API rejects a login.
	EventLoginFailed = "login_failed"

	// EventLogout is logged when the user logs out.
	EventLogout = "logout"

	// EventSessionExpired is logged when a 401 response forces the client
	// back to an unauthenticated state.
	EventSessionExpired = "session_expired"

	// Token events

	// EventTokenStored is logged when an encrypted token is written to a
	// storage scope.
	EventTokenStored = "token_stored"

	// EventTokenCleared is logged when the stored token is removed.
	EventTokenCleared = "token_cleared"

	// EventTokenDiscarded is logged when a stored token failed to decrypt
	// and was discarded.
	EventTokenDiscarded = "token_discarded"

	// Violation events

	// EventRateLimitExceeded is logged when a sensitive operation is
	// blocked client-side by the attempt limiter.
	EventRateLimitExceeded = "rate_limit_exceeded"

	// EventCSRFRejected is logged when a CSRF token fails validation.
	EventCSRFRejected = "csrf_rejected"
)
