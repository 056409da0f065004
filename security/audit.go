package security

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"
)

// Auditor handles security event logging with PII protection. Identifiers
// such as email addresses are hashed before they reach the log stream.
type Auditor struct {
	logger  *slog.Logger
	enabled bool
}

// NewAuditor creates a new security auditor.
func NewAuditor(logger *slog.Logger, enabled bool) *Auditor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Auditor{logger: logger, enabled: enabled}
}

// Event represents a security audit event.
type Event struct {
	Type      string
	Identity  string // email or account identifier, hashed before logging
	Details   map[string]any
	Timestamp time.Time
}

// LogEvent logs a security event with hashed PII.
func (a *Auditor) LogEvent(event Event) {
	if !a.enabled {
		return
	}

	event.Timestamp = time.Now()

	a.logger.Info("security_audit",
		"event_type", event.Type,
		"identity_hash", hashForLogging(event.Identity),
		"details", event.Details,
		"timestamp", event.Timestamp,
	)
}

// LogLogin logs the outcome of a login attempt.
func (a *Auditor) LogLogin(email string, success bool, remember bool) {
	eventType := EventLoginSucceeded
	if !success {
		eventType = EventLoginFailed
	}
	a.LogEvent(Event{
		Type:     eventType,
		Identity: email,
		Details: map[string]any{
			"remember": remember,
		},
	})
}

// LogSessionExpired logs that a 401 response ended the session.
func (a *Auditor) LogSessionExpired(path string) {
	a.LogEvent(Event{
		Type: EventSessionExpired,
		Details: map[string]any{
			"path": path,
		},
	})
}

// LogRateLimitExceeded logs a client-side rate limit rejection.
func (a *Auditor) LogRateLimitExceeded(operation, email string, retryAfter time.Duration) {
	a.LogEvent(Event{
		Type:     EventRateLimitExceeded,
		Identity: email,
		Details: map[string]any{
			"operation":   operation,
			"retry_after": retryAfter.String(),
		},
	})
}

// LogTokenDiscarded logs that a stored token failed decryption and was
// removed from both scopes.
func (a *Auditor) LogTokenDiscarded(reason string) {
	a.LogEvent(Event{
		Type: EventTokenDiscarded,
		Details: map[string]any{
			"reason": reason,
		},
	})
}

// hashForLogging hashes an identifier for log output. Empty values stay
// empty so absent identities remain recognizable.
func hashForLogging(s string) string {
	if s == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:8])
}
