package security

import (
	"log/slog"
	"sync"
	"time"
)

// Default policies for the sensitive auth operations, keyed by normalized
// email address.
const (
	// DefaultLoginMaxAttempts and DefaultLoginWindow throttle login.
	DefaultLoginMaxAttempts = 5
	DefaultLoginWindow      = time.Minute

	// DefaultRegistrationMaxAttempts and DefaultRegistrationWindow throttle
	// hospital registration.
	DefaultRegistrationMaxAttempts = 3
	DefaultRegistrationWindow      = 5 * time.Minute

	// DefaultPasswordResetMaxAttempts and DefaultPasswordResetWindow
	// throttle password reset requests.
	DefaultPasswordResetMaxAttempts = 3
	DefaultPasswordResetWindow      = 5 * time.Minute
)

// attemptEntry tracks attempt timestamps for one identifier.
type attemptEntry struct {
	attempts []time.Time
}

// AttemptLimiter provides sliding-window rate limiting for sensitive
// operations, keyed by an identifier such as a normalized email address.
//
// Timestamps older than the window are pruned lazily on each call; a
// blocked check is not recorded as an attempt. State is in-process only
// and lost on restart: this is a client-side deterrent, not a security
// boundary.
type AttemptLimiter struct {
	entries     map[string]*attemptEntry
	mu          sync.Mutex
	maxAttempts int
	window      time.Duration
	logger      *slog.Logger

	// now is overridable in tests to drive the window.
	now func() time.Time

	// Statistics
	totalBlocked int64
	totalAllowed int64
}

// NewAttemptLimiter creates a limiter allowing maxAttempts per window for
// each identifier.
func NewAttemptLimiter(maxAttempts int, window time.Duration, logger *slog.Logger) *AttemptLimiter {
	if logger == nil {
		logger = slog.Default()
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultLoginMaxAttempts
		logger.Warn("Invalid maxAttempts, using default", "maxAttempts", maxAttempts)
	}
	if window <= 0 {
		window = DefaultLoginWindow
		logger.Warn("Invalid window, using default", "window", window)
	}

	return &AttemptLimiter{
		entries:     make(map[string]*attemptEntry),
		maxAttempts: maxAttempts,
		window:      window,
		logger:      logger,
		now:         time.Now,
	}
}

// NewLoginLimiter creates a limiter with the login policy (5 attempts/min).
func NewLoginLimiter(logger *slog.Logger) *AttemptLimiter {
	return NewAttemptLimiter(DefaultLoginMaxAttempts, DefaultLoginWindow, logger)
}

// NewRegistrationLimiter creates a limiter with the registration policy
// (3 attempts per 5 minutes).
func NewRegistrationLimiter(logger *slog.Logger) *AttemptLimiter {
	return NewAttemptLimiter(DefaultRegistrationMaxAttempts, DefaultRegistrationWindow, logger)
}

// NewPasswordResetLimiter creates a limiter with the password reset policy
// (3 attempts per 5 minutes).
func NewPasswordResetLimiter(logger *slog.Logger) *AttemptLimiter {
	return NewAttemptLimiter(DefaultPasswordResetMaxAttempts, DefaultPasswordResetWindow, logger)
}

// Allow checks whether another attempt for identifier is permitted.
// If the pruned attempt count is under the limit, the attempt is recorded
// and Allow returns true. Otherwise it returns false and records nothing,
// so waiting out the window always frees the identifier again.
func (l *AttemptLimiter) Allow(identifier string) bool {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	entry, exists := l.entries[identifier]
	if !exists {
		entry = &attemptEntry{}
		l.entries[identifier] = entry
	}

	l.prune(entry, now)

	if len(entry.attempts) >= l.maxAttempts {
		l.totalBlocked++
		l.logger.Warn("Attempt rate limit exceeded",
			"identifier", identifier,
			"attempts_in_window", len(entry.attempts),
			"max_attempts", l.maxAttempts,
			"window", l.window,
			"total_blocked", l.totalBlocked)
		return false
	}

	entry.attempts = append(entry.attempts, now)
	l.totalAllowed++
	return true
}

// RetryAfter returns how long the caller must wait before the next attempt
// for identifier is allowed. Returns 0 when the identifier is under the
// limit.
func (l *AttemptLimiter) RetryAfter(identifier string) time.Duration {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	entry, exists := l.entries[identifier]
	if !exists {
		return 0
	}

	l.prune(entry, now)

	if len(entry.attempts) < l.maxAttempts {
		return 0
	}

	wait := l.window - now.Sub(entry.attempts[0])
	if wait < 0 {
		wait = 0
	}
	return wait
}

// Remaining returns how many attempts are left in the current window for
// identifier.
func (l *AttemptLimiter) Remaining(identifier string) int {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	entry, exists := l.entries[identifier]
	if !exists {
		return l.maxAttempts
	}

	l.prune(entry, now)

	remaining := l.maxAttempts - len(entry.attempts)
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// Reset drops all recorded attempts for identifier. Called after a
// successful sensitive operation so legitimate users are not penalized for
// earlier failures.
func (l *AttemptLimiter) Reset(identifier string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.entries, identifier)
}

// ClearAll drops recorded attempts for every identifier.
func (l *AttemptLimiter) ClearAll() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = make(map[string]*attemptEntry)
}

// prune drops timestamps that fell out of the window, in place.
// Must be called with the mutex held.
func (l *AttemptLimiter) prune(entry *attemptEntry, now time.Time) {
	windowStart := now.Add(-l.window)
	n := 0
	for _, t := range entry.attempts {
		if t.After(windowStart) {
			entry.attempts[n] = t
			n++
		}
	}
	entry.attempts = entry.attempts[:n]
}

// AttemptStats holds limiter statistics for monitoring.
type AttemptStats struct {
	CurrentEntries int   // Identifiers currently tracked
	MaxAttempts    int   // Attempts allowed per window
	Window         string
	TotalBlocked   int64 // Attempts rejected
	TotalAllowed   int64 // Attempts permitted
}

// GetStats returns current limiter statistics.
func (l *AttemptLimiter) GetStats() AttemptStats {
	l.mu.Lock()
	defer l.mu.Unlock()

	return AttemptStats{
		CurrentEntries: len(l.entries),
		MaxAttempts:    l.maxAttempts,
		Window:         l.window.String(),
		TotalBlocked:   l.totalBlocked,
		TotalAllowed:   l.totalAllowed,
	}
}
