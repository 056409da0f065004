package security

import (
	"testing"
	"time"
)

// fakeClock drives the limiter's view of time in tests.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newTestLimiter(maxAttempts int, window time.Duration) (*AttemptLimiter, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	l := NewAttemptLimiter(maxAttempts, window, nil)
	l.now = clock.Now
	return l, clock
}

func TestAttemptLimiter_Allow(t *testing.T) {
	l, _ := newTestLimiter(5, time.Minute)

	for i := 0; i < 5; i++ {
		if !l.Allow("admin@clinic.example") {
			t.Fatalf("Allow() call %d = false, want true", i+1)
		}
	}

	if l.Allow("admin@clinic.example") {
		t.Error("Allow() call 6 = true, want false")
	}

	// A different identifier has its own window.
	if !l.Allow("other@clinic.example") {
		t.Error("Allow() for unrelated identifier = false, want true")
	}
}

func TestAttemptLimiter_BlockedCheckNotRecorded(t *testing.T) {
	l, clock := newTestLimiter(2, time.Minute)

	l.Allow("x")
	l.Allow("x")

	// Blocked checks must not extend the wait.
	for i := 0; i < 10; i++ {
		if l.Allow("x") {
			t.Fatal("Allow() over limit = true, want false")
		}
	}

	clock.Advance(time.Minute + time.Second)
	if !l.Allow("x") {
		t.Error("Allow() after window elapsed = false, want true")
	}
}

func TestAttemptLimiter_WindowSlide(t *testing.T) {
	l, clock := newTestLimiter(5, time.Minute)

	for i := 0; i < 5; i++ {
		l.Allow("x")
	}
	if l.Allow("x") {
		t.Fatal("Allow() over limit = true, want false")
	}

	// All recorded attempts fall out of the window.
	clock.Advance(2 * time.Minute)

	if !l.Allow("x") {
		t.Fatal("Allow() after slide = false, want true")
	}

	// Stale entries were pruned: only the fresh attempt remains.
	if got := l.Remaining("x"); got != 4 {
		t.Errorf("Remaining() = %d, want 4", got)
	}
}

func TestAttemptLimiter_RetryAfter(t *testing.T) {
	l, clock := newTestLimiter(2, time.Minute)

	if got := l.RetryAfter("x"); got != 0 {
		t.Errorf("RetryAfter() before any attempts = %v, want 0", got)
	}

	l.Allow("x")
	clock.Advance(10 * time.Second)
	l.Allow("x")

	if got := l.RetryAfter("x"); got != 50*time.Second {
		t.Errorf("RetryAfter() = %v, want 50s", got)
	}

	clock.Advance(55 * time.Second)
	if got := l.RetryAfter("x"); got != 0 {
		t.Errorf("RetryAfter() after oldest expired = %v, want 0", got)
	}
}

func TestAttemptLimiter_Reset(t *testing.T) {
	l, _ := newTestLimiter(2, time.Minute)

	l.Allow("x")
	l.Allow("x")
	if l.Allow("x") {
		t.Fatal("Allow() over limit = true, want false")
	}

	l.Reset("x")

	if !l.Allow("x") {
		t.Error("Allow() after Reset() = false, want true")
	}
}

func TestAttemptLimiter_ClearAll(t *testing.T) {
	l, _ := newTestLimiter(1, time.Minute)

	l.Allow("a")
	l.Allow("b")

	l.ClearAll()

	if !l.Allow("a") || !l.Allow("b") {
		t.Error("Allow() after ClearAll() = false, want true")
	}
}

func TestAttemptLimiter_Remaining(t *testing.T) {
	l, _ := newTestLimiter(3, time.Minute)

	if got := l.Remaining("x"); got != 3 {
		t.Errorf("Remaining() fresh = %d, want 3", got)
	}

	l.Allow("x")
	l.Allow("x")

	if got := l.Remaining("x"); got != 1 {
		t.Errorf("Remaining() = %d, want 1", got)
	}

	l.Allow("x")
	l.Allow("x") // blocked

	if got := l.Remaining("x"); got != 0 {
		t.Errorf("Remaining() at limit = %d, want 0", got)
	}
}

func TestAttemptLimiter_DefaultsOnInvalidConfig(t *testing.T) {
	l := NewAttemptLimiter(0, 0, nil)

	stats := l.GetStats()
	if stats.MaxAttempts != DefaultLoginMaxAttempts {
		t.Errorf("MaxAttempts = %d, want %d", stats.MaxAttempts, DefaultLoginMaxAttempts)
	}
	if stats.Window != DefaultLoginWindow.String() {
		t.Errorf("Window = %s, want %s", stats.Window, DefaultLoginWindow)
	}
}

func TestAttemptLimiter_GetStats(t *testing.T) {
	l, _ := newTestLimiter(1, time.Minute)

	l.Allow("a")
	l.Allow("a") // blocked
	l.Allow("b")

	stats := l.GetStats()
	if stats.CurrentEntries != 2 {
		t.Errorf("CurrentEntries = %d, want 2", stats.CurrentEntries)
	}
	if stats.TotalAllowed != 2 {
		t.Errorf("TotalAllowed = %d, want 2", stats.TotalAllowed)
	}
	if stats.TotalBlocked != 1 {
		t.Errorf("TotalBlocked = %d, want 1", stats.TotalBlocked)
	}
}

func TestPolicyConstructors(t *testing.T) {
	tests := []struct {
		name       string
		limiter    *AttemptLimiter
		wantMax    int
		wantWindow time.Duration
	}{
		{"login", NewLoginLimiter(nil), DefaultLoginMaxAttempts, DefaultLoginWindow},
		{"registration", NewRegistrationLimiter(nil), DefaultRegistrationMaxAttempts, DefaultRegistrationWindow},
		{"password reset", NewPasswordResetLimiter(nil), DefaultPasswordResetMaxAttempts, DefaultPasswordResetWindow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats := tt.limiter.GetStats()
			if stats.MaxAttempts != tt.wantMax {
				t.Errorf("MaxAttempts = %d, want %d", stats.MaxAttempts, tt.wantMax)
			}
			if stats.Window != tt.wantWindow.String() {
				t.Errorf("Window = %s, want %s", stats.Window, tt.wantWindow)
			}
		})
	}
}
