package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"sync"
)

// csrfTokenBytes is the entropy of a CSRF token (256 bits).
const csrfTokenBytes = 32

// CSRFGuard issues and validates the per-session anti-forgery token.
//
// The token lives only in process memory, so it cannot survive a restart —
// the session-only lifetime the dashboard requires. One token is used for
// the whole session; there is no per-request rotation.
type CSRFGuard struct {
	mu    sync.Mutex
	token string
}

// NewCSRFGuard creates a guard with no token; one is generated lazily on
// the first Token call or explicitly via Generate after login.
func NewCSRFGuard() *CSRFGuard {
	return &CSRFGuard{}
}

// Generate creates a new cryptographically random token, replaces any
// existing one, and returns it. Called right after a successful login to
// mark the new session boundary.
func (g *CSRFGuard) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.token = newCSRFToken()
	return g.token
}

// Token returns the current token, generating one first if absent. Callers
// are therefore always handed a non-empty token.
func (g *CSRFGuard) Token() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.token == "" {
		g.token = newCSRFToken()
	}
	return g.token
}

// Validate reports whether candidate equals the held token. The comparison
// is constant-time. An empty held token never validates.
func (g *CSRFGuard) Validate(candidate string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(g.token), []byte(candidate)) == 1
}

// Clear removes the held token. Called on logout.
func (g *CSRFGuard) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.token = ""
}

// Refresh clears the held token and generates a fresh one, for manual
// rotation.
func (g *CSRFGuard) Refresh() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.token = newCSRFToken()
	return g.token
}

// newCSRFToken returns 32 random bytes encoded as unpadded base64url.
// Panics on RNG failure, which indicates a critical system-level fault.
func newCSRFToken() string {
	b := make([]byte, csrfTokenBytes)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("crypto/rand.Read failed: %v", err))
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
