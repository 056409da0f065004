// Package security provides the client-side security primitives of the
// portal SDK: token encryption at rest, CSRF token lifecycle, sliding-window
// rate limiting of sensitive auth operations, input sanitization, password
// strength evaluation, and security audit logging.
//
// # Rate Limiting
//
// The AttemptLimiter throttles sensitive operations (login, registration,
// password reset) per identifier using a sliding time window. Entries older
// than the window are pruned lazily on each check; there is no background
// goroutine. A blocked check does not count as an attempt.
//
//	limiter := security.NewLoginLimiter(logger)
//	if !limiter.Allow(email) {
//	    wait := limiter.RetryAfter(email)
//	    // surface wait to the user, abort before any network call
//	}
//
// This limiter is a client-side deterrent only. It holds in-process state
// that is lost on restart; the authoritative enforcement must live on the
// server.
//
// # Encryption
//
// The Encryptor protects the bearer token at rest with AES-256-GCM. A
// decryption failure means the stored value is corrupted, tampered with, or
// was written under a different key; callers must discard the value and
// treat the user as logged out rather than surfacing an error.
package security
