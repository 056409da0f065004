// Package storage defines the key/value interface behind the two client-side
// storage scopes: a session scope that lives only as long as the process, and
// a persistent scope that survives restarts.
//
// Implementations are provided in subpackages:
//   - storage/memory: in-memory storage for the session scope and for testing
//   - storage/sqlitestore: SQLite-backed storage for the persistent scope
//   - storage/valkey: Valkey-backed storage for persistent scopes shared
//     across machines
//   - storage/mock: configurable mock for tests
package storage

import (
	"context"
	"errors"
)

// Slot names for the values the SDK persists. Each scope holds at most one
// value per slot.
const (
	// SlotAuthToken holds the encrypted bearer token.
	SlotAuthToken = "auth_token"

	// SlotProfile holds the cached account+hospital profile as a JSON blob.
	// Used as a fallback identity source when the profile endpoint is
	// unreachable.
	SlotProfile = "user_profile"

	// SlotTheme holds the UI theme preference. Stored unencrypted and only
	// in the persistent scope.
	SlotTheme = "theme"
)

// ErrNotFound is returned by Get when a slot holds no value.
var ErrNotFound = errors.New("storage: value not found")

// Store is a minimal key/value store bound to one storage scope.
// All methods accept context.Context for cancellation; in-memory
// implementations may ignore it.
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes the value stored under key. Deleting an absent key
	// is not an error.
	Delete(ctx context.Context, key string) error
}
