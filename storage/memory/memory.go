// Package memory provides an in-memory implementation of the storage.Store
// interface. It backs the session storage scope (values vanish when the
// process exits) and is also used as a stand-in for the persistent scope in
// tests.
package memory

import (
	"context"
	"sync"

	"github.com/shifahealth/portal-go/storage"
)

// Store is a mutex-guarded map of slot values. Safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	values map[string]string
}

// Compile-time interface check
var _ storage.Store = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{values: make(map[string]string)}
}

// Get returns the value stored under key, or storage.ErrNotFound.
func (s *Store) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return v, nil
}

// Set stores value under key, replacing any previous value.
func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	return nil
}

// Delete removes the value stored under key. Absent keys are ignored.
func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)
	return nil
}

// Len returns the number of populated slots. Used by tests and stats.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.values)
}
