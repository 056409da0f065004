// Package mock provides a mock implementation of the storage.Store
// interface for testing.
package mock

import (
	"context"
	"sync"

	"github.com/shifahealth/portal-go/storage"
)

// Store is a mock storage.Store. The default behavior is an in-memory map;
// individual operations can be overridden through the *Func fields to
// inject failures, and CallCounts records how often each operation ran.
type Store struct {
	mu     sync.RWMutex
	values map[string]string

	GetFunc    func(ctx context.Context, key string) (string, error)
	SetFunc    func(ctx context.Context, key, value string) error
	DeleteFunc func(ctx context.Context, key string) error

	CallCounts map[string]int
}

var _ storage.Store = (*Store)(nil)

// New creates a new mock store with working in-memory defaults.
func New() *Store {
	m := &Store{
		values:     make(map[string]string),
		CallCounts: make(map[string]int),
	}

	m.GetFunc = func(_ context.Context, key string) (string, error) {
		m.mu.RLock()
		defer m.mu.RUnlock()
		v, ok := m.values[key]
		if !ok {
			return "", storage.ErrNotFound
		}
		return v, nil
	}

	m.SetFunc = func(_ context.Context, key, value string) error {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.values[key] = value
		return nil
	}

	m.DeleteFunc = func(_ context.Context, key string) error {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.values, key)
		return nil
	}

	return m
}

// Get retrieves the value stored under key.
func (m *Store) Get(ctx context.Context, key string) (string, error) {
	m.CallCounts["Get"]++
	return m.GetFunc(ctx, key)
}

// Set stores value under key.
func (m *Store) Set(ctx context.Context, key, value string) error {
	m.CallCounts["Set"]++
	return m.SetFunc(ctx, key, value)
}

// Delete removes the value stored under key.
func (m *Store) Delete(ctx context.Context, key string) error {
	m.CallCounts["Delete"]++
	return m.DeleteFunc(ctx, key)
}

// ResetCallCounts resets all call counters.
func (m *Store) ResetCallCounts() {
	m.CallCounts = make(map[string]int)
}
