package sqlitestore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shifahealth/portal-go/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if _, err := s.Get(ctx, storage.SlotAuthToken); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Get() on empty store error = %v, want ErrNotFound", err)
	}

	if err := s.Set(ctx, storage.SlotAuthToken, "ciphertext"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, err := s.Get(ctx, storage.SlotAuthToken)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != "ciphertext" {
		t.Errorf("Get() = %q, want %q", got, "ciphertext")
	}

	// Upsert replaces the previous value.
	if err := s.Set(ctx, storage.SlotAuthToken, "replaced"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if got, _ := s.Get(ctx, storage.SlotAuthToken); got != "replaced" {
		t.Errorf("Get() after overwrite = %q, want %q", got, "replaced")
	}

	if err := s.Delete(ctx, storage.SlotAuthToken); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Get(ctx, storage.SlotAuthToken); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Get() after Delete() error = %v, want ErrNotFound", err)
	}

	if err := s.Delete(ctx, "absent"); err != nil {
		t.Errorf("Delete() on absent key error = %v", err)
	}
}

func TestStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "portal.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := s.Set(ctx, storage.SlotTheme, "dark"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("Open() after close error = %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get(ctx, storage.SlotTheme)
	if err != nil {
		t.Fatalf("Get() after reopen error = %v", err)
	}
	if got != "dark" {
		t.Errorf("Get() after reopen = %q, want %q", got, "dark")
	}
}

func TestStore_IndependentSlots(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.Set(ctx, storage.SlotAuthToken, "token")
	s.Set(ctx, storage.SlotProfile, "profile")

	if err := s.Delete(ctx, storage.SlotAuthToken); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if got, err := s.Get(ctx, storage.SlotProfile); err != nil || got != "profile" {
		t.Errorf("Get() = %q, %v, want %q, nil", got, err, "profile")
	}
}
