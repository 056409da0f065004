package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shifahealth/portal-go/storage"
)

func TestStore_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	s := New()

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

	// Deleting an absent key is not an error.
	if err := s.Delete(ctx, "absent"); err != nil {
		t.Errorf("Delete() on absent key error = %v", err)
	}
}

func TestStore_Len(t *testing.T) {
	ctx := context.Background()
	s := New()

	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}

	s.Set(ctx, storage.SlotAuthToken, "a")
	s.Set(ctx, storage.SlotProfile, "b")
	s.Set(ctx, storage.SlotAuthToken, "c") // overwrite, not a new slot

	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	s := New()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.Set(ctx, storage.SlotTheme, "dark")
				s.Get(ctx, storage.SlotTheme)
				s.Delete(ctx, storage.SlotTheme)
			}
		}()
	}
	wg.Wait()
}
