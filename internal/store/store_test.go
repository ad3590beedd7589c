package store

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/desertthunder/wishx/internal/shared"
)

// setupTestStorage creates an in-memory SQLite profile with migrations applied
func setupTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()

	storage, db, err := OpenProfile(":memory:")
	if err != nil {
		t.Fatalf("failed to open profile: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return storage
}

type brokenStorage struct{}

var errDiskGone = errors.New("disk gone")

func (brokenStorage) Get(string) (string, bool, error) { return "", false, errDiskGone }
func (brokenStorage) Set(string, string) error { return errDiskGone }
func (brokenStorage) Delete(string) error { return errDiskGone }
func (brokenStorage) PutIfAbsent(string, string) (string, error) { return "", errDiskGone }

// flakyStorage fails identity reads and writes while failing is set
type flakyStorage struct {
	*MemoryStorage
	failing bool
}

func (f *flakyStorage) Get(key string) (string, bool, error) {
	if f.failing {
		return "", false, errDiskGone
	}
	return f.MemoryStorage.Get(key)
}

func (f *flakyStorage) PutIfAbsent(key, value string) (string, error) {
	if f.failing {
		return "", errDiskGone
	}
	return f.MemoryStorage.PutIfAbsent(key, value)
}

func TestStorage(t *testing.T) {
	backends := map[string]func(t *testing.T) Storage{
		"SQLite": func(t *testing.T) Storage { return setupTestStorage(t) },
		"Memory": func(t *testing.T) Storage { return NewMemoryStorage() },
	}

	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			t.Run("Get Missing", func(t *testing.T) {
				s := open(t)
				if _, ok, err := s.Get("nope"); err != nil || ok {
					t.Errorf("expected missing key, got ok=%v err=%v", ok, err)
				}
			})

			t.Run("Set Overwrites", func(t *testing.T) {
				s := open(t)
				if err := s.Set("k", "one"); err != nil {
					t.Fatalf("set: %v", err)
				}
				if err := s.Set("k", "two"); err != nil {
					t.Fatalf("set: %v", err)
				}
				v, ok, err := s.Get("k")
				if err != nil || !ok || v != "two" {
					t.Errorf("expected two, got %q ok=%v err=%v", v, ok, err)
				}
			})

			t.Run("Delete Is Idempotent", func(t *testing.T) {
				s := open(t)
				s.Set("k", "v")
				if err := s.Delete("k"); err != nil {
					t.Fatalf("delete: %v", err)
				}
				if err := s.Delete("k"); err != nil {
					t.Fatalf("second delete: %v", err)
				}
				if _, ok, _ := s.Get("k"); ok {
					t.Error("expected key to be gone")
				}
			})

			t.Run("PutIfAbsent Keeps Existing", func(t *testing.T) {
				s := open(t)
				first, err := s.PutIfAbsent("k", "first")
				if err != nil || first != "first" {
					t.Fatalf("expected first, got %q (%v)", first, err)
				}
				second, err := s.PutIfAbsent("k", "second")
				if err != nil || second != "first" {
					t.Errorf("expected existing value to win, got %q (%v)", second, err)
				}
			})
		})
	}

	t.Run("SQLite Survives Reopen", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "profile.db")

		s, db, err := OpenProfile(path)
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		if err := NewTokenStore(s, nil).SetCredential("abc"); err != nil {
			t.Fatalf("set credential: %v", err)
		}
		id := NewTokenStore(s, nil).GetOrCreateAnonymousIdentity()
		db.Close()

		s, db, err = OpenProfile(path)
		if err != nil {
			t.Fatalf("reopen: %v", err)
		}
		defer db.Close()

		tokens := NewTokenStore(s, nil)
		if v, ok := tokens.GetCredential(); !ok || v != "abc" {
			t.Errorf("expected credential abc after reopen, got %q", v)
		}
		if got := tokens.GetOrCreateAnonymousIdentity(); got != id {
			t.Errorf("expected identity %s after reopen, got %s", id, got)
		}
	})
}

func TestTokenStore(t *testing.T) {
	t.Run("Credential Lifecycle", func(t *testing.T) {
		tokens := NewTokenStore(setupTestStorage(t), nil)

		if _, ok := tokens.GetCredential(); ok {
			t.Error("expected no credential on a fresh profile")
		}

		if err := tokens.SetCredential("tok-1"); err != nil {
			t.Fatalf("set: %v", err)
		}
		if err := tokens.SetCredential("tok-1"); err != nil {
			t.Fatalf("repeated set: %v", err)
		}
		if v, ok := tokens.GetCredential(); !ok || v != "tok-1" {
			t.Errorf("expected tok-1, got %q", v)
		}

		if err := tokens.ClearCredential(); err != nil {
			t.Fatalf("clear: %v", err)
		}
		if err := tokens.ClearCredential(); err != nil {
			t.Fatalf("repeated clear: %v", err)
		}
		if _, ok := tokens.GetCredential(); ok {
			t.Error("expected credential to be cleared")
		}
	})

	t.Run("Empty Credential Clears", func(t *testing.T) {
		tokens := NewTokenStore(NewMemoryStorage(), nil)
		tokens.SetCredential("tok")
		if err := tokens.SetCredential(""); err != nil {
			t.Fatalf("set empty: %v", err)
		}
		if _, ok := tokens.GetCredential(); ok {
			t.Error("expected empty credential to clear")
		}
	})

	t.Run("Unavailable Storage", func(t *testing.T) {
		for name, tokens := range map[string]*TokenStore{
			"nil":    NewTokenStore(nil, nil),
			"broken": NewTokenStore(brokenStorage{}, nil),
		} {
			t.Run(name, func(t *testing.T) {
				if _, ok := tokens.GetCredential(); ok {
					t.Error("expected absent credential")
				}
				if err := tokens.SetCredential("x"); !errors.Is(err, shared.ErrStorageUnavailable) {
					t.Errorf("expected ErrStorageUnavailable, got %v", err)
				}
				if tokens.GetOrCreateAnonymousIdentity() == "" {
					t.Error("expected a generated identity")
				}
			})
		}
	})

	t.Run("Anonymous Identity Is Stable", func(t *testing.T) {
		tokens := NewTokenStore(setupTestStorage(t), nil)

		first := tokens.GetOrCreateAnonymousIdentity()
		second := tokens.GetOrCreateAnonymousIdentity()
		if first == "" || first != second {
			t.Errorf("expected identical identities, got %q and %q", first, second)
		}
	})

	t.Run("Identity Is Stable Without Persistence", func(t *testing.T) {
		for name, tokens := range map[string]*TokenStore{
			"nil":    NewTokenStore(nil, nil),
			"broken": NewTokenStore(brokenStorage{}, nil),
		} {
			t.Run(name, func(t *testing.T) {
				first := tokens.GetOrCreateAnonymousIdentity()
				second := tokens.GetOrCreateAnonymousIdentity()
				if first == "" || first != second {
					t.Errorf("expected identical identities, got %q and %q", first, second)
				}
			})
		}
	})

	t.Run("Identity Kept After Storage Recovers", func(t *testing.T) {
		storage := &flakyStorage{MemoryStorage: NewMemoryStorage(), failing: true}
		tokens := NewTokenStore(storage, nil)

		first := tokens.GetOrCreateAnonymousIdentity()
		storage.failing = false
		storage.Set(AnonymousIdentityKey, "written-later")

		if got := tokens.GetOrCreateAnonymousIdentity(); got != first {
			t.Errorf("expected %q to be reused, got %q", first, got)
		}
	})

	t.Run("Existing Identity Wins", func(t *testing.T) {
		storage := NewMemoryStorage()
		storage.Set(AnonymousIdentityKey, "from-other-process")

		tokens := NewTokenStore(storage, nil)
		if got := tokens.GetOrCreateAnonymousIdentity(); got != "from-other-process" {
			t.Errorf("expected stored identity, got %q", got)
		}
	})

	t.Run("Concurrent Callers Share One Identity", func(t *testing.T) {
		tokens := NewTokenStore(setupTestStorage(t), nil)

		var wg sync.WaitGroup
		ids := make([]string, 8)
		for i := range ids {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				ids[i] = tokens.GetOrCreateAnonymousIdentity()
			}(i)
		}
		wg.Wait()

		for _, id := range ids[1:] {
			if id != ids[0] {
				t.Fatalf("expected one identity, got %v", ids)
			}
		}
	})

	t.Run("Identity Survives Logout", func(t *testing.T) {
		tokens := NewTokenStore(NewMemoryStorage(), nil)
		id := tokens.GetOrCreateAnonymousIdentity()
		tokens.SetCredential("tok")
		tokens.ClearCredential()
		if tokens.GetOrCreateAnonymousIdentity() != id {
			t.Error("clearing the credential must not reset the anonymous identity")
		}
	})
}
