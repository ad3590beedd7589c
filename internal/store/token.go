package store

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/wishx/internal/shared"
)

// Storage keys for the two persisted client values.
const (
	CredentialKey        = "token"
	AnonymousIdentityKey = "anonymous_token"
)

// TokenStore is the single source of truth for the session credential and the
// anonymous identity of a profile.
//
// Reads never fail: an unavailable storage reports the credential as absent.
type TokenStore struct {
	storage Storage
	logger  *log.Logger

	// guards the lazy create of the anonymous identity
	mu        sync.Mutex
	anonymous string
}

// NewTokenStore creates a [TokenStore] over storage. A nil storage behaves like
// one that is unavailable.
func NewTokenStore(storage Storage, logger *log.Logger) *TokenStore {
	return &TokenStore{storage: storage, logger: shared.WithLogger(logger, "component", "store")}
}

// GetCredential returns the session credential if one is stored.
func (t *TokenStore) GetCredential() (string, bool) {
	if t == nil || t.storage == nil {
		return "", false
	}

	v, ok, err := t.storage.Get(CredentialKey)
	if err != nil {
		t.logger.Debug("credential read failed", "error", err)
		return "", false
	}
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// SetCredential replaces the stored credential.
func (t *TokenStore) SetCredential(value string) error {
	if t.storage == nil {
		return shared.ErrStorageUnavailable
	}
	if value == "" {
		return t.ClearCredential()
	}
	if err := t.storage.Set(CredentialKey, value); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrStorageUnavailable, err)
	}
	return nil
}

// ClearCredential removes the stored credential; clearing twice is a no-op.
func (t *TokenStore) ClearCredential() error {
	if t.storage == nil {
		return nil
	}
	if err := t.storage.Delete(CredentialKey); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrStorageUnavailable, err)
	}
	return nil
}

// GetOrCreateAnonymousIdentity returns the profile's anonymous identity, generating
// and persisting one on first use.
//
// A value already in storage always wins over a freshly generated one. Once
// resolved the identity is kept for the life of the store, so it stays the same
// even when storage is missing or failing and the value could not be persisted.
func (t *TokenStore) GetOrCreateAnonymousIdentity() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.anonymous != "" {
		return t.anonymous
	}
	t.anonymous = t.resolveAnonymousIdentity()
	return t.anonymous
}

func (t *TokenStore) resolveAnonymousIdentity() string {
	if t.storage == nil {
		return shared.GenerateID()
	}

	v, ok, err := t.storage.Get(AnonymousIdentityKey)
	if err == nil && ok && v != "" {
		return v
	}
	if err != nil {
		t.logger.Debug("anonymous identity read failed", "error", err)
	}

	candidate := shared.GenerateID()
	stored, err := t.storage.PutIfAbsent(AnonymousIdentityKey, candidate)
	if err != nil || stored == "" {
		t.logger.Warn("anonymous identity not persisted", "error", err)
		return candidate
	}

	if stored == candidate {
		t.logger.Debug("created anonymous identity")
	}
	return stored
}
