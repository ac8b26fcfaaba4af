// Package store defines the persistence boundary for per-user credential
// records. Records are opaque byte blobs to the store; the protocol layer
// owns their layout.
package store

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned by GetRecord when no record exists for the
// username. Callers serving logins must not surface this distinction to the
// network peer.
var ErrNotFound = errors.New("credential record not found")

// CredentialStore persists credential records keyed by username.
// Implementations must be safe for concurrent use.
type CredentialStore interface {
	// GetRecord returns the record stored for username, or ErrNotFound.
	GetRecord(ctx context.Context, username string) ([]byte, error)

	// PutRecord stores record under username, replacing any previous one.
	PutRecord(ctx context.Context, username string, record []byte) error
}

// MemStore is an in-memory CredentialStore, for tests and single-process
// deployments.
type MemStore struct {
	mu      sync.RWMutex
	records map[string][]byte
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{records: make(map[string][]byte)}
}

// GetRecord implements CredentialStore.
func (m *MemStore) GetRecord(_ context.Context, username string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.records[username]
	if !ok {
		return nil, ErrNotFound
	}

	out := make([]byte, len(record))
	copy(out, record)

	return out, nil
}

// PutRecord implements CredentialStore.
func (m *MemStore) PutRecord(_ context.Context, username string, record []byte) error {
	stored := make([]byte, len(record))
	copy(stored, record)

	m.mu.Lock()
	m.records[username] = stored
	m.mu.Unlock()

	return nil
}
