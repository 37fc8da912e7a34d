package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/gymcrm-auth/internal/core/ports/driven"
)

var _ driven.RevocationStore = (*MockRevocationStore)(nil)

// MockRevocationStore is a map-backed RevocationStore without sweeping
type MockRevocationStore struct {
	mu      sync.RWMutex
	entries map[string]time.Time

	// Err, when set, is returned by every call
	Err error
}

// NewMockRevocationStore creates a new MockRevocationStore
func NewMockRevocationStore() *MockRevocationStore {
	return &MockRevocationStore{
		entries: make(map[string]time.Time),
	}
}

func (m *MockRevocationStore) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[tokenID] = expiresAt
	return nil
}

func (m *MockRevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if m.Err != nil {
		return false, m.Err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	exp, ok := m.entries[tokenID]
	return ok && exp.After(time.Now()), nil
}

// ExpiresAt returns the stored expiry for tokenID
func (m *MockRevocationStore) ExpiresAt(tokenID string) (time.Time, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	exp, ok := m.entries[tokenID]
	return exp, ok
}

func (m *MockRevocationStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
