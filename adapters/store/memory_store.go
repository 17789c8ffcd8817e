package store

import (
	"context"
	"sync"

	"github.com/shelby2770/testsso/ports"
)

// MemoryStore is an in-memory implementation of the TokenStore interface,
// primarily intended for testing.
type MemoryStore struct {
	mu    sync.RWMutex
	token string
	set   bool
}

// NewMemoryStore creates a new in-memory token store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

var _ ports.TokenStore = (*MemoryStore)(nil)

// Save stores the token.
func (s *MemoryStore) Save(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.set = true
	return nil
}

// Load retrieves the stored token.
func (s *MemoryStore) Load(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.set {
		return "", ports.ErrNoToken
	}
	return s.token, nil
}

// Clear removes the stored token. Clearing an empty store is a no-op.
func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.set = false
	return nil
}
