package auth

import (
	"context"
	"sync"

	"github.com/havenchat/havenchat/internal/core"
)

// MemoryStore keeps accounts in process memory. Used for tests and the
// in-memory server mode.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[string]core.Account
}

// NewMemoryStore creates an empty in-memory account store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{accounts: make(map[string]core.Account)}
}

func (s *MemoryStore) Create(ctx context.Context, a *core.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[a.Username]; ok {
		return core.ErrAccountExists
	}
	s.accounts[a.Username] = *a
	return nil
}

func (s *MemoryStore) ByUsername(ctx context.Context, username string) (*core.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[username]
	if !ok {
		return nil, core.ErrAccountNotFound
	}
	return &a, nil
}
