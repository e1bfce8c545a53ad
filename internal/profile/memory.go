package profile

import (
	"context"
	"sync"

	"github.com/havenchat/havenchat/internal/core"
)

// MemoryStore is the transient in-process profile store
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[core.Identity]core.Profile
}

// NewMemoryStore creates an empty in-process profile store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{profiles: make(map[core.Identity]core.Profile)}
}

// Get returns the identity's profile or core.ErrProfileNotFound
func (s *MemoryStore) Get(ctx context.Context, id core.Identity) (*core.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[id]
	if !ok {
		return nil, core.ErrProfileNotFound
	}
	out := p
	return &out, nil
}

// Put replaces the identity's profile wholesale
func (s *MemoryStore) Put(ctx context.Context, p *core.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.profiles[p.Identity] = *p
	return nil
}
