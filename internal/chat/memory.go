package chat

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/havenchat/havenchat/internal/core"
)

// MemoryStore is the transient in-process Store. Each identity gets one
// implicit active conversation. Concurrent turns for different identities do
// not interfere; interleaved turns for the same identity are not ordered
// beyond the lock on each individual call.
type MemoryStore struct {
	mu            sync.RWMutex
	conversations map[core.Identity]*memoryConversation
	crises        map[core.Identity][]core.CrisisEvent
}

type memoryConversation struct {
	id            core.ConversationID
	messages      []core.Message
	lastMessageAt time.Time
	createdAt     time.Time
}

// NewMemoryStore creates an empty in-process store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		conversations: make(map[core.Identity]*memoryConversation),
		crises:        make(map[core.Identity][]core.CrisisEvent),
	}
}

// EnsureConversation returns the identity's conversation, creating it if needed
func (s *MemoryStore) EnsureConversation(ctx context.Context, id core.Identity) (core.ConversationID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureLocked(id).id, nil
}

func (s *MemoryStore) ensureLocked(id core.Identity) *memoryConversation {
	conv, ok := s.conversations[id]
	if !ok {
		conv = &memoryConversation{
			id:        core.ConversationID(uuid.New().String()),
			createdAt: time.Now().UTC(),
		}
		s.conversations[id] = conv
	}
	return conv
}

// Append stores a message and assigns the next sequence number
func (s *MemoryStore) Append(ctx context.Context, id core.Identity, content string, origin core.Origin) (core.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv := s.ensureLocked(id)
	now := time.Now().UTC()

	msg := core.Message{
		ID:             core.MessageRef(uuid.New().String()),
		Identity:       id,
		ConversationID: conv.id,
		Content:        content,
		Origin:         origin,
		Sequence:       len(conv.messages) + 1,
		CreatedAt:      now,
	}

	conv.messages = append(conv.messages, msg)
	conv.lastMessageAt = now

	return msg, nil
}

// Recent returns up to limit most recent messages, oldest first
func (s *MemoryStore) Recent(ctx context.Context, id core.Identity, limit int) ([]core.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[id]
	if !ok || limit <= 0 {
		return nil, nil
	}

	msgs := conv.messages
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}

	out := make([]core.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

// TurnCount returns the stored message count for the identity
func (s *MemoryStore) TurnCount(ctx context.Context, id core.Identity) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[id]
	if !ok {
		return 0, nil
	}
	return len(conv.messages), nil
}

// RecordCrisis appends a crisis event
func (s *MemoryStore) RecordCrisis(ctx context.Context, id core.Identity, ref core.MessageRef, note string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.crises[id] = append(s.crises[id], core.CrisisEvent{
		ID:         uuid.New().String(),
		Identity:   id,
		MessageRef: ref,
		Note:       note,
		CreatedAt:  time.Now().UTC(),
	})
	return nil
}

// CrisisEvents returns the identity's crisis events, oldest first
func (s *MemoryStore) CrisisEvents(ctx context.Context, id core.Identity) ([]core.CrisisEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := s.crises[id]
	out := make([]core.CrisisEvent, len(events))
	copy(out, events)
	return out, nil
}

// IdleIdentities returns identities idle since before the cutoff
func (s *MemoryStore) IdleIdentities(ctx context.Context, cutoff time.Time) ([]core.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var idle []core.Identity
	for id, conv := range s.conversations {
		if len(conv.messages) > 0 && conv.lastMessageAt.Before(cutoff) {
			idle = append(idle, id)
		}
	}
	return idle, nil
}
