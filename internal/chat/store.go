// Package chat implements conversation state and the per-turn orchestrator.
package chat

import (
	"context"
	"time"

	"github.com/havenchat/havenchat/internal/core"
)

// Store is the append-only conversation log, keyed by identity. It is
// implemented by the in-process memory store and by the SQLite-backed store;
// the orchestrator treats both identically.
type Store interface {
	// EnsureConversation returns the identity's active conversation, creating
	// exactly one if none exists. Idempotent. Under concurrent first contact
	// from the same identity the get-or-create is a narrow known race.
	EnsureConversation(ctx context.Context, id core.Identity) (core.ConversationID, error)

	// Append stores a message in the identity's active conversation, creating
	// the conversation if needed, and assigns the next sequence number.
	Append(ctx context.Context, id core.Identity, content string, origin core.Origin) (core.Message, error)

	// Recent returns up to limit most recent messages of the active
	// conversation in chronological order (oldest first). Empty if none.
	Recent(ctx context.Context, id core.Identity, limit int) ([]core.Message, error)

	// TurnCount returns the number of messages stored in the identity's
	// active conversation.
	TurnCount(ctx context.Context, id core.Identity) (int, error)

	// RecordCrisis appends a crisis event referencing a stored message.
	// Events are never mutated or deleted.
	RecordCrisis(ctx context.Context, id core.Identity, ref core.MessageRef, note string) error

	// CrisisEvents returns the identity's crisis events, oldest first.
	CrisisEvents(ctx context.Context, id core.Identity) ([]core.CrisisEvent, error)

	// IdleIdentities returns identities whose active conversation last
	// received a message before the cutoff. Used by the inactivity sweep.
	IdleIdentities(ctx context.Context, cutoff time.Time) ([]core.Identity, error)
}

// ProfileReader exposes the stored profile to prompt composition
type ProfileReader interface {
	Get(ctx context.Context, id core.Identity) (*core.Profile, error)
}

// Analyzer runs a best-effort profile analysis for an identity
type Analyzer interface {
	Analyze(ctx context.Context, id core.Identity) error
}

// Completer is the external generative-language collaborator
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
