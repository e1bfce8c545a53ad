package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/havenchat/havenchat/internal/core"
)

// ConversationStore persists conversations, messages and crisis events.
// It satisfies the chat.Store interface.
type ConversationStore struct {
	db *DB
}

// NewConversationStore creates a conversation store
func NewConversationStore(db *DB) *ConversationStore {
	return &ConversationStore{db: db}
}

// EnsureConversation returns the identity's active conversation, creating one
// if none exists. Concurrent first contact from the same identity can create
// two conversations; SetMaxOpenConns(1) keeps the window negligible.
func (s *ConversationStore) EnsureConversation(ctx context.Context, id core.Identity) (core.ConversationID, error) {
	var convID string
	err := s.db.conn.QueryRowContext(ctx,
		`SELECT id FROM conversations WHERE identity = ? AND active = 1`,
		string(id),
	).Scan(&convID)
	if err == nil {
		return core.ConversationID(convID), nil
	}
	if err != sql.ErrNoRows {
		return "", fmt.Errorf("failed to load conversation: %w", err)
	}

	now := time.Now().UTC()
	if _, err := s.db.conn.ExecContext(ctx,
		`INSERT OR IGNORE INTO users (identity, created_at) VALUES (?, ?)`,
		string(id), now,
	); err != nil {
		return "", fmt.Errorf("failed to ensure user: %w", err)
	}

	convID = uuid.New().String()
	if _, err := s.db.conn.ExecContext(ctx,
		`INSERT INTO conversations (id, identity, active, created_at) VALUES (?, ?, 1, ?)`,
		convID, string(id), now,
	); err != nil {
		return "", fmt.Errorf("failed to create conversation: %w", err)
	}

	return core.ConversationID(convID), nil
}

// Append stores a message and links it to the active conversation with the
// next sequence number.
func (s *ConversationStore) Append(ctx context.Context, id core.Identity, content string, origin core.Origin) (core.Message, error) {
	convID, err := s.EnsureConversation(ctx, id)
	if err != nil {
		return core.Message{}, err
	}

	msg := core.Message{
		ID:             core.MessageRef(uuid.New().String()),
		Identity:       id,
		ConversationID: convID,
		Content:        content,
		Origin:         origin,
		CreatedAt:      time.Now().UTC(),
	}

	err = s.db.Transaction(func(tx *sql.Tx) error {
		isBot := 0
		if origin == core.OriginAssistant {
			isBot = 1
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO messages (id, identity, content, is_bot, created_at) VALUES (?, ?, ?, ?, ?)`,
			string(msg.ID), string(id), content, isBot, msg.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}

		var seq int
		if err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(sequence_num), 0) + 1 FROM conversation_messages WHERE conversation_id = ?`,
			string(convID),
		).Scan(&seq); err != nil {
			return fmt.Errorf("failed to assign sequence: %w", err)
		}
		msg.Sequence = seq

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO conversation_messages (conversation_id, message_id, sequence_num) VALUES (?, ?, ?)`,
			string(convID), string(msg.ID), seq,
		); err != nil {
			return fmt.Errorf("failed to link message: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE conversations SET last_message_at = ? WHERE id = ?`,
			msg.CreatedAt, string(convID),
		); err != nil {
			return fmt.Errorf("failed to touch conversation: %w", err)
		}

		return nil
	})
	if err != nil {
		return core.Message{}, err
	}

	return msg, nil
}

// Recent returns up to limit most recent messages, oldest first
func (s *ConversationStore) Recent(ctx context.Context, id core.Identity, limit int) ([]core.Message, error) {
	rows, err := s.db.conn.QueryContext(ctx, `
		SELECT m.id, cm.conversation_id, m.content, m.is_bot, cm.sequence_num, m.created_at
		FROM conversation_messages cm
		JOIN messages m ON m.id = cm.message_id
		JOIN conversations c ON c.id = cm.conversation_id
		WHERE c.identity = ? AND c.active = 1
		ORDER BY cm.sequence_num DESC
		LIMIT ?`,
		string(id), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var msgs []core.Message
	for rows.Next() {
		var m core.Message
		var isBot int
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Content, &isBot, &m.Sequence, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		m.Identity = id
		m.Origin = core.OriginUser
		if isBot == 1 {
			m.Origin = core.OriginAssistant
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Query is newest-first for the LIMIT; callers expect oldest-first
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}

	return msgs, nil
}

// TurnCount returns the number of messages in the active conversation
func (s *ConversationStore) TurnCount(ctx context.Context, id core.Identity) (int, error) {
	var count int
	err := s.db.conn.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM conversation_messages cm
		JOIN conversations c ON c.id = cm.conversation_id
		WHERE c.identity = ? AND c.active = 1`,
		string(id),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return count, nil
}

// RecordCrisis appends a crisis event referencing a stored message
func (s *ConversationStore) RecordCrisis(ctx context.Context, id core.Identity, ref core.MessageRef, note string) error {
	_, err := s.db.conn.ExecContext(ctx,
		`INSERT INTO crisis_events (id, identity, message_id, note, created_at) VALUES (?, ?, ?, ?, ?)`,
		uuid.New().String(), string(id), string(ref), note, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record crisis event: %w", err)
	}
	return nil
}

// CrisisEvents returns the identity's crisis events, oldest first
func (s *ConversationStore) CrisisEvents(ctx context.Context, id core.Identity) ([]core.CrisisEvent, error) {
	rows, err := s.db.conn.QueryContext(ctx,
		`SELECT id, message_id, note, created_at FROM crisis_events WHERE identity = ? ORDER BY created_at, id`,
		string(id),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query crisis events: %w", err)
	}
	defer rows.Close()

	var events []core.CrisisEvent
	for rows.Next() {
		var e core.CrisisEvent
		var ref sql.NullString
		if err := rows.Scan(&e.ID, &ref, &e.Note, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan crisis event: %w", err)
		}
		e.Identity = id
		e.MessageRef = core.MessageRef(ref.String)
		events = append(events, e)
	}

	return events, rows.Err()
}

// IdleIdentities returns identities whose active conversation last received a
// message before the cutoff
func (s *ConversationStore) IdleIdentities(ctx context.Context, cutoff time.Time) ([]core.Identity, error) {
	rows, err := s.db.conn.QueryContext(ctx, `
		SELECT identity FROM conversations
		WHERE active = 1 AND last_message_at IS NOT NULL AND last_message_at < ?`,
		cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query idle conversations: %w", err)
	}
	defer rows.Close()

	var ids []core.Identity
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan identity: %w", err)
		}
		ids = append(ids, core.Identity(id))
	}

	return ids, rows.Err()
}
