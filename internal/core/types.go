// Package core defines the fundamental types for Haven.
package core

import (
	"time"
)

// -----------------------------------------------------------------------------
// IDENTITY - One canonical token per end user
// -----------------------------------------------------------------------------

// Identity is the canonical identifier for one end user. It is stable for the
// lifetime of the user regardless of how the caller originally presented
// itself (anonymous opaque string or authenticated account).
type Identity string

// -----------------------------------------------------------------------------
// CONVERSATION - The active message log for an identity
// -----------------------------------------------------------------------------

// ConversationID is a type-safe identifier for conversations
type ConversationID string

// Conversation groups messages for one identity. At most one conversation is
// active per identity at a time; it is created lazily on first message.
type Conversation struct {
	ID            ConversationID `json:"id"`
	Identity      Identity       `json:"identity"`
	Active        bool           `json:"active"`
	CreatedAt     time.Time      `json:"created_at"`
	LastMessageAt time.Time      `json:"last_message_at"`
}

// -----------------------------------------------------------------------------
// MESSAGE - One turn half, immutable once stored
// -----------------------------------------------------------------------------

// MessageRef is a type-safe identifier for stored messages
type MessageRef string

// Origin distinguishes who produced a message
type Origin string

const (
	OriginUser      Origin = "user"
	OriginAssistant Origin = "assistant"
)

// Message is one stored chat message. Sequence numbers are assigned at append
// time and are strictly increasing within a conversation.
type Message struct {
	ID             MessageRef     `json:"id"`
	Identity       Identity       `json:"identity"`
	ConversationID ConversationID `json:"conversation_id"`
	Content        string         `json:"content"`
	Origin         Origin         `json:"origin"`
	Sequence       int            `json:"sequence"`
	CreatedAt      time.Time      `json:"created_at"`
}

// -----------------------------------------------------------------------------
// PROFILE - Derived per-user analysis record
// -----------------------------------------------------------------------------

// DistressLevel is the analyzer's coarse assessment
type DistressLevel string

const (
	DistressLow    DistressLevel = "low"
	DistressMedium DistressLevel = "medium"
	DistressHigh   DistressLevel = "high"
)

// Profile holds the structured fields extracted from a conversation. Each
// successful analysis replaces the record wholesale; there is no field-by-field
// merge with history.
type Profile struct {
	Identity         Identity      `json:"identity"`
	Emotions         []string      `json:"emotions"`
	Concerns         []string      `json:"concerns"`
	Triggers         []string      `json:"triggers"`
	CopingStrategies []string      `json:"coping_strategies"`
	LastSummary      string        `json:"last_summary"`
	DistressLevel    DistressLevel `json:"distress_level"`
	Suggestion       string        `json:"suggestion"`

	// AnalyzedSeq is the highest message sequence number covered by the last
	// analysis. Both analysis triggers check it before re-running.
	AnalyzedSeq int       `json:"analyzed_seq"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// -----------------------------------------------------------------------------
// CRISIS EVENT - Append-only safety log
// -----------------------------------------------------------------------------

// CrisisEvent records that a user message tripped the crisis detector. The
// message itself is still stored normally; events are never mutated or deleted.
type CrisisEvent struct {
	ID         string     `json:"id"`
	Identity   Identity   `json:"identity"`
	MessageRef MessageRef `json:"message_ref"`
	Note       string     `json:"note"`
	CreatedAt  time.Time  `json:"created_at"`
}

// -----------------------------------------------------------------------------
// ACCOUNT - Authenticated credential record
// -----------------------------------------------------------------------------

// Account is a registered user with credentials. Its Identity is the same
// canonical token used for all conversation and profile storage.
type Account struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Identity     Identity  `json:"identity"`
	CreatedAt    time.Time `json:"created_at"`
}
