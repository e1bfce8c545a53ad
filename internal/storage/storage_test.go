package storage

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/havenchat/havenchat/internal/core"
)

func testDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(Config{InMemory: true})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return db
}

func TestMigrateIdempotent(t *testing.T) {
	db := testDB(t)
	if err := db.Migrate(); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}
}

func TestEnsureConversation(t *testing.T) {
	ctx := context.Background()
	store := NewConversationStore(testDB(t))

	id := core.Identity("someone")
	first, err := store.EnsureConversation(ctx, id)
	if err != nil {
		t.Fatalf("EnsureConversation() error = %v", err)
	}
	second, err := store.EnsureConversation(ctx, id)
	if err != nil {
		t.Fatalf("EnsureConversation() error = %v", err)
	}
	if first != second {
		t.Errorf("EnsureConversation() not idempotent: %s vs %s", first, second)
	}

	other, err := store.EnsureConversation(ctx, core.Identity("someone-else"))
	if err != nil {
		t.Fatalf("EnsureConversation() error = %v", err)
	}
	if other == first {
		t.Error("distinct identities should get distinct conversations")
	}
}

func TestAppendAssignsSequence(t *testing.T) {
	ctx := context.Background()
	store := NewConversationStore(testDB(t))
	id := core.Identity("seq")

	for i := 1; i <= 5; i++ {
		origin := core.OriginUser
		if i%2 == 0 {
			origin = core.OriginAssistant
		}
		msg, err := store.Append(ctx, id, fmt.Sprintf("message %d", i), origin)
		if err != nil {
			t.Fatalf("Append() error = %v", err)
		}
		if msg.Sequence != i {
			t.Errorf("sequence = %d, want %d", msg.Sequence, i)
		}
		if msg.ID == "" || msg.ConversationID == "" {
			t.Error("Append() should assign message and conversation ids")
		}
	}
}

func TestRecentWindow(t *testing.T) {
	ctx := context.Background()
	store := NewConversationStore(testDB(t))
	id := core.Identity("windowed")

	for i := 1; i <= 15; i++ {
		if _, err := store.Append(ctx, id, fmt.Sprintf("m%d", i), core.OriginUser); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	msgs, err := store.Recent(ctx, id, 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(msgs) != 10 {
		t.Fatalf("Recent() = %d messages, want 10", len(msgs))
	}
	if msgs[0].Content != "m6" || msgs[9].Content != "m15" {
		t.Errorf("Recent() window = [%s..%s], want [m6..m15]", msgs[0].Content, msgs[9].Content)
	}
	for i := 1; i < len(msgs); i++ {
		if msgs[i].Sequence <= msgs[i-1].Sequence {
			t.Fatal("Recent() should be ordered oldest first")
		}
	}
}

func TestRecentEmpty(t *testing.T) {
	store := NewConversationStore(testDB(t))

	msgs, err := store.Recent(context.Background(), core.Identity("nobody"), 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("Recent() = %d messages for unknown identity, want 0", len(msgs))
	}
}

func TestRecentPreservesOrigin(t *testing.T) {
	ctx := context.Background()
	store := NewConversationStore(testDB(t))
	id := core.Identity("origins")

	store.Append(ctx, id, "hi", core.OriginUser)
	store.Append(ctx, id, "hello", core.OriginAssistant)

	msgs, err := store.Recent(ctx, id, 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if msgs[0].Origin != core.OriginUser || msgs[1].Origin != core.OriginAssistant {
		t.Errorf("origins = %s, %s", msgs[0].Origin, msgs[1].Origin)
	}
}

func TestTurnCount(t *testing.T) {
	ctx := context.Background()
	store := NewConversationStore(testDB(t))
	id := core.Identity("counted")

	if n, _ := store.TurnCount(ctx, id); n != 0 {
		t.Errorf("TurnCount() = %d before any message, want 0", n)
	}

	store.Append(ctx, id, "one", core.OriginUser)
	store.Append(ctx, id, "two", core.OriginAssistant)
	store.Append(ctx, id, "three", core.OriginUser)

	n, err := store.TurnCount(ctx, id)
	if err != nil {
		t.Fatalf("TurnCount() error = %v", err)
	}
	if n != 3 {
		t.Errorf("TurnCount() = %d, want 3", n)
	}
}

func TestCrisisEvents(t *testing.T) {
	ctx := context.Background()
	store := NewConversationStore(testDB(t))
	id := core.Identity("at-risk")

	msg, err := store.Append(ctx, id, "worrying message", core.OriginUser)
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := store.RecordCrisis(ctx, id, msg.ID, "crisis keyword detected"); err != nil {
		t.Fatalf("RecordCrisis() error = %v", err)
	}

	events, err := store.CrisisEvents(ctx, id)
	if err != nil {
		t.Fatalf("CrisisEvents() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("CrisisEvents() = %d, want 1", len(events))
	}
	if events[0].MessageRef != msg.ID {
		t.Errorf("event ref = %s, want %s", events[0].MessageRef, msg.ID)
	}
	if events[0].Note != "crisis keyword detected" {
		t.Errorf("event note = %q", events[0].Note)
	}

	other, _ := store.CrisisEvents(ctx, core.Identity("calm"))
	if len(other) != 0 {
		t.Errorf("CrisisEvents() = %d for other identity, want 0", len(other))
	}
}

func TestIdleIdentities(t *testing.T) {
	ctx := context.Background()
	store := NewConversationStore(testDB(t))

	store.Append(ctx, core.Identity("quiet"), "hello", core.OriginUser)

	ids, err := store.IdleIdentities(ctx, time.Now().UTC().Add(time.Hour))
	if err != nil {
		t.Fatalf("IdleIdentities() error = %v", err)
	}
	if len(ids) != 1 || ids[0] != core.Identity("quiet") {
		t.Errorf("IdleIdentities() = %v, want [quiet]", ids)
	}

	ids, err = store.IdleIdentities(ctx, time.Now().UTC().Add(-time.Hour))
	if err != nil {
		t.Fatalf("IdleIdentities() error = %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("IdleIdentities() = %v with past cutoff, want none", ids)
	}
}

func TestProfileRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewProfileStore(testDB(t))
	id := core.Identity("profiled")

	if _, err := store.Get(ctx, id); !errors.Is(err, core.ErrProfileNotFound) {
		t.Fatalf("Get() error = %v, want ErrProfileNotFound", err)
	}

	p := &core.Profile{
		Identity:         id,
		Emotions:         []string{"anxiety", "hope"},
		Concerns:         []string{"work"},
		Triggers:         []string{"deadlines"},
		CopingStrategies: []string{"walking"},
		LastSummary:      "User is stressed about work but coping.",
		DistressLevel:    core.DistressMedium,
		Suggestion:       "Ask about the walking routine.",
		AnalyzedSeq:      10,
		UpdatedAt:        time.Now().UTC(),
	}
	if err := store.Put(ctx, p); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := store.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.DistressLevel != core.DistressMedium || got.AnalyzedSeq != 10 {
		t.Errorf("Get() = distress %s seq %d", got.DistressLevel, got.AnalyzedSeq)
	}
	if len(got.Emotions) != 2 || got.Emotions[0] != "anxiety" {
		t.Errorf("emotions = %v", got.Emotions)
	}
	if got.LastSummary != p.LastSummary {
		t.Errorf("summary = %q", got.LastSummary)
	}
}

func TestProfilePutReplacesWholesale(t *testing.T) {
	ctx := context.Background()
	store := NewProfileStore(testDB(t))
	id := core.Identity("replaced")

	store.Put(ctx, &core.Profile{
		Identity:      id,
		Emotions:      []string{"sadness"},
		Concerns:      []string{"family", "health"},
		DistressLevel: core.DistressHigh,
		AnalyzedSeq:   4,
		UpdatedAt:     time.Now().UTC(),
	})
	store.Put(ctx, &core.Profile{
		Identity:      id,
		Emotions:      []string{"calm"},
		DistressLevel: core.DistressLow,
		AnalyzedSeq:   12,
		UpdatedAt:     time.Now().UTC(),
	})

	got, err := store.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.DistressLevel != core.DistressLow || got.AnalyzedSeq != 12 {
		t.Errorf("Get() = distress %s seq %d, want low/12", got.DistressLevel, got.AnalyzedSeq)
	}
	if len(got.Concerns) != 0 {
		t.Errorf("concerns = %v, old fields should not survive a replace", got.Concerns)
	}
}

func TestAuthStore(t *testing.T) {
	ctx := context.Background()
	store := NewAuthStore(testDB(t))

	a := &core.Account{
		Username:     "casey",
		PasswordHash: "$2a$10$fakehashfakehashfakehash",
		Identity:     core.Identity("11111111-2222-3333-4444-555555555555"),
	}
	if err := store.Create(ctx, a); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := store.Create(ctx, a); !errors.Is(err, core.ErrAccountExists) {
		t.Errorf("Create() duplicate error = %v, want ErrAccountExists", err)
	}

	got, err := store.ByUsername(ctx, "casey")
	if err != nil {
		t.Fatalf("ByUsername() error = %v", err)
	}
	if got.Identity != a.Identity || got.PasswordHash != a.PasswordHash {
		t.Error("ByUsername() should return the stored account")
	}

	if _, err := store.ByUsername(ctx, "nobody"); !errors.Is(err, core.ErrAccountNotFound) {
		t.Errorf("ByUsername() error = %v, want ErrAccountNotFound", err)
	}
}
