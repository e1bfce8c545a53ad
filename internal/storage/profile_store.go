package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/havenchat/havenchat/internal/core"
)

// ProfileStore persists derived user profiles. It satisfies profile.Store.
type ProfileStore struct {
	db *DB
}

// NewProfileStore creates a profile store
func NewProfileStore(db *DB) *ProfileStore {
	return &ProfileStore{db: db}
}

// Get returns the identity's profile, or core.ErrProfileNotFound
func (s *ProfileStore) Get(ctx context.Context, id core.Identity) (*core.Profile, error) {
	var p core.Profile
	var emotions, concerns, triggers, coping string
	var summary, distress, suggestion sql.NullString

	err := s.db.conn.QueryRowContext(ctx, `
		SELECT emotions, concerns, triggers, coping_strategies,
		       last_summary, distress_level, suggestion, analyzed_seq, updated_at
		FROM profiles WHERE identity = ?`,
		string(id),
	).Scan(&emotions, &concerns, &triggers, &coping,
		&summary, &distress, &suggestion, &p.AnalyzedSeq, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, core.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	p.Identity = id
	p.LastSummary = summary.String
	p.DistressLevel = core.DistressLevel(distress.String)
	p.Suggestion = suggestion.String

	for _, col := range []struct {
		raw  string
		dest *[]string
	}{
		{emotions, &p.Emotions},
		{concerns, &p.Concerns},
		{triggers, &p.Triggers},
		{coping, &p.CopingStrategies},
	} {
		if err := json.Unmarshal([]byte(col.raw), col.dest); err != nil {
			return nil, fmt.Errorf("failed to decode profile lists: %w", err)
		}
	}

	return &p, nil
}

// Put replaces the identity's profile wholesale
func (s *ProfileStore) Put(ctx context.Context, p *core.Profile) error {
	cols := make([]string, 0, 4)
	for _, items := range [][]string{p.Emotions, p.Concerns, p.Triggers, p.CopingStrategies} {
		if items == nil {
			items = []string{}
		}
		b, err := json.Marshal(items)
		if err != nil {
			return fmt.Errorf("failed to encode profile lists: %w", err)
		}
		cols = append(cols, string(b))
	}

	_, err := s.db.conn.ExecContext(ctx, `
		INSERT INTO profiles (identity, emotions, concerns, triggers, coping_strategies,
		                      last_summary, distress_level, suggestion, analyzed_seq, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(identity) DO UPDATE SET
			emotions          = excluded.emotions,
			concerns          = excluded.concerns,
			triggers          = excluded.triggers,
			coping_strategies = excluded.coping_strategies,
			last_summary      = excluded.last_summary,
			distress_level    = excluded.distress_level,
			suggestion        = excluded.suggestion,
			analyzed_seq      = excluded.analyzed_seq,
			updated_at        = excluded.updated_at`,
		string(p.Identity), cols[0], cols[1], cols[2], cols[3],
		p.LastSummary, string(p.DistressLevel), p.Suggestion, p.AnalyzedSeq, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}
