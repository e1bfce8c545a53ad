package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/havenchat/havenchat/internal/core"
)

// AuthStore persists registered accounts. It satisfies auth.Store.
type AuthStore struct {
	db *DB
}

// NewAuthStore creates an auth store
func NewAuthStore(db *DB) *AuthStore {
	return &AuthStore{db: db}
}

// Create stores a new account, failing with core.ErrAccountExists when the
// username is taken
func (s *AuthStore) Create(ctx context.Context, a *core.Account) error {
	var exists int
	err := s.db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM auth_users WHERE username = ?`, a.Username,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check username: %w", err)
	}
	if exists > 0 {
		return core.ErrAccountExists
	}

	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	_, err = s.db.conn.ExecContext(ctx,
		`INSERT INTO auth_users (username, password_hash, identity, created_at) VALUES (?, ?, ?, ?)`,
		a.Username, a.PasswordHash, string(a.Identity), a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// ByUsername returns the account for a username, or core.ErrAccountNotFound
func (s *AuthStore) ByUsername(ctx context.Context, username string) (*core.Account, error) {
	var a core.Account
	var identity string
	err := s.db.conn.QueryRowContext(ctx,
		`SELECT username, password_hash, identity, created_at FROM auth_users WHERE username = ?`,
		username,
	).Scan(&a.Username, &a.PasswordHash, &identity, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, core.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	a.Identity = core.Identity(identity)
	return &a, nil
}
