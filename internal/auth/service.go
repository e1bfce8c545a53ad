// Package auth implements account registration and session tokens.
package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/havenchat/havenchat/internal/core"
	"github.com/havenchat/havenchat/internal/identity"
	"github.com/havenchat/havenchat/internal/logging"
)

// Store persists accounts. Create fails with core.ErrAccountExists for a
// taken username; ByUsername fails with core.ErrAccountNotFound.
type Store interface {
	Create(ctx context.Context, a *core.Account) error
	ByUsername(ctx context.Context, username string) (*core.Account, error)
}

// Service handles registration, login and token validation
type Service struct {
	store    Store
	secret   []byte
	tokenTTL time.Duration
	log      *logging.Logger
}

// NewService creates an auth service
func NewService(store Store, secret string, tokenTTL time.Duration) *Service {
	if tokenTTL == 0 {
		tokenTTL = 24 * 30 * time.Hour
	}
	return &Service{
		store:    store,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		log:      logging.WithField("component", "auth"),
	}
}

// Register creates an account. The account's identity is derived
// deterministically from the username, so conversations started before and
// after a re-registration land on the same canonical identity.
func (s *Service) Register(ctx context.Context, username, password string) (*core.Account, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, core.ErrMissingRequired
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	a := &core.Account{
		Username:     username,
		PasswordHash: string(hash),
		Identity:     identity.Normalize(username),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.Create(ctx, a); err != nil {
		return nil, err
	}

	s.log.Info("registered account %s", username)
	return a, nil
}

// Login verifies credentials and issues a session token
func (s *Service) Login(ctx context.Context, username, password string) (string, *core.Account, error) {
	a, err := s.store.ByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if err == core.ErrAccountNotFound {
			return "", nil, core.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)); err != nil {
		return "", nil, core.ErrInvalidCredentials
	}

	token, err := s.issueToken(a)
	if err != nil {
		return "", nil, err
	}
	return token, a, nil
}

func (s *Service) issueToken(a *core.Account) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub":      string(a.Identity),
		"username": a.Username,
		"iat":      now.Unix(),
		"exp":      now.Add(s.tokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Validate checks a session token and returns the identity it carries
func (s *Service) Validate(tokenString string) (core.Identity, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return "", core.ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", core.ErrInvalidToken
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", core.ErrInvalidToken
	}

	return core.Identity(sub), nil
}
