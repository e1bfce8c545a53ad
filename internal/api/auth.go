package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/havenchat/havenchat/internal/core"
)

type contextKey string

const sessionIdentityKey contextKey = "session-identity"

// sessionIdentity extracts a Bearer token, validates it, and stashes the
// session's identity in the request context. Requests without a token pass
// through untouched; an invalid token is rejected outright.
func (s *Server) sessionIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.auth == nil {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}

		token := strings.TrimPrefix(header, "Bearer ")
		if token == header {
			s.respondError(w, http.StatusUnauthorized, "malformed authorization header")
			return
		}

		id, err := s.auth.Validate(token)
		if err != nil {
			s.respondCoreError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), sessionIdentityKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionFrom(ctx context.Context) (core.Identity, bool) {
	id, ok := ctx.Value(sessionIdentityKey).(core.Identity)
	return id, ok
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	a, err := s.auth.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		s.respondCoreError(w, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, a)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	token, a, err := s.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		s.respondCoreError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"token":    token,
		"identity": a.Identity,
		"username": a.Username,
	})
}
