package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/havenchat/havenchat/internal/core"
	"github.com/havenchat/havenchat/internal/identity"
)

type chatRequest struct {
	Identity string `json:"identity"`
	Message  string `json:"message"`
}

type chatResponse struct {
	Identity core.Identity `json:"identity"`
	Reply    string        `json:"reply"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	// A valid session token wins over whatever identity the body carries
	id, ok := sessionFrom(r.Context())
	if !ok {
		id = identity.Normalize(req.Identity)
	}

	reply, err := s.chat.RespondAs(r.Context(), id, req.Message)
	if err != nil {
		s.respondCoreError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, chatResponse{Identity: id, Reply: reply})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionFrom(r.Context())
	if !ok {
		id = identity.Normalize(r.URL.Query().Get("identity"))
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			s.respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	msgs, err := s.chat.History(r.Context(), id, limit)
	if err != nil {
		s.respondCoreError(w, err)
		return
	}
	if msgs == nil {
		msgs = []core.Message{}
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"identity": id,
		"messages": msgs,
	})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	id := identity.Normalize(chi.URLParam(r, "identity"))

	p, err := s.profiles.Get(r.Context(), id)
	if err != nil {
		s.respondCoreError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, p)
}
