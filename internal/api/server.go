// Package api provides the HTTP API server for Haven.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/havenchat/havenchat/internal/auth"
	"github.com/havenchat/havenchat/internal/chat"
	"github.com/havenchat/havenchat/internal/core"
)

// Server is the HTTP API server
type Server struct {
	router     *chi.Mux
	httpServer *http.Server

	chat     *chat.Service
	profiles chat.ProfileReader
	auth     *auth.Service
}

// Config for the server
type Config struct {
	Port     int
	Chat     *chat.Service
	Profiles chat.ProfileReader
	Auth     *auth.Service // nil disables the auth endpoints
}

// New creates a new API server
func New(cfg Config) *Server {
	s := &Server{
		chat:     cfg.Chat,
		profiles: cfg.Profiles,
		auth:     cfg.Auth,
	}

	s.setupRouter()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 75 * time.Second, // completion calls can be slow
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRouter configures all routes
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(70 * time.Second))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.sessionIdentity)

		r.Post("/chat", s.handleChat)
		r.Get("/history", s.handleHistory)
		r.Get("/profile/{identity}", s.handleGetProfile)

		if s.auth != nil {
			r.Post("/auth/register", s.handleRegister)
			r.Post("/auth/login", s.handleLogin)
		}

		r.Get("/health", s.handleHealth)
	})

	s.router = r
}

// Router returns the configured handler, for tests
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	fmt.Printf("API server starting on http://localhost%s\n", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Stop gracefully stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// --- Response helpers ---

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

// respondCoreError maps domain sentinels to HTTP statuses
func (s *Server) respondCoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrMissingRequired), errors.Is(err, core.ErrInvalidInput):
		s.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, core.ErrProfileNotFound), errors.Is(err, core.ErrConversationNotFound):
		s.respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, core.ErrAccountExists):
		s.respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, core.ErrInvalidCredentials), errors.Is(err, core.ErrInvalidToken):
		s.respondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, core.ErrStorageUnavailable):
		s.respondError(w, http.StatusServiceUnavailable, err.Error())
	default:
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
