package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/havenchat/havenchat/internal/core"
	"github.com/havenchat/havenchat/internal/crisis"
	"github.com/havenchat/havenchat/internal/identity"
	"github.com/havenchat/havenchat/internal/logging"
	"github.com/havenchat/havenchat/internal/prompt"
)

// Service orchestrates one chat turn: crisis check, storage, prompt
// composition, the completion call, and analysis triggering. Each turn is one
// synchronous unit of work; no retries, no cancellation beyond ctx.
type Service struct {
	store        Store
	profiles     ProfileReader
	completer    Completer
	analyzer     Analyzer
	composer     *prompt.Composer
	analyzeAfter int
	log          *logging.Logger
}

// Config for the chat service
type Config struct {
	Store     Store
	Profiles  ProfileReader
	Completer Completer
	Analyzer  Analyzer // optional; nil disables analysis triggering

	// HistoryWindow bounds the composed prompt; AnalyzeAfterMessages triggers
	// profile analysis once that many messages are stored.
	HistoryWindow        int
	AnalyzeAfterMessages int
}

// NewService creates the per-turn orchestrator
func NewService(cfg Config) *Service {
	if cfg.AnalyzeAfterMessages == 0 {
		cfg.AnalyzeAfterMessages = 10
	}
	return &Service{
		store:        cfg.Store,
		profiles:     cfg.Profiles,
		completer:    cfg.Completer,
		analyzer:     cfg.Analyzer,
		composer:     prompt.NewComposer(cfg.HistoryWindow),
		analyzeAfter: cfg.AnalyzeAfterMessages,
		log:          logging.WithField("component", "chat"),
	}
}

// Respond handles a turn for a caller-supplied identifier
func (s *Service) Respond(ctx context.Context, rawID, message string) (string, error) {
	return s.RespondAs(ctx, identity.Normalize(rawID), message)
}

// RespondAs handles a turn for an already-canonical identity
func (s *Service) RespondAs(ctx context.Context, id core.Identity, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", core.ErrMissingRequired
	}

	// Crisis short-circuit: the message is still stored normally and the
	// fixed crisis reply becomes the assistant turn. No completion call.
	if crisis.Detect(message) {
		return s.respondCrisis(ctx, id, message)
	}

	userMsg, err := s.store.Append(ctx, id, message, core.OriginUser)
	if err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrStorageUnavailable, err)
	}

	reply := s.complete(ctx, id, userMsg, message)

	if _, err := s.store.Append(ctx, id, reply, core.OriginAssistant); err != nil {
		s.log.Warn("failed to store assistant reply: %v", err)
	}

	s.maybeAnalyze(ctx, id)

	return reply, nil
}

func (s *Service) respondCrisis(ctx context.Context, id core.Identity, message string) (string, error) {
	userMsg, err := s.store.Append(ctx, id, message, core.OriginUser)
	if err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrStorageUnavailable, err)
	}

	// Detection is advisory and additive: a failed event write is logged,
	// never surfaced.
	if err := s.store.RecordCrisis(ctx, id, userMsg.ID, "crisis keyword detected"); err != nil {
		s.log.Error("failed to record crisis event: %v", err)
	}

	reply := crisis.Response()
	if _, err := s.store.Append(ctx, id, reply, core.OriginAssistant); err != nil {
		s.log.Warn("failed to store crisis reply: %v", err)
	}

	s.log.WithField("identity", id).Warn("crisis indicators detected in user message")
	return reply, nil
}

// complete composes the prompt and calls the completion collaborator. A
// failed completion degrades to an apologetic reply rather than an error.
func (s *Service) complete(ctx context.Context, id core.Identity, userMsg core.Message, message string) string {
	history, err := s.store.Recent(ctx, id, s.composer.Window()+1)
	if err != nil {
		s.log.Warn("failed to load history, composing without it: %v", err)
		history = nil
	}
	// The message just appended is rendered separately by the composer
	if n := len(history); n > 0 && history[n-1].ID == userMsg.ID {
		history = history[:n-1]
	}

	var summary string
	if s.profiles != nil {
		if p, err := s.profiles.Get(ctx, id); err == nil {
			summary = prompt.ProfileSummary(p)
		}
	}

	composed := s.composer.Compose(summary, history, message)

	reply, err := s.completer.Complete(ctx, composed)
	if err != nil {
		s.log.Error("completion failed: %v", err)
		return fmt.Sprintf("I'm having trouble responding right now. Technical details: %v", err)
	}
	return reply
}

// maybeAnalyze fires the turn-count analysis trigger. Analysis is best
// effort: failures are logged and never affect the chat reply.
func (s *Service) maybeAnalyze(ctx context.Context, id core.Identity) {
	if s.analyzer == nil {
		return
	}

	count, err := s.store.TurnCount(ctx, id)
	if err != nil {
		s.log.Warn("failed to count turns: %v", err)
		return
	}
	if count < s.analyzeAfter {
		return
	}

	if err := s.analyzer.Analyze(ctx, id); err != nil {
		s.log.Warn("profile analysis failed: %v", err)
	}
}

// History returns up to limit recent messages for an identity
func (s *Service) History(ctx context.Context, id core.Identity, limit int) ([]core.Message, error) {
	msgs, err := s.store.Recent(ctx, id, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrStorageUnavailable, err)
	}
	return msgs, nil
}
