// Package profile derives structured user profiles from conversations.
package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/havenchat/havenchat/internal/core"
	"github.com/havenchat/havenchat/internal/logging"
)

// Store persists profiles. Get returns core.ErrProfileNotFound when no
// profile exists yet; Put replaces the record wholesale.
type Store interface {
	Get(ctx context.Context, id core.Identity) (*core.Profile, error)
	Put(ctx context.Context, p *core.Profile) error
}

// History reads recent conversation messages
type History interface {
	Recent(ctx context.Context, id core.Identity, limit int) ([]core.Message, error)
}

// Completer is the external generative-language collaborator
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// IdleLister reports identities whose conversations have gone quiet
type IdleLister interface {
	IdleIdentities(ctx context.Context, cutoff time.Time) ([]core.Identity, error)
}

// AnalysisWindow is the maximum number of messages fed to one analysis
const AnalysisWindow = 10

// Analyzer asks the completion service to summarize a conversation and
// parses the reply into structured profile fields. Analysis is best effort
// everywhere: a failure leaves the prior profile untouched.
type Analyzer struct {
	store     Store
	history   History
	completer Completer
	log       *logging.Logger
}

// NewAnalyzer creates a profile analyzer
func NewAnalyzer(store Store, history History, completer Completer) *Analyzer {
	return &Analyzer{
		store:     store,
		history:   history,
		completer: completer,
		log:       logging.WithField("component", "profile"),
	}
}

// extraction is the JSON shape requested from the completion service
type extraction struct {
	Emotions         []string `json:"emotions"`
	Concerns         []string `json:"concerns"`
	Triggers         []string `json:"triggers"`
	CopingStrategies []string `json:"coping_strategies"`
	Summary          string   `json:"summary"`
	DistressLevel    string   `json:"distress_level"`
	Suggestion       string   `json:"suggestion"`
}

// Analyze runs one analysis pass for an identity. Idempotent: a sequence
// watermark on the stored profile suppresses re-analysis when no new
// messages arrived since the last pass, so the turn-count trigger and the
// inactivity sweep can both fire without redundant completion calls.
func (a *Analyzer) Analyze(ctx context.Context, id core.Identity) error {
	msgs, err := a.history.Recent(ctx, id, AnalysisWindow)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrStorageUnavailable, err)
	}
	if len(msgs) == 0 {
		return nil
	}
	lastSeq := msgs[len(msgs)-1].Sequence

	if existing, err := a.store.Get(ctx, id); err == nil && existing.AnalyzedSeq >= lastSeq {
		a.log.Debug("profile up to date for %s (seq %d)", id, lastSeq)
		return nil
	}

	raw, err := a.completer.Complete(ctx, extractionPrompt(msgs))
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrCompletionFailed, err)
	}

	payload, err := extractJSON(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrAnalysisUnparsable, err)
	}

	var ext extraction
	if err := json.Unmarshal([]byte(payload), &ext); err != nil {
		return fmt.Errorf("%w: %v", core.ErrAnalysisUnparsable, err)
	}

	p := &core.Profile{
		Identity:         id,
		Emotions:         clamp(ext.Emotions, 3),
		Concerns:         clamp(ext.Concerns, 3),
		Triggers:         ext.Triggers,
		CopingStrategies: ext.CopingStrategies,
		LastSummary:      strings.TrimSpace(ext.Summary),
		DistressLevel:    normalizeDistress(ext.DistressLevel),
		Suggestion:       strings.TrimSpace(ext.Suggestion),
		AnalyzedSeq:      lastSeq,
		UpdatedAt:        time.Now().UTC(),
	}

	if err := a.store.Put(ctx, p); err != nil {
		return fmt.Errorf("%w: %v", core.ErrStorageUnavailable, err)
	}

	a.log.Info("profile updated for %s (distress: %s)", id, p.DistressLevel)
	return nil
}

// Sweep analyzes every identity whose conversation has been idle for at
// least idleFor. Individual failures are logged and do not stop the sweep.
func (a *Analyzer) Sweep(ctx context.Context, lister IdleLister, idleFor time.Duration) error {
	cutoff := time.Now().UTC().Add(-idleFor)
	ids, err := lister.IdleIdentities(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrStorageUnavailable, err)
	}

	for _, id := range ids {
		if err := a.Analyze(ctx, id); err != nil {
			a.log.Warn("sweep analysis failed for %s: %v", id, err)
		}
	}
	return nil
}

func extractionPrompt(msgs []core.Message) string {
	var b strings.Builder

	b.WriteString("Analyze this support conversation and respond with ONLY a fenced JSON block:\n")
	b.WriteString("```json\n")
	b.WriteString(`{
    "emotions": ["up to 3 primary emotions"],
    "concerns": ["up to 3 main concerns"],
    "triggers": ["potential triggers mentioned"],
    "coping_strategies": ["coping strategies mentioned"],
    "summary": "2-3 sentence summary of the conversation",
    "distress_level": "low, medium, or high",
    "suggestion": "one suggestion for the next interaction"
}`)
	b.WriteString("\n```\n\nConversation:\n")

	for _, m := range msgs {
		if m.Origin == core.OriginAssistant {
			b.WriteString("Assistant: ")
		} else {
			b.WriteString("User: ")
		}
		b.WriteString(m.Content)
		b.WriteString("\n")
	}

	return b.String()
}

// extractJSON pulls the JSON payload out of free-text completion output:
// first a fenced block (language-tagged or plain), then bare outermost
// braces as a fallback.
func extractJSON(raw string) (string, error) {
	if i := strings.Index(raw, "```"); i != -1 {
		rest := strings.TrimPrefix(raw[i+3:], "json")
		j := strings.Index(rest, "```")
		if j == -1 {
			return "", fmt.Errorf("unterminated code fence")
		}
		content := strings.TrimSpace(rest[:j])
		if content == "" {
			return "", fmt.Errorf("empty code fence")
		}
		return content, nil
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end <= start {
		return "", fmt.Errorf("no JSON object found")
	}
	return raw[start : end+1], nil
}

func clamp(items []string, max int) []string {
	if len(items) > max {
		return items[:max]
	}
	return items
}

func normalizeDistress(raw string) core.DistressLevel {
	switch core.DistressLevel(strings.ToLower(strings.TrimSpace(raw))) {
	case core.DistressHigh:
		return core.DistressHigh
	case core.DistressMedium:
		return core.DistressMedium
	default:
		return core.DistressLow
	}
}
