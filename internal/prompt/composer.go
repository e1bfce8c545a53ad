// Package prompt builds the bounded completion prompt for each chat turn.
package prompt

import (
	"strings"

	"github.com/havenchat/havenchat/internal/core"
)

// Preamble is the fixed policy block sent ahead of every conversation. The
// hard rules (never diagnose, never prescribe, surface crisis resources,
// encourage professional help) are not configurable.
const Preamble = `You are a supportive mental health chatbot designed to provide emotional support, coping strategies, and general guidance. You are NOT a licensed therapist or medical professional.

Guidelines to follow:
1. Use a warm, empathetic tone and practice active listening
2. Ask open-ended questions to help users explore their feelings
3. Offer evidence-based coping strategies when appropriate
4. NEVER diagnose conditions or suggest treatments/medications
5. If a user expresses thoughts of self-harm or harm to others, provide crisis resources
6. Respect privacy and maintain a non-judgmental approach
7. Encourage professional help when appropriate

Crisis resources to share when needed:
- National Suicide Prevention Lifeline: 988 or 1-800-273-8255
- Crisis Text Line: Text HOME to 741741`

// DefaultWindow is the number of prior messages included in each prompt
const DefaultWindow = 10

// Composer renders the completion prompt from conversation state
type Composer struct {
	window int
}

// NewComposer creates a composer with the given history window.
// Values below 1 fall back to DefaultWindow.
func NewComposer(window int) *Composer {
	if window < 1 {
		window = DefaultWindow
	}
	return &Composer{window: window}
}

// Window returns the configured history window
func (c *Composer) Window() int {
	return c.window
}

// Compose builds the full prompt: preamble, optional profile block, the last
// window messages in chronological order, the new user message, and the
// assistant cue. Older turns beyond the window are dropped, not summarized.
// Output is deterministic for identical inputs.
func (c *Composer) Compose(profileSummary string, history []core.Message, userMessage string) string {
	var b strings.Builder

	b.WriteString(Preamble)
	b.WriteString("\n\n")

	if profileSummary != "" {
		b.WriteString("What you know about this user so far:\n")
		b.WriteString(profileSummary)
		b.WriteString("\n\n")
	}

	b.WriteString("Conversation History:\n")
	for _, m := range c.lastWindow(history) {
		switch m.Origin {
		case core.OriginAssistant:
			b.WriteString("Assistant: ")
		default:
			b.WriteString("User: ")
		}
		b.WriteString(m.Content)
		b.WriteString("\n")
	}

	b.WriteString("\nUser: ")
	b.WriteString(userMessage)
	b.WriteString("\nAssistant:")

	return b.String()
}

func (c *Composer) lastWindow(history []core.Message) []core.Message {
	if len(history) <= c.window {
		return history
	}
	return history[len(history)-c.window:]
}
