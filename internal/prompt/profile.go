package prompt

import (
	"fmt"
	"strings"

	"github.com/havenchat/havenchat/internal/core"
)

// ProfileSummary renders a stored profile as the optional profile block of
// the composed prompt. Nil or empty profiles render as an empty string so
// the block is omitted entirely.
func ProfileSummary(p *core.Profile) string {
	if p == nil {
		return ""
	}

	var lines []string

	if len(p.Emotions) > 0 {
		lines = append(lines, fmt.Sprintf("Primary emotions: %s", strings.Join(p.Emotions, ", ")))
	}
	if len(p.Concerns) > 0 {
		lines = append(lines, fmt.Sprintf("Main concerns: %s", strings.Join(p.Concerns, ", ")))
	}
	if len(p.Triggers) > 0 {
		lines = append(lines, fmt.Sprintf("Potential triggers: %s", strings.Join(p.Triggers, ", ")))
	}
	if len(p.CopingStrategies) > 0 {
		lines = append(lines, fmt.Sprintf("Coping strategies mentioned: %s", strings.Join(p.CopingStrategies, ", ")))
	}
	if p.DistressLevel != "" {
		lines = append(lines, fmt.Sprintf("Distress level: %s", p.DistressLevel))
	}
	if p.LastSummary != "" {
		lines = append(lines, fmt.Sprintf("Previous summary: %s", p.LastSummary))
	}
	if p.Suggestion != "" {
		lines = append(lines, fmt.Sprintf("Suggested approach: %s", p.Suggestion))
	}

	return strings.Join(lines, "\n")
}
