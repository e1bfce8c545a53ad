// Package crisis implements keyword-based crisis detection.
package crisis

import "strings"

// keywords that indicate a possible crisis. Matching is substring-based with
// no negation handling: a missed signal costs far more than a false alarm.
var keywords = []string{
	"suicide",
	"kill myself",
	"want to die",
	"end my life",
	"harm myself",
	"self-harm",
	"cutting myself",
	"hurt myself",
}

// Detect reports whether the message contains any crisis indicator.
// Matching is case-insensitive.
func Detect(message string) bool {
	lower := strings.ToLower(message)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Response returns the fixed crisis reply with immediate-help resources.
func Response() string {
	return `I notice you mentioned something concerning. If you're having thoughts of harming yourself, please reach out for immediate help:

- National Suicide Prevention Lifeline: 988 or 1-800-273-8255 (available 24/7)
- Crisis Text Line: Text HOME to 741741 (available 24/7)
- Or go to your nearest emergency room

These trained professionals can provide the support you need right now. Your life matters.`
}
