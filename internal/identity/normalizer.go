// Package identity maps caller-supplied identifiers to canonical identities.
package identity

import (
	"strings"

	"github.com/google/uuid"

	"github.com/havenchat/havenchat/internal/core"
)

// namespace is the fixed UUID namespace for deriving identities from raw
// caller strings. Changing it would orphan every derived identity.
var namespace = uuid.MustParse("a1f0c6d2-4b3e-4c7a-9d8f-2e5b71c0ae64")

// anonymousKey stands in for callers that present no identifier at all
const anonymousKey = "haven:anonymous"

// Normalize maps a caller-supplied identifier to one canonical identity.
// A string that already parses as a UUID is returned in canonical lower-case
// form; anything else is derived deterministically inside the fixed
// namespace, so the same raw string always yields the same identity across
// process restarts.
func Normalize(raw string) core.Identity {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = anonymousKey
	}

	if id, err := uuid.Parse(raw); err == nil {
		return core.Identity(id.String())
	}

	derived := uuid.NewSHA1(namespace, []byte(raw))
	return core.Identity(derived.String())
}

// New mints a fresh canonical identity for authenticated account creation
func New() core.Identity {
	return core.Identity(uuid.New().String())
}
