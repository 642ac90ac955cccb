// Package llm provides the extraction model backends plus the throttle and
// retry policy that keep the service inside each provider's rate limits.
package llm

import (
	"context"
	"strings"
)

// Backend is one model provider. The two implementations (Gemini, OpenAI)
// are interchangeable: both take a prompt and return raw model text, and the
// caller applies identical validation either way. Which one runs is a
// constructor-time choice, not a runtime branch.
type Backend interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}

// StripFences removes a markdown code fence wrapper from model output.
// Providers ignore "JSON only" instructions often enough that this is part
// of the response contract.
func StripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
