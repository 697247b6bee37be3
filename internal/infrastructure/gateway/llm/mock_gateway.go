package llm

import (
	"context"
	"strings"
)

// MockGateway is used when no real provider is configured. It answers
// the executor's structured prompts with plausible canned JSON so the
// pipeline can run end to end offline.
type MockGateway struct{}

// NewMockGateway creates a mock text-generation gateway
func NewMockGateway() *MockGateway {
	return &MockGateway{}
}

// Complete returns a canned response keyed off the prompt shape
func (g *MockGateway) Complete(ctx context.Context, prompt string) (string, error) {
	p := strings.ToLower(prompt)

	switch {
	case strings.Contains(p, "extract email parameters"):
		return `{"to": "[NEEDS_HUMAN_INPUT]", "subject": "Automated update", "body": "[NEEDS_HUMAN_INPUT]"}`, nil
	case strings.Contains(p, "financial action"):
		return `{"action": "get_balances", "params": {}}`, nil
	default:
		return "Mock generated content for: " + firstLine(prompt), nil
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
