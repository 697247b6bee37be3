package llm

import (
	"fmt"

	"github.com/YoshitsuguKoike/vaultloop/internal/application/port/output"
)

// NewLLMGateway creates a text-generation gateway by kind.
// Supported kinds: mock, openai.
func NewLLMGateway(kind, apiKey string) (output.LLMGateway, error) {
	switch kind {
	case "", "mock":
		return NewMockGateway(), nil

	case "openai":
		if apiKey == "" {
			return nil, fmt.Errorf("API key not set for openai gateway")
		}
		return NewOpenAIGateway(apiKey), nil

	default:
		return nil, fmt.Errorf("unknown llm gateway kind: %s (supported: mock, openai)", kind)
	}
}
