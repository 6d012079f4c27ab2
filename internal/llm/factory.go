package llm

import (
	"fmt"
	"strings"
	"time"
)

// NewProviderFromConfig builds the Provider named by the config.
// An empty provider name selects Ollama.
func NewProviderFromConfig(provider, endpoint, model string, timeout time.Duration, region string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "ollama", "":
		return NewOllama(endpoint, model, timeout), nil
	case "bedrock":
		client, err := NewBedrock(region, model, timeout)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize bedrock provider: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", provider)
	}
}
