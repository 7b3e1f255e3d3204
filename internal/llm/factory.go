package llm

import (
	"context"
	"fmt"
	"strings"
)

// Providers lists the supported provider names
var Providers = []string{"openai", "openai-chat", "gemini", "anthropic", "ollama"}

// NewProvider creates a research provider based on configuration
func NewProvider(ctx context.Context, config Config) (Provider, error) {
	switch strings.ToLower(config.Provider) {
	case "openai", "":
		return NewOpenAIProvider(config)

	case "openai-chat":
		return NewOpenAIChatProvider(config)

	case "gemini", "google":
		return NewGeminiProvider(ctx, config)

	case "anthropic", "claude":
		return NewAnthropicProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: %s)", config.Provider, strings.Join(Providers, ", "))
	}
}
