package llm

import (
	"context"
	"iter"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ppiankov/sponsorgrader/internal/model"
)

// Provider is a text-generation service with live web search
type Provider interface {
	// Name returns the provider name
	Name() string

	// Model returns the model the provider sends requests to
	Model() string

	// Stream sends prompt and yields text fragments as they arrive. A non-nil
	// error is yielded at most once and ends the sequence.
	Stream(ctx context.Context, prompt string) iter.Seq2[string, error]

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "openai-chat", "gemini", "anthropic", "ollama"
	Provider string

	// Model name (provider-specific); empty selects the provider default
	Model string

	// APIKey for hosted providers
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama, test servers)
	BaseURL string

	// SearchContextSize is "low", "medium" or "high" where supported
	SearchContextSize string

	// MaxOutputTokens bounds the reply length; 0 leaves the provider default
	MaxOutputTokens int

	// HTTPClient carries proxy settings; nil uses http.DefaultClient
	HTTPClient *http.Client

	// Logger for provider diagnostics; nil disables logging
	Logger *zap.Logger
}

// Default models per provider
const (
	DefaultOpenAIModel     = "gpt-4.1"
	DefaultOpenAIChatModel = "gpt-4o-search-preview"
	DefaultGeminiModel     = "gemini-2.5-flash"
	DefaultAnthropicModel  = "claude-sonnet-4-20250514"
	DefaultOllamaModel     = "llama3.1"
)

// ConfigFromModel converts the application config into provider config
func ConfigFromModel(cfg model.LLMConfig, httpClient *http.Client, logger *zap.Logger) Config {
	return Config{
		Provider:          strings.ToLower(cfg.Provider),
		Model:             cfg.Model,
		APIKey:            cfg.APIKey(),
		BaseURL:           cfg.BaseURL,
		SearchContextSize: cfg.SearchContextSize,
		MaxOutputTokens:   cfg.MaxOutputTokens,
		HTTPClient:        httpClient,
		Logger:            logger,
	}
}

func (c Config) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

func (c Config) httpClient() *http.Client {
	if c.HTTPClient == nil {
		return http.DefaultClient
	}
	return c.HTTPClient
}

func (c Config) modelOr(fallback string) string {
	if c.Model == "" {
		return fallback
	}
	return c.Model
}
