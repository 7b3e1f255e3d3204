package llm

import (
	"context"
	"fmt"
	"iter"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// GeminiProvider researches with Gemini grounded by Google Search
type GeminiProvider struct {
	client *genai.Client
	config Config
	logger *zap.Logger
}

// NewGeminiProvider creates a Gemini provider
func NewGeminiProvider(ctx context.Context, config Config) (*GeminiProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}

	clientConfig := &genai.ClientConfig{
		APIKey:     config.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: config.httpClient(),
	}
	if config.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: config.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GeminiProvider{
		client: client,
		config: config,
		logger: config.logger(),
	}, nil
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// Model returns the model in use
func (p *GeminiProvider) Model() string {
	return p.config.modelOr(DefaultGeminiModel)
}

// IsAvailable checks the key by fetching the model metadata
func (p *GeminiProvider) IsAvailable(ctx context.Context) bool {
	if _, err := p.client.Models.Get(ctx, p.Model(), nil); err != nil {
		p.logger.Warn("Gemini API check failed", zap.Error(err))
		return false
	}
	return true
}

// Stream yields text from a streaming, search-grounded generation
func (p *GeminiProvider) Stream(ctx context.Context, prompt string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		cfg := &genai.GenerateContentConfig{
			Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
		}
		if p.config.MaxOutputTokens > 0 {
			cfg.MaxOutputTokens = int32(p.config.MaxOutputTokens)
		}

		for resp, err := range p.client.Models.GenerateContentStream(ctx, p.Model(), genai.Text(prompt), cfg) {
			if err != nil {
				yield("", fmt.Errorf("Gemini API error: %w", err))
				return
			}
			text := resp.Text()
			if text == "" {
				continue
			}
			if !yield(text, nil) {
				return
			}
		}
	}
}

var _ Provider = (*GeminiProvider)(nil)
