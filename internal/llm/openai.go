package llm

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
	"go.uber.org/zap"
)

// outputTextDelta is the Responses stream event carrying reply text
const outputTextDelta = "response.output_text.delta"

// OpenAIProvider researches with the OpenAI Responses API and the
// web_search_preview tool
type OpenAIProvider struct {
	client openai.Client
	config Config
	logger *zap.Logger
}

// NewOpenAIProvider creates a new OpenAI Responses provider
func NewOpenAIProvider(config Config) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		option.WithHTTPClient(config.httpClient()),
		// Retries are owned by the Researcher, which knows whether text was already streamed
		option.WithMaxRetries(0),
	}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	return &OpenAIProvider{
		client: openai.NewClient(opts...),
		config: config,
		logger: config.logger(),
	}, nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// Model returns the model in use
func (p *OpenAIProvider) Model() string {
	return p.config.modelOr(DefaultOpenAIModel)
}

// IsAvailable checks the key by listing models
func (p *OpenAIProvider) IsAvailable(ctx context.Context) bool {
	if _, err := p.client.Models.List(ctx); err != nil {
		p.logger.Warn("OpenAI API check failed", zap.Error(err))
		return false
	}
	return true
}

func (p *OpenAIProvider) params(prompt string) responses.ResponseNewParams {
	webSearch := responses.WebSearchToolParam{
		Type: responses.WebSearchToolTypeWebSearchPreview,
	}
	switch strings.ToLower(p.config.SearchContextSize) {
	case "low":
		webSearch.SearchContextSize = responses.WebSearchToolSearchContextSizeLow
	case "high":
		webSearch.SearchContextSize = responses.WebSearchToolSearchContextSizeHigh
	case "medium":
		webSearch.SearchContextSize = responses.WebSearchToolSearchContextSizeMedium
	}

	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(p.Model()),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: openai.String(prompt),
		},
		Tools: []responses.ToolUnionParam{
			{OfWebSearchPreview: &webSearch},
		},
	}
	if p.config.MaxOutputTokens > 0 {
		params.MaxOutputTokens = openai.Int(int64(p.config.MaxOutputTokens))
	}
	return params
}

// Stream yields output text deltas from a streaming Responses call
func (p *OpenAIProvider) Stream(ctx context.Context, prompt string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		stream := p.client.Responses.NewStreaming(ctx, p.params(prompt))
		defer stream.Close()

		for stream.Next() {
			event := stream.Current()
			switch event.Type {
			case outputTextDelta:
				if !yield(event.AsResponseOutputTextDelta().Delta, nil) {
					return
				}
			case "error":
				yield("", fmt.Errorf("OpenAI stream error: %s", event.AsError().Message))
				return
			}
		}
		if err := stream.Err(); err != nil {
			yield("", fmt.Errorf("OpenAI API error: %w", err))
		}
	}
}

var _ Provider = (*OpenAIProvider)(nil)
