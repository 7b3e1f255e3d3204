package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"

	goopenai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIChatProvider researches with streaming chat completions against a
// search-enabled model such as gpt-4o-search-preview
type OpenAIChatProvider struct {
	client *goopenai.Client
	config Config
	logger *zap.Logger
}

// NewOpenAIChatProvider creates a chat-completions provider
func NewOpenAIChatProvider(config Config) (*OpenAIChatProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := goopenai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	clientConfig.HTTPClient = config.httpClient()

	return &OpenAIChatProvider{
		client: goopenai.NewClientWithConfig(clientConfig),
		config: config,
		logger: config.logger(),
	}, nil
}

// Name returns the provider name
func (p *OpenAIChatProvider) Name() string {
	return "openai-chat"
}

// Model returns the model in use
func (p *OpenAIChatProvider) Model() string {
	return p.config.modelOr(DefaultOpenAIChatModel)
}

// IsAvailable checks the key by listing models
func (p *OpenAIChatProvider) IsAvailable(ctx context.Context) bool {
	if _, err := p.client.ListModels(ctx); err != nil {
		p.logger.Warn("OpenAI API check failed", zap.Error(err))
		return false
	}
	return true
}

// Stream yields content deltas from a streaming chat completion
func (p *OpenAIChatProvider) Stream(ctx context.Context, prompt string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		req := goopenai.ChatCompletionRequest{
			Model: p.Model(),
			Messages: []goopenai.ChatCompletionMessage{
				{Role: goopenai.ChatMessageRoleUser, Content: prompt},
			},
			Stream: true,
		}
		if p.config.MaxOutputTokens > 0 {
			req.MaxCompletionTokens = p.config.MaxOutputTokens
		}

		stream, err := p.client.CreateChatCompletionStream(ctx, req)
		if err != nil {
			yield("", fmt.Errorf("OpenAI API error: %w", err))
			return
		}
		defer stream.Close()

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield("", fmt.Errorf("OpenAI stream error: %w", err))
				return
			}
			for _, choice := range resp.Choices {
				if choice.Delta.Content == "" {
					continue
				}
				if !yield(choice.Delta.Content, nil) {
					return
				}
			}
		}
	}
}

var _ Provider = (*OpenAIChatProvider)(nil)
