// Package llm wraps the reasoning-model service used by query expansion,
// re-ranking, judging, and deep reasoning.
package llm

import (
	"context"
	"log/slog"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Client is the completion contract. One implementation backs all
// model-dependent pipeline stages; tests inject fakes.
type Client interface {
	// Complete sends a system + user prompt and returns the raw model text.
	// jsonMode asks the service for structured output when supported.
	Complete(ctx context.Context, systemPrompt, userPrompt string, jsonMode bool) (string, error)
}

// Config configures the OpenAI-compatible client.
type Config struct {
	// BaseURL is the API endpoint. Empty disables the client.
	BaseURL string
	// APIKey authenticates the service. Local services accept any token.
	APIKey string
	// Model is the model name.
	Model string
}

// OpenAIClient implements Client over any OpenAI-compatible chat API.
type OpenAIClient struct {
	client llms.Model
	logger *slog.Logger
}

var _ Client = (*OpenAIClient)(nil)

// NewOpenAIClient creates a completion client. Use "none" as the token for
// local services that skip authentication.
func NewOpenAIClient(cfg Config) (*OpenAIClient, error) {
	token := cfg.APIKey
	if token == "" {
		token = "none"
	}

	client, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(token),
		openai.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, err
	}

	return &OpenAIClient{
		client: client,
		logger: slog.Default().With(slog.String("component", "llm-client")),
	}, nil
}

// Complete sends the prompts with temperature 0 for reproducible rankings.
func (c *OpenAIClient) Complete(ctx context.Context, systemPrompt, userPrompt string, jsonMode bool) (string, error) {
	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(systemPrompt)},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(userPrompt)},
		},
	}

	opts := []llms.CallOption{llms.WithTemperature(0.0)}
	if jsonMode {
		opts = append(opts, llms.WithJSONMode())
	}

	response, err := c.client.GenerateContent(ctx, content, opts...)
	if err != nil {
		return "", err
	}
	if len(response.Choices) == 0 {
		c.logger.Debug("model returned no choices")
		return "", nil
	}
	return response.Choices[0].Content, nil
}
