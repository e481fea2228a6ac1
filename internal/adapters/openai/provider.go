// Package openai implements the classification provider backed by the
// OpenAI chat completions API.
package openai

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/nothx/nothx/internal/config"
)

// Provider is an implementation of the core.Provider interface using OpenAI
type Provider struct {
	client      *openai.Client
	modelName   string
	temperature float32
	topP        float32
	configured  bool
	logger      *zap.Logger
}

// NewProvider creates a new OpenAI provider
func NewProvider(cfg config.OpenAIConfig, logger *zap.Logger) *Provider {
	return &Provider{
		client:      openai.NewClient(cfg.APIKey),
		modelName:   cfg.ModelName,
		temperature: cfg.Temperature,
		topP:        cfg.TopP,
		configured:  cfg.APIKey != "",
		logger:      logger,
	}
}

// Name returns the provider name
func (p *Provider) Name() string { return "openai" }

// Available reports whether an API key is configured
func (p *Provider) Available() bool { return p.configured }

// Complete sends the prompt and returns the completion text
func (p *Provider) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: p.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are an email classification assistant. Respond only with JSON.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   maxTokens,
		Temperature: p.temperature,
		TopP:        p.topP,
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion with OpenAI: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from OpenAI")
	}

	p.logger.Debug("OpenAI completion received",
		zap.String("model", p.modelName),
		zap.String("processing_id", resp.ID))

	return resp.Choices[0].Message.Content, nil
}
