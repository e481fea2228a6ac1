// Package gemini implements the classification provider backed by Google
// Gemini.
package gemini

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/nothx/nothx/internal/config"
)

// Provider is an implementation of the core.Provider interface using Google Gemini
type Provider struct {
	client      *genai.Client
	modelName   string
	temperature float32
	topP        float32
	logger      *zap.Logger
}

// NewProvider creates a new Gemini provider
func NewProvider(ctx context.Context, cfg config.GeminiConfig, logger *zap.Logger) (*Provider, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Provider{
		client:      client,
		modelName:   cfg.ModelName,
		temperature: cfg.Temperature,
		topP:        cfg.TopP,
		logger:      logger,
	}, nil
}

// Name returns the provider name
func (p *Provider) Name() string { return "gemini" }

// Available reports whether the client was created
func (p *Provider) Available() bool { return p.client != nil }

// Complete sends the prompt and returns the completion text
func (p *Provider) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	model := p.client.GenerativeModel(p.modelName)
	model.SetTemperature(p.temperature)
	model.SetTopP(p.topP)
	model.SetMaxOutputTokens(int32(maxTokens))

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content with Gemini: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("empty response from Gemini")
	}

	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text += string(t)
		}
	}
	if text == "" {
		return "", fmt.Errorf("no text parts in Gemini response")
	}

	p.logger.Debug("Gemini completion received", zap.String("model", p.modelName))
	return text, nil
}

// Close closes the underlying Gemini client
func (p *Provider) Close() error {
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}
