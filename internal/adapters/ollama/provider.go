// Package ollama implements the classification provider backed by a
// local Ollama instance. No API key is needed, but Ollama must be
// running.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nothx/nothx/internal/config"
)

// Provider is an implementation of the core.Provider interface using Ollama
type Provider struct {
	baseURL   string
	modelName string
	client    *http.Client
	logger    *zap.Logger

	availOnce sync.Once
	available bool
}

// NewProvider creates a new Ollama provider
func NewProvider(cfg config.OllamaConfig, logger *zap.Logger) *Provider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &Provider{
		baseURL:   baseURL,
		modelName: cfg.ModelName,
		client:    &http.Client{},
		logger:    logger,
	}
}

// Name returns the provider name
func (p *Provider) Name() string { return "ollama" }

// Available checks once whether the Ollama instance is reachable
func (p *Provider) Available() bool {
	p.availOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/tags", nil)
		if err != nil {
			return
		}
		resp, err := p.client.Do(req)
		if err != nil {
			p.logger.Debug("Ollama not reachable", zap.String("base_url", p.baseURL), zap.Error(err))
			return
		}
		defer resp.Body.Close()
		p.available = resp.StatusCode == http.StatusOK
	})
	return p.available
}

type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Complete sends the prompt to Ollama and returns the completion text
func (p *Provider) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	body, err := json.Marshal(generateRequest{
		Model:  p.modelName,
		Prompt: prompt,
		Stream: false,
		Options: map[string]any{
			"num_predict": maxTokens,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal Ollama request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build Ollama request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call Ollama at %s: %w", p.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("Ollama returned status %d", resp.StatusCode)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode Ollama response: %w", err)
	}

	p.logger.Debug("Ollama completion received", zap.String("model", p.modelName))
	return out.Response, nil
}
