// Package bedrock implements the classification provider backed by
// Amazon Bedrock.
package bedrock

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"go.uber.org/zap"

	"github.com/nothx/nothx/internal/config"
)

// Provider is an implementation of the core.Provider interface using Amazon Bedrock
type Provider struct {
	client      *bedrockruntime.Client
	modelID     string
	temperature float32
	topP        float32
	logger      *zap.Logger
}

// NewProvider creates a new Bedrock provider
func NewProvider(client *bedrockruntime.Client, cfg config.BedrockConfig, logger *zap.Logger) *Provider {
	return &Provider{
		client:      client,
		modelID:     cfg.ModelID,
		temperature: cfg.Temperature,
		topP:        cfg.TopP,
		logger:      logger,
	}
}

// Name returns the provider name
func (p *Provider) Name() string { return "bedrock" }

// Available reports whether the runtime client was created
func (p *Provider) Available() bool { return p.client != nil }

// isAnthropicModel checks if the model is an Anthropic Claude model
func (p *Provider) isAnthropicModel() bool {
	return strings.HasPrefix(p.modelID, "anthropic.")
}

// isAmazonTitanModel checks if the model is an Amazon Titan model
func (p *Provider) isAmazonTitanModel() bool {
	return strings.HasPrefix(p.modelID, "amazon.titan")
}

// Complete sends the prompt and returns the completion text
func (p *Provider) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	// Create the request payload based on the model family
	var payload []byte
	var err error

	if p.isAnthropicModel() {
		payload, err = json.Marshal(map[string]interface{}{
			"prompt":               fmt.Sprintf("\n\nHuman: %s\n\nAssistant:", prompt),
			"max_tokens_to_sample": maxTokens,
			"temperature":          p.temperature,
			"top_p":                p.topP,
		})
	} else if p.isAmazonTitanModel() {
		payload, err = json.Marshal(map[string]interface{}{
			"inputText": prompt,
			"textGenerationConfig": map[string]interface{}{
				"maxTokenCount": maxTokens,
				"temperature":   p.temperature,
				"topP":          p.topP,
			},
		})
	} else {
		// Generic format for other model families
		payload, err = json.Marshal(map[string]interface{}{
			"prompt":      prompt,
			"max_tokens":  maxTokens,
			"temperature": p.temperature,
			"top_p":       p.topP,
		})
	}
	if err != nil {
		return "", fmt.Errorf("failed to marshal request payload: %w", err)
	}

	output, err := p.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(p.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        payload,
	})
	if err != nil {
		return "", fmt.Errorf("failed to invoke Bedrock model: %w", err)
	}

	text, err := p.extractText(output.Body)
	if err != nil {
		return "", err
	}

	p.logger.Debug("Bedrock completion received", zap.String("model_id", p.modelID))
	return text, nil
}

// extractText pulls the completion text out of the model-family-specific
// response body.
func (p *Provider) extractText(body []byte) (string, error) {
	if p.isAnthropicModel() {
		var resp struct {
			Completion string `json:"completion"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", fmt.Errorf("failed to parse Anthropic response: %w", err)
		}
		return resp.Completion, nil
	}

	if p.isAmazonTitanModel() {
		var resp struct {
			Results []struct {
				OutputText string `json:"outputText"`
			} `json:"results"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", fmt.Errorf("failed to parse Titan response: %w", err)
		}
		if len(resp.Results) == 0 {
			return "", fmt.Errorf("empty response from Titan model")
		}
		return resp.Results[0].OutputText, nil
	}

	var resp struct {
		Completion string `json:"completion"`
		Text       string `json:"text"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to parse model response: %w", err)
	}
	if resp.Completion != "" {
		return resp.Completion, nil
	}
	return resp.Text, nil
}
