package factory

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"go.uber.org/zap"

	"github.com/nothx/nothx/internal/adapters/bedrock"
	"github.com/nothx/nothx/internal/adapters/gemini"
	"github.com/nothx/nothx/internal/adapters/ollama"
	"github.com/nothx/nothx/internal/adapters/openai"
	"github.com/nothx/nothx/internal/config"
	"github.com/nothx/nothx/internal/core"
)

// ProviderFactory creates AI providers based on configuration
type ProviderFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewProviderFactory creates a new provider factory
func NewProviderFactory(cfg *config.Config, logger *zap.Logger) *ProviderFactory {
	return &ProviderFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateProvider creates an AI provider based on the configuration. A nil
// provider with nil error means the AI layer is disabled.
func (f *ProviderFactory) CreateProvider() (core.Provider, error) {
	aiCfg := f.cfg.GetAI()
	if !aiCfg.Enabled {
		f.logger.Info("AI layer disabled by configuration")
		return nil, nil
	}

	switch aiCfg.Provider {
	case "bedrock":
		bedrockCfg := f.cfg.GetBedrock()
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(bedrockCfg.Region),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
		}
		client := bedrockruntime.NewFromConfig(awsCfg)
		return bedrock.NewProvider(client, bedrockCfg, f.logger), nil
	case "gemini":
		return gemini.NewProvider(context.Background(), f.cfg.GetGemini(), f.logger)
	case "openai":
		return openai.NewProvider(f.cfg.GetOpenAI(), f.logger), nil
	case "ollama":
		return ollama.NewProvider(f.cfg.GetOllama(), f.logger), nil
	case "none", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", aiCfg.Provider)
	}
}
