package di

import (
	"context"
	"time"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/nothx/nothx/internal/config"
	"github.com/nothx/nothx/internal/core"
	"github.com/nothx/nothx/internal/factory"
	"github.com/nothx/nothx/internal/logging"
	"github.com/nothx/nothx/internal/unsubscribe"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewProviderFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewStorageFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewEngineFactory); err != nil {
		return nil, err
	}

	// Register store
	if err := container.Provide(func(f *factory.StorageFactory) (core.Store, error) {
		return f.CreateStore()
	}); err != nil {
		return nil, err
	}

	// Register AI provider
	if err := container.Provide(func(f *factory.ProviderFactory) (core.Provider, error) {
		return f.CreateProvider()
	}); err != nil {
		return nil, err
	}

	// Register classification engine
	if err := container.Provide(func(f *factory.EngineFactory) (*core.Engine, error) {
		return f.CreateEngine(context.Background())
	}); err != nil {
		return nil, err
	}

	// Register unsubscriber
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) *unsubscribe.Unsubscriber {
		timeout, err := cfg.GetDuration("unsubscribe.timeout")
		if err != nil {
			timeout = 30 * time.Second
		}
		return unsubscribe.New(cfg.GetSMTP(), timeout, logger)
	}); err != nil {
		return nil, err
	}

	return container, nil
}
