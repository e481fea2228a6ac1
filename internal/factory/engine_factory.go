package factory

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/nothx/nothx/internal/adapters/storage"
	"github.com/nothx/nothx/internal/ai"
	"github.com/nothx/nothx/internal/config"
	"github.com/nothx/nothx/internal/core"
	"github.com/nothx/nothx/internal/heuristics"
	"github.com/nothx/nothx/internal/presets"
	"github.com/nothx/nothx/internal/rules"
)

// EngineFactory assembles the classification pipeline from its parts
type EngineFactory struct {
	cfg      *config.Config
	logger   *zap.Logger
	store    core.Store
	provider core.Provider
}

// NewEngineFactory creates a new engine factory
func NewEngineFactory(cfg *config.Config, logger *zap.Logger, store core.Store, provider core.Provider) *EngineFactory {
	return &EngineFactory{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		provider: provider,
	}
}

// CreateEngine loads state from the store and builds the engine
func (f *EngineFactory) CreateEngine(ctx context.Context) (*core.Engine, error) {
	userRules, err := f.store.Rules(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load user rules: %w", err)
	}
	ruleLayer := rules.NewLayer(userRules, f.logger)

	presetLayer, err := f.createPresetLayer()
	if err != nil {
		return nil, err
	}

	profile, err := f.store.LoadProfile(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		profile = core.DefaultProfile()
	} else if err != nil {
		return nil, fmt.Errorf("failed to load learning profile: %w", err)
	}
	scorer := heuristics.NewScorer(f.cfg.GetScoring(), profile, f.logger)

	aiCfg := f.cfg.GetAI()
	var aiLayer core.BatchLayer
	if f.provider != nil {
		aiLayer = ai.New(f.provider, f.store, aiCfg, f.logger)
	}

	engineCfg := f.cfg.GetEngine()
	return core.NewEngine(ruleLayer, presetLayer, aiLayer, scorer, core.EngineConfig{
		ConfidenceThreshold:     engineCfg.ConfidenceThreshold,
		KeepConfidenceThreshold: engineCfg.KeepConfidenceThreshold,
		OperationMode:           engineCfg.OperationMode,
		ProtectedPatterns:       engineCfg.ProtectedPatterns,
		BatchSize:               aiCfg.BatchSize,
		Concurrency:             aiCfg.Concurrency,
	}, f.logger), nil
}

func (f *EngineFactory) createPresetLayer() (*presets.Layer, error) {
	set := presets.Default()
	if path := f.cfg.GetString("presets.file"); path != "" {
		loaded, err := presets.LoadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load preset patterns: %w", err)
		}
		set = loaded
		f.logger.Info("Loaded preset patterns from file",
			zap.String("path", path),
			zap.String("version", set.Version))
	}
	return presets.NewLayer(set, f.logger), nil
}
