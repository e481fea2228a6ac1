package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaults(t *testing.T) *Config {
	t.Helper()
	return NewFromViper(NewEmptyViper())
}

func TestEngineDefaults(t *testing.T) {
	cfg := defaults(t).GetEngine()

	assert.Equal(t, 0.80, cfg.ConfidenceThreshold)
	assert.Equal(t, "hands_off", cfg.OperationMode)
	assert.Contains(t, cfg.ProtectedPatterns, "*.gov")
	assert.Contains(t, cfg.ProtectedPatterns, "*bank*")
}

func TestAIDefaults(t *testing.T) {
	cfg := defaults(t).GetAI()

	assert.True(t, cfg.Enabled)
	assert.Equal(t, "bedrock", cfg.Provider)
	assert.Equal(t, 10, cfg.BatchSize)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 3, cfg.MaxSubjects)
}

func TestScoringDefaultsAreSymmetricAroundBase(t *testing.T) {
	cfg := DefaultScoring()

	assert.Equal(t, 50, cfg.BaseScore)
	assert.Negative(t, cfg.OpenRateVeryHigh)
	assert.Positive(t, cfg.OpenRateVeryLow)
	assert.Greater(t, cfg.UnsubScoreThreshold, cfg.BaseScore)
	assert.Less(t, cfg.KeepScoreThreshold, cfg.BaseScore)
}

func TestStorageDefaults(t *testing.T) {
	cfg := defaults(t).GetStorage()
	assert.Equal(t, "memory", cfg.Type)
	require.NotEmpty(t, cfg.SQLitePath)
}

func TestEnvironmentOverride(t *testing.T) {
	t.Setenv("NOTHX_ENGINE_OPERATION_MODE", "confirm")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, "confirm", cfg.GetEngine().OperationMode)
}
