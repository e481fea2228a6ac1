package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance
func New() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/nothx/")
	v.AddConfigPath("$HOME/.nothx")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	setDefaults(v)

	// Environment variables
	v.AutomaticEnv()
	v.SetEnvPrefix("NOTHX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults
	}

	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// Engine defaults
	v.SetDefault("engine.confidence_threshold", 0.80)
	v.SetDefault("engine.keep_confidence_threshold", 0.80)
	v.SetDefault("engine.operation_mode", "hands_off")
	v.SetDefault("engine.protected_patterns", []string{
		"*.gov",
		"*.gov.uk",
		"*.gov.au",
		"*.mil",
		"*bank*",
		"*credit*",
		"*finance*",
		"*health*",
		"*medical*",
		"*hospital*",
		"*clinic*",
		"*pharmacy*",
		"security.*",
		"verify.*",
		"verification.*",
	})

	// AI defaults
	v.SetDefault("ai.enabled", true)
	v.SetDefault("ai.provider", "bedrock")
	v.SetDefault("ai.batch_size", 10)
	v.SetDefault("ai.concurrency", 4)
	v.SetDefault("ai.timeout", "30s")
	v.SetDefault("ai.max_tokens", 4096)
	v.SetDefault("ai.max_subjects", 3)
	v.SetDefault("ai.history_limit", 20)

	// Bedrock defaults
	v.SetDefault("bedrock.region", "us-east-1")
	v.SetDefault("bedrock.model_id", "anthropic.claude-v2")
	v.SetDefault("bedrock.temperature", 0.1)
	v.SetDefault("bedrock.top_p", 0.9)

	// Gemini defaults
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model_name", "gemini-pro")
	v.SetDefault("gemini.temperature", 0.1)
	v.SetDefault("gemini.top_p", 0.9)

	// OpenAI defaults
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.model_name", "gpt-4o")
	v.SetDefault("openai.temperature", 0.1)
	v.SetDefault("openai.top_p", 0.9)

	// Ollama defaults
	v.SetDefault("ollama.base_url", "http://localhost:11434")
	v.SetDefault("ollama.model_name", "llama3.2")

	// Heuristic scoring defaults
	v.SetDefault("scoring.base_score", 50)
	v.SetDefault("scoring.open_rate_very_high", -30)
	v.SetDefault("scoring.open_rate_high", -20)
	v.SetDefault("scoring.open_rate_very_low", 20)
	v.SetDefault("scoring.volume_high", 10)
	v.SetDefault("scoring.volume_medium", 5)
	v.SetDefault("scoring.subject_spam_pattern", 5)
	v.SetDefault("scoring.subject_safe_pattern", -10)
	v.SetDefault("scoring.subject_cold_outreach", 15)
	v.SetDefault("scoring.domain_spam_pattern", 10)
	v.SetDefault("scoring.domain_safe_pattern", -15)
	v.SetDefault("scoring.unsubscribe_header", 5)
	v.SetDefault("scoring.no_unsubscribe_header", -5)
	v.SetDefault("scoring.keyword_boost_max", 30)
	v.SetDefault("scoring.unsub_score_threshold", 70)
	v.SetDefault("scoring.keep_score_threshold", 30)

	// Storage defaults
	v.SetDefault("storage.type", "memory")
	v.SetDefault("storage.sqlite_path", "/data/nothx.db")
	v.SetDefault("storage.mysql_dsn", "user:password@tcp(localhost:3306)/nothx")

	// Presets
	v.SetDefault("presets.file", "")

	// SMTP defaults (mailto unsubscribe)
	v.SetDefault("smtp.host", "")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.from", "")

	// Unsubscribe executor
	v.SetDefault("unsubscribe.timeout", "30s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetFloat64 gets a float64 value from the configuration
func (c *Config) GetFloat64(key string) float64 {
	return c.v.GetFloat64(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	return time.ParseDuration(c.GetString(key))
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}
