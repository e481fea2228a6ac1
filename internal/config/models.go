package config

import "time"

// EngineConfig represents the tuning surface of the classification engine
type EngineConfig struct {
	ConfidenceThreshold     float64
	KeepConfidenceThreshold float64
	OperationMode           string
	ProtectedPatterns       []string
}

// AIConfig represents the configuration for the AI classification layer
type AIConfig struct {
	Enabled      bool
	Provider     string
	BatchSize    int
	Concurrency  int
	Timeout      time.Duration
	MaxTokens    int
	MaxSubjects  int
	HistoryLimit int
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	Temperature float32
	TopP        float32
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	Temperature float32
	TopP        float32
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey      string
	ModelName   string
	Temperature float32
	TopP        float32
}

// OllamaConfig represents the configuration for a local Ollama instance
type OllamaConfig struct {
	BaseURL   string
	ModelName string
}

// ScoringConfig holds the heuristic scoring weights. All scores start at
// BaseScore; positive adjustments push toward unsub, negative toward keep.
type ScoringConfig struct {
	BaseScore           int
	OpenRateVeryHigh    int // open rate > 75
	OpenRateHigh        int // open rate > 50
	OpenRateVeryLow     int // open rate < 5
	VolumeHigh          int // > 50 emails
	VolumeMedium        int // > 20 emails
	SubjectSpamPattern  int
	SubjectSafePattern  int
	SubjectColdOutreach int
	DomainSpamPattern   int
	DomainSafePattern   int
	UnsubscribeHeader   int
	NoUnsubscribeHeader int
	KeywordBoostMax     int
	UnsubScoreThreshold int
	KeepScoreThreshold  int
}

// StorageConfig selects and configures the persistence backend
type StorageConfig struct {
	Type       string
	SQLitePath string
	MySQLDSN   string
}

// SMTPConfig configures the outbound account used for mailto unsubscribes
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// GetEngine returns the engine configuration
func (c *Config) GetEngine() EngineConfig {
	return EngineConfig{
		ConfidenceThreshold:     c.GetFloat64("engine.confidence_threshold"),
		KeepConfidenceThreshold: c.GetFloat64("engine.keep_confidence_threshold"),
		OperationMode:           c.GetString("engine.operation_mode"),
		ProtectedPatterns:       c.GetStringSlice("engine.protected_patterns"),
	}
}

// GetAI returns the AI layer configuration
func (c *Config) GetAI() AIConfig {
	timeout, err := c.GetDuration("ai.timeout")
	if err != nil {
		timeout = 30 * time.Second
	}
	return AIConfig{
		Enabled:      c.GetBool("ai.enabled"),
		Provider:     c.GetString("ai.provider"),
		BatchSize:    c.GetInt("ai.batch_size"),
		Concurrency:  c.GetInt("ai.concurrency"),
		Timeout:      timeout,
		MaxTokens:    c.GetInt("ai.max_tokens"),
		MaxSubjects:  c.GetInt("ai.max_subjects"),
		HistoryLimit: c.GetInt("ai.history_limit"),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
		TopP:        float32(c.GetFloat64("bedrock.top_p")),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
		TopP:        float32(c.GetFloat64("gemini.top_p")),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		ModelName:   c.GetString("openai.model_name"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		TopP:        float32(c.GetFloat64("openai.top_p")),
	}
}

// GetOllama returns the Ollama configuration
func (c *Config) GetOllama() OllamaConfig {
	return OllamaConfig{
		BaseURL:   c.GetString("ollama.base_url"),
		ModelName: c.GetString("ollama.model_name"),
	}
}

// GetScoring returns the heuristic scoring configuration
func (c *Config) GetScoring() ScoringConfig {
	return ScoringConfig{
		BaseScore:           c.GetInt("scoring.base_score"),
		OpenRateVeryHigh:    c.GetInt("scoring.open_rate_very_high"),
		OpenRateHigh:        c.GetInt("scoring.open_rate_high"),
		OpenRateVeryLow:     c.GetInt("scoring.open_rate_very_low"),
		VolumeHigh:          c.GetInt("scoring.volume_high"),
		VolumeMedium:        c.GetInt("scoring.volume_medium"),
		SubjectSpamPattern:  c.GetInt("scoring.subject_spam_pattern"),
		SubjectSafePattern:  c.GetInt("scoring.subject_safe_pattern"),
		SubjectColdOutreach: c.GetInt("scoring.subject_cold_outreach"),
		DomainSpamPattern:   c.GetInt("scoring.domain_spam_pattern"),
		DomainSafePattern:   c.GetInt("scoring.domain_safe_pattern"),
		UnsubscribeHeader:   c.GetInt("scoring.unsubscribe_header"),
		NoUnsubscribeHeader: c.GetInt("scoring.no_unsubscribe_header"),
		KeywordBoostMax:     c.GetInt("scoring.keyword_boost_max"),
		UnsubScoreThreshold: c.GetInt("scoring.unsub_score_threshold"),
		KeepScoreThreshold:  c.GetInt("scoring.keep_score_threshold"),
	}
}

// DefaultScoring returns the scoring configuration with default weights
func DefaultScoring() ScoringConfig {
	return NewFromViper(NewEmptyViper()).GetScoring()
}

// GetStorage returns the storage configuration
func (c *Config) GetStorage() StorageConfig {
	return StorageConfig{
		Type:       c.GetString("storage.type"),
		SQLitePath: c.GetString("storage.sqlite_path"),
		MySQLDSN:   c.GetString("storage.mysql_dsn"),
	}
}

// GetSMTP returns the SMTP configuration
func (c *Config) GetSMTP() SMTPConfig {
	return SMTPConfig{
		Host:     c.GetString("smtp.host"),
		Port:     c.GetInt("smtp.port"),
		Username: c.GetString("smtp.username"),
		Password: c.GetString("smtp.password"),
		From:     c.GetString("smtp.from"),
	}
}
