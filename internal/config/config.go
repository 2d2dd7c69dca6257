package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Environment represents different deployment environments.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// Config holds the configuration for the chat service.
// Environment variables are parsed from the VITTE_CHAT_ prefix,
// e.g. VITTE_CHAT_POSTGRES_DSN, VITTE_CHAT_HTTP_PORT.
type Config struct {
	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`

	// HTTP Configuration
	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	// Relational store
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`

	// Shared cache
	RedisURL string `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`

	// Vector store
	WeaviateURL string `envconfig:"WEAVIATE_URL" default:"weaviate:8080"`

	// Embedding provider (OpenAI-compatible /v1/embeddings)
	EmbedBaseURL string        `envconfig:"EMBED_BASE_URL" default:"https://openrouter.ai/api"`
	EmbedAPIKey  string        `envconfig:"EMBED_API_KEY" default:""`
	EmbedModel   string        `envconfig:"EMBED_MODEL" default:"text-embedding-3-small"`
	EmbedTimeout time.Duration `envconfig:"EMBED_TIMEOUT" default:"10s"`
	VectorSize   int           `envconfig:"VECTOR_SIZE" default:"1536"`

	// Semantic memory tuning
	SemanticTopK          int     `envconfig:"SEMANTIC_TOP_K" default:"3"`
	SemanticMinSimilarity float64 `envconfig:"SEMANTIC_MIN_SIMILARITY" default:"0.7"`
	SemanticMinHistory    int     `envconfig:"SEMANTIC_MIN_HISTORY" default:"5"`

	// LLM gateway (OpenAI-compatible /v1/chat/completions)
	LLMBaseURL          string        `envconfig:"LLM_BASE_URL" default:"http://llm-gateway:8000"`
	LLMAPIKey           string        `envconfig:"LLM_API_KEY" default:""`
	LLMModel            string        `envconfig:"LLM_MODEL" default:"deepseek/deepseek-chat"`
	LLMModelStrong      string        `envconfig:"LLM_MODEL_STRONG" default:"deepseek/deepseek-chat"`
	LLMTimeout          time.Duration `envconfig:"LLM_TIMEOUT" default:"60s"`
	LLMMaxRetries       int           `envconfig:"LLM_MAX_RETRIES" default:"3"`
	LLMTemperature      float64       `envconfig:"LLM_TEMPERATURE" default:"0.85"`
	LLMMaxTokens        int           `envconfig:"LLM_MAX_TOKENS" default:"800"`
	LLMPresencePenalty  float64       `envconfig:"LLM_PRESENCE_PENALTY" default:"0.3"`
	LLMFrequencyPenalty float64       `envconfig:"LLM_FREQUENCY_PENALTY" default:"0.4"`
	LLMBreakerThreshold int           `envconfig:"LLM_BREAKER_THRESHOLD" default:"5"`
	LLMBreakerTimeout   time.Duration `envconfig:"LLM_BREAKER_TIMEOUT" default:"60s"`
	LLMRatePerMinute    int           `envconfig:"LLM_RATE_PER_MINUTE" default:"60"`
	LLMCacheEnabled     bool          `envconfig:"LLM_CACHE_ENABLED" default:"true"`
	LLMCacheTTL         time.Duration `envconfig:"LLM_CACHE_TTL" default:"5m"`

	// Greeting turns run on the strong model with their own sampling.
	LLMGreetingTemperature float64 `envconfig:"LLM_GREETING_TEMPERATURE" default:"0.9"`
	LLMGreetingMaxTokens   int     `envconfig:"LLM_GREETING_MAX_TOKENS" default:"512"`

	// Image generator queue
	ImageGenURL       string        `envconfig:"IMAGE_GEN_URL" default:"http://image-generator:8188"`
	ImageGenTimeout   time.Duration `envconfig:"IMAGE_GEN_TIMEOUT" default:"15s"`
	ImagePickupWait   time.Duration `envconfig:"IMAGE_PICKUP_WAIT" default:"5s"`
	ImageTicketTTL    time.Duration `envconfig:"IMAGE_TICKET_TTL" default:"5m"`
	ImageCadenceMin   int           `envconfig:"IMAGE_CADENCE_MIN" default:"3"`
	ImageCadenceMax   int           `envconfig:"IMAGE_CADENCE_MAX" default:"5"`

	// Dialog management
	SlotBudget   int `envconfig:"SLOT_BUDGET" default:"5"`
	RecencyLimit int `envconfig:"RECENCY_LIMIT" default:"12"`

	// Feature resolver
	FeatureCacheTTL time.Duration `envconfig:"FEATURE_CACHE_TTL" default:"5m"`

	// Health probes
	HealthProbeTimeout  time.Duration `envconfig:"HEALTH_PROBE_TIMEOUT" default:"5s"`
	HealthProbeInterval time.Duration `envconfig:"HEALTH_PROBE_INTERVAL" default:"30s"`
	StartupWait         time.Duration `envconfig:"STARTUP_WAIT" default:"60s"`
}

// ResolveDefaults validates value ranges that envconfig cannot express.
func (c *Config) ResolveDefaults() error {
	if c.SlotBudget < 1 {
		return fmt.Errorf("slot budget must be at least 1, got %d", c.SlotBudget)
	}
	if c.ImageCadenceMin < 1 || c.ImageCadenceMax < c.ImageCadenceMin {
		return fmt.Errorf("invalid image cadence window [%d,%d]", c.ImageCadenceMin, c.ImageCadenceMax)
	}
	if c.SemanticMinSimilarity < 0 || c.SemanticMinSimilarity > 1 {
		return fmt.Errorf("semantic min similarity must be in [0,1], got %f", c.SemanticMinSimilarity)
	}
	if c.VectorSize <= 0 {
		return fmt.Errorf("vector size must be positive, got %d", c.VectorSize)
	}
	if c.RecencyLimit <= 0 {
		return fmt.Errorf("recency limit must be positive, got %d", c.RecencyLimit)
	}
	return nil
}

// New creates a new Config by parsing environment variables.
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("VITTE_CHAT", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Str("environment", string(cfg.Environment)).
		Int("port", cfg.HTTPPort).
		Str("weaviate_url", cfg.WeaviateURL).
		Str("embed_model", cfg.EmbedModel).
		Str("llm_model", cfg.LLMModel).
		Int("slot_budget", cfg.SlotBudget).
		Int("cadence_min", cfg.ImageCadenceMin).
		Int("cadence_max", cfg.ImageCadenceMax).
		Str("postgres_dsn_present", func() string {
			if cfg.PostgresDSN != "" {
				return "true"
			}
			return "false"
		}()).
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting creates a config with deterministic values for unit tests.
func NewForTesting() *Config {
	cfg := &Config{
		Environment:           EnvTesting,
		HTTPPort:              8080,
		RedisURL:              "redis://localhost:6379/1",
		WeaviateURL:           "localhost:8082",
		EmbedBaseURL:          "http://localhost:11434",
		EmbedModel:            "text-embedding-3-small",
		EmbedTimeout:          10 * time.Second,
		VectorSize:            1536,
		SemanticTopK:          3,
		SemanticMinSimilarity: 0.7,
		SemanticMinHistory:    5,
		LLMBaseURL:            "http://localhost:8000",
		LLMModel:              "deepseek/deepseek-chat",
		LLMModelStrong:        "deepseek/deepseek-chat",
		LLMTimeout:            60 * time.Second,
		LLMMaxRetries:         3,
		LLMTemperature:        0.85,
		LLMMaxTokens:          800,
		LLMPresencePenalty:    0.3,
		LLMFrequencyPenalty:   0.4,
		LLMBreakerThreshold:   5,
		LLMBreakerTimeout:     60 * time.Second,
		LLMRatePerMinute:      60,
		LLMCacheTTL:           5 * time.Minute,

		LLMGreetingTemperature: 0.9,
		LLMGreetingMaxTokens:   512,

		ImageGenURL:           "http://localhost:8188",
		ImageGenTimeout:       15 * time.Second,
		ImagePickupWait:       5 * time.Second,
		ImageTicketTTL:        5 * time.Minute,
		ImageCadenceMin:       3,
		ImageCadenceMax:       5,
		SlotBudget:            5,
		RecencyLimit:          12,
		FeatureCacheTTL:       5 * time.Minute,
		HealthProbeTimeout:    5 * time.Second,
		HealthProbeInterval:   30 * time.Second,
		StartupWait:           60 * time.Second,
	}
	return cfg
}

// IsTesting returns true if the environment is set to testing.
func (c *Config) IsTesting() bool { return c.Environment == EnvTesting }

// IsProduction returns true if the environment is set to production.
func (c *Config) IsProduction() bool { return c.Environment == EnvProduction }

// GetHTTPAddr returns the HTTP server address.
func (c *Config) GetHTTPAddr() string { return fmt.Sprintf(":%d", c.HTTPPort) }
