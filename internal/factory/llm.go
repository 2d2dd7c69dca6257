package factory

import (
	"github.com/rs/zerolog"

	"github.com/vitte-ai/vitte-chat/internal/cache"
	"github.com/vitte-ai/vitte-chat/internal/config"
	"github.com/vitte-ai/vitte-chat/internal/llm"
)

// NewLLMClient builds the gateway client with the retry, breaker, rate and
// cache settings from configuration. c may be nil to disable response
// caching.
func NewLLMClient(cfg *config.Config, c cache.Cache, log zerolog.Logger) *llm.Client {
	if !cfg.LLMCacheEnabled {
		c = nil
	}
	return llm.NewClient(llm.Options{
		BaseURL:          cfg.LLMBaseURL,
		APIKey:           cfg.LLMAPIKey,
		Model:            cfg.LLMModel,
		Timeout:          cfg.LLMTimeout,
		MaxRetries:       cfg.LLMMaxRetries,
		Temperature:      cfg.LLMTemperature,
		MaxTokens:        cfg.LLMMaxTokens,
		PresencePenalty:  cfg.LLMPresencePenalty,
		FrequencyPenalty: cfg.LLMFrequencyPenalty,
		BreakerThreshold: uint32(cfg.LLMBreakerThreshold),
		BreakerTimeout:   cfg.LLMBreakerTimeout,
		RatePerMinute:    cfg.LLMRatePerMinute,
		CacheEnabled:     cfg.LLMCacheEnabled,
		CacheTTL:         cfg.LLMCacheTTL,
	}, c, log)
}
