package factory

import (
	"github.com/vitte-ai/vitte-chat/internal/config"
	"github.com/vitte-ai/vitte-chat/internal/embeddings/openaiembed"
)

// NewEmbeddingProvider builds the OpenAI-compatible embedding client used
// for semantic memory reads and writes.
func NewEmbeddingProvider(cfg *config.Config) *openaiembed.Provider {
	return openaiembed.New(cfg.EmbedBaseURL, cfg.EmbedAPIKey, cfg.EmbedModel, cfg.EmbedTimeout)
}
