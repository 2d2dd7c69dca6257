package factory

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/vitte-ai/vitte-chat/internal/config"
	"github.com/vitte-ai/vitte-chat/internal/semanticindex"
)

// NewSemanticIndex connects to Weaviate and ensures the DialogTurn class
// exists before the index is handed to the pipeline.
func NewSemanticIndex(ctx context.Context, cfg *config.Config, log zerolog.Logger) (semanticindex.Index, error) {
	if err := semanticindex.BootstrapWeaviate(ctx, cfg.WeaviateURL); err != nil {
		return nil, errors.Wrap(err, "weaviate schema bootstrap failed")
	}
	idx, err := semanticindex.NewWeaviateNativeIndex(cfg.WeaviateURL)
	if err != nil {
		return nil, errors.Wrap(err, "weaviate index unavailable")
	}
	log.Debug().Str("weaviate_url", cfg.WeaviateURL).Msg("semantic index ready")
	return idx, nil
}
