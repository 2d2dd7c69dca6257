package factory

import (
	"context"

	"github.com/pkg/errors"

	"github.com/vitte-ai/vitte-chat/internal/cache/rediscache"
	"github.com/vitte-ai/vitte-chat/internal/config"
)

// NewCache connects to the shared Redis instance used for feature
// resolutions, LLM response caching and image tickets.
func NewCache(ctx context.Context, cfg *config.Config) (*rediscache.Client, error) {
	c, err := rediscache.New(ctx, cfg.RedisURL)
	if err != nil {
		return nil, errors.Wrap(err, "redis cache unavailable")
	}
	return c, nil
}
