// Package factory builds the service's infrastructure dependencies from
// configuration. Each constructor owns the driver-level details so the
// bootstrap code stays declarative.
package factory

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/vitte-ai/vitte-chat/internal/config"
	storepkg "github.com/vitte-ai/vitte-chat/internal/store"
	storepg "github.com/vitte-ai/vitte-chat/internal/store/postgres"
)

// NewStore returns a Postgres-backed store.Store.
// The connection opens synchronously because health probes need it
// immediately; the schema bootstrap check runs in the background.
func NewStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (storepkg.Store, error) {
	dsn := cfg.PostgresDSN
	if dsn == "" {
		return nil, fmt.Errorf("VITTE_CHAT_POSTGRES_DSN is required")
	}

	db, err := storepg.Open(dsn)
	if err != nil {
		return nil, err
	}

	go func() {
		bootstrapCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		if err := storepg.Bootstrap(bootstrapCtx, dsn); err != nil {
			log.Warn().Err(err).Msg("store bootstrap check failed")
		} else {
			log.Debug().Msg("store bootstrap check completed")
		}
	}()

	return storepg.NewWithDB(db), nil
}
