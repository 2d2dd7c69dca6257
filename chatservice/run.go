// Package chatservice boots the chat pipeline service: configuration,
// infrastructure dependencies, health monitoring and the HTTP server.
package chatservice

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	apihttp "github.com/vitte-ai/vitte-chat/internal/api/http"
	"github.com/vitte-ai/vitte-chat/internal/cache/rediscache"
	"github.com/vitte-ai/vitte-chat/internal/chat"
	"github.com/vitte-ai/vitte-chat/internal/config"
	"github.com/vitte-ai/vitte-chat/internal/dialog"
	"github.com/vitte-ai/vitte-chat/internal/embeddings/openaiembed"
	"github.com/vitte-ai/vitte-chat/internal/factory"
	"github.com/vitte-ai/vitte-chat/internal/features"
	"github.com/vitte-ai/vitte-chat/internal/health"
	"github.com/vitte-ai/vitte-chat/internal/imagegen"
	"github.com/vitte-ai/vitte-chat/internal/llm"
	"github.com/vitte-ai/vitte-chat/internal/logger"
	"github.com/vitte-ai/vitte-chat/internal/recency"
	"github.com/vitte-ai/vitte-chat/internal/semantic"
	"github.com/vitte-ai/vitte-chat/internal/semanticindex"
	"github.com/vitte-ai/vitte-chat/internal/store"
)

// Run starts the service and blocks until SIGINT/SIGTERM or a fatal server
// error.
func Run() error {
	log := logger.New("chat-service")

	cfg, err := config.New()
	if err != nil {
		log.Error().Stack().Err(err).Msg("Failed to load configuration")
		return err
	}

	log.Info().
		Str("environment", string(cfg.Environment)).
		Int("http_port", cfg.HTTPPort).
		Msg("Chat service starting")

	ctx, stop := newServerContext()
	defer stop()

	deps, err := initDependencies(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = deps.cache.Close() }()

	svcHealth := startHealthCheckers(ctx, cfg, log, deps)
	router := apihttp.NewRouter(deps.service, svcHealth)

	if err := waitUntilHealthy(ctx, cfg, svcHealth); err != nil {
		log.Error().Stack().Err(err).Msg("Dependencies did not become healthy")
		return err
	}

	server := newHTTPServer(ctx, cfg, router)
	errCh := serveHTTP(server, log, cfg)

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
			return err
		}
		log.Info().Msg("Server exited")
		return nil
	case err := <-errCh:
		log.Error().Stack().Err(err).Msg("HTTP server failed")
		return err
	}
}

// dependencies groups everything initDependencies wires so health checkers
// and the router can share the same instances.
type dependencies struct {
	store    store.Store
	cache    *rediscache.Client
	index    semanticindex.Index
	embedder *openaiembed.Provider
	llm      *llm.Client
	imageGen *imagegen.HTTPGenerator
	service  *chat.Service
}

func initDependencies(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*dependencies, error) {
	st, err := factory.NewStore(ctx, cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Store unavailable")
		return nil, err
	}

	rc, err := factory.NewCache(ctx, cfg)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Cache unavailable")
		return nil, err
	}

	idx, err := factory.NewSemanticIndex(ctx, cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Semantic index unavailable")
		return nil, err
	}

	embProvider := factory.NewEmbeddingProvider(cfg)
	llmClient := factory.NewLLMClient(cfg, rc, log)
	sideChannel, gen := factory.NewImageSideChannel(cfg, rc, log)

	sem := semantic.New(embProvider, idx,
		cfg.SemanticTopK, cfg.SemanticMinSimilarity, cfg.SemanticMinHistory, log)

	svc := chat.NewService(
		st,
		dialog.NewManager(cfg.SlotBudget),
		features.NewResolver(st, rc, cfg.FeatureCacheTTL, log),
		recency.NewLoader(cfg.RecencyLimit),
		sem,
		llmClient,
		sideChannel,
		log,
	)
	svc.ConfigureGreeting(cfg.LLMModelStrong, cfg.LLMGreetingTemperature, cfg.LLMGreetingMaxTokens)

	return &dependencies{
		store:    st,
		cache:    rc,
		index:    idx,
		embedder: embProvider,
		llm:      llmClient,
		imageGen: gen,
		service:  svc,
	}, nil
}

// startHealthCheckers starts component probes and the service-level
// aggregator.
func startHealthCheckers(ctx context.Context, cfg *config.Config, log zerolog.Logger, deps *dependencies) *health.ServiceHealthChecker {
	var checkers []health.HealthChecker
	add := func(name string, p health.HealthPinger) {
		c := health.NewPingChecker(name, p, log, cfg.HealthProbeTimeout)
		go c.Start(ctx, cfg.HealthProbeInterval)
		checkers = append(checkers, c)
	}

	if p, ok := deps.store.(health.HealthPinger); ok {
		add("store", p)
	}
	add("cache", deps.cache)
	if p, ok := deps.index.(health.HealthPinger); ok {
		add("semantic-index", p)
	}
	add("embedder", deps.embedder)
	add("llm-gateway", deps.llm)
	add("image-generator", deps.imageGen)

	svcHealth := health.NewServiceHealthChecker(log, checkers...)
	go svcHealth.Start(ctx, cfg.HealthProbeInterval)
	return svcHealth
}

// waitUntilHealthy blocks until the aggregate turns healthy or the startup
// window expires. Checkers start unhealthy and need one probe cycle.
func waitUntilHealthy(ctx context.Context, cfg *config.Config, svcHealth *health.ServiceHealthChecker) error {
	deadline := time.Now().Add(cfg.StartupWait)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		if svcHealth.IsHealthy() {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("startup aborted: dependencies not healthy within %s", cfg.StartupWait)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func newHTTPServer(ctx context.Context, cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}

func serveHTTP(server *http.Server, log zerolog.Logger, cfg *config.Config) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	return errCh
}

// newServerContext returns a context cancelled on SIGINT/SIGTERM.
func newServerContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
