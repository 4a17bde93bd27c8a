// Package discoveryservice wires the contact discovery core and runs it as
// a long-lived process.
package discoveryservice

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/newsreach/contact-discovery/internal/config"
	"github.com/newsreach/contact-discovery/internal/counter"
	"github.com/newsreach/contact-discovery/internal/emailcheck"
	"github.com/newsreach/contact-discovery/internal/enhance"
	"github.com/newsreach/contact-discovery/internal/extract"
	"github.com/newsreach/contact-discovery/internal/factory"
	"github.com/newsreach/contact-discovery/internal/fetch"
	"github.com/newsreach/contact-discovery/internal/health"
	"github.com/newsreach/contact-discovery/internal/llm"
	"github.com/newsreach/contact-discovery/internal/logger"
	"github.com/newsreach/contact-discovery/internal/ratelimit"
	"github.com/newsreach/contact-discovery/internal/search"
)

// Core bundles the discovery components for embedding callers (the product
// HTTP layer, the CLI, tests).
type Core struct {
	Config       *config.Config
	Store        counter.Store
	Limiter      *ratelimit.Limiter
	Validator    *emailcheck.Validator
	Enhancer     *enhance.Engine
	Generator    llm.TextGenerator
	Orchestrator *search.Orchestrator
}

// BuildCore constructs the full dependency graph from configuration.
func BuildCore(cfg *config.Config, log zerolog.Logger) (*Core, error) {
	store, err := factory.NewCounterStore(cfg, log)
	if err != nil {
		return nil, err
	}

	gen, err := factory.NewTextGenerator(cfg)
	if err != nil {
		return nil, err
	}

	limiter := ratelimit.New(store, ratelimit.PoliciesFromConfig(cfg), log)
	validator := emailcheck.NewValidator(cfg, emailcheck.NewHeuristicClassifier(), log)
	enhancer := enhance.New(gen, cfg, log)
	source := fetch.NewQueryURLSource(cfg.SearchURLTemplate)
	fetcher := fetch.NewHTTPFetcher(cfg.FetchTimeout, cfg.FetchMaxBytes)
	extractor := extract.NewHTMLExtractor()

	orch := search.New(cfg, limiter, enhancer, source, fetcher, extractor, validator, log)

	return &Core{
		Config:       cfg,
		Store:        store,
		Limiter:      limiter,
		Validator:    validator,
		Enhancer:     enhancer,
		Generator:    gen,
		Orchestrator: orch,
	}, nil
}

// Run starts the discovery service and blocks until shutdown or error.
func Run() error {
	log := logger.New("discovery-service")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return err
	}

	// Cancellable root context bound to SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	core, err := BuildCore(cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Failed to build discovery core")
		return err
	}
	defer func() {
		if err := core.Store.Close(); err != nil {
			log.Warn().Err(err).Msg("counter store close")
		}
	}()

	// The failover wrapper needs its recovery probe running.
	if fo, ok := core.Store.(*counter.FailoverStore); ok {
		go fo.StartProbe(ctx, cfg.HealthCheckInterval)
	}

	svcHealth := startHealthCheckers(ctx, cfg, log, core)

	log.Info().
		Str("counter_backend", cfg.CounterBackend).
		Str("llm_provider", cfg.LLMProvider).
		Msg("Discovery service started")

	<-ctx.Done()
	log.Info().Bool("healthy_at_shutdown", svcHealth.IsHealthy()).Msg("Shutting down")
	return nil
}

func startHealthCheckers(ctx context.Context, cfg *config.Config, log zerolog.Logger, core *Core) *health.ServiceHealthChecker {
	var checkers []health.HealthChecker

	// Degraded (fallback serving) still counts as up; only a dead limiter
	// takes the service down.
	storeChecker := health.NewPingChecker("ratelimiter", func(probeCtx context.Context) error {
		if hs := core.Limiter.HealthCheck(probeCtx); hs.Status == "unhealthy" {
			return fmt.Errorf("rate limiter unhealthy (latency %s)", hs.Latency)
		}
		return nil
	}, log, cfg.HealthCheckInterval)
	go storeChecker.Start(ctx, cfg.HealthCheckInterval)
	checkers = append(checkers, storeChecker)

	if p, ok := core.Generator.(health.HealthPinger); ok {
		llmChecker := health.NewPingChecker("llm", p.HealthPing, log, cfg.HealthCheckInterval)
		go llmChecker.Start(ctx, cfg.HealthCheckInterval)
		checkers = append(checkers, llmChecker)
	}

	svcHealth := health.NewServiceHealthChecker(log, checkers...)
	go svcHealth.Start(ctx, cfg.HealthCheckInterval)
	return svcHealth
}
