// Feedwise - Personalized News Feed Ranking
// Copyright 2026 Feedwise Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feedwise/feedwise

// Package main is the entry point for the Feedwise ranking server.
//
// Feedwise serves personalized news feeds over a REST API. Rankings
// blend content similarity against a per-user TF-IDF profile with
// engagement trending and recency, then rerank for source and
// category diversity.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: layered defaults, YAML file, and env vars (Koanf v2)
//  2. Store: in-memory article and interaction store, optionally seeded
//  3. Corpus: initial TF-IDF feature space fit over recent articles
//  4. Signals: content similarity, trending, and freshness rankers
//  5. Engine: blend, diversity reranking, caching, and fallbacks
//  6. Supervisor tree: background jobs and the HTTP server (suture)
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins):
//   - Environment variables (e.g. HTTP_PORT, LOG_LEVEL, SEED_ENABLED)
//   - Config file (config.yaml)
//   - Built-in defaults
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM:
//   - Stops accepting new connections
//   - Waits for in-flight requests to complete
//   - Stops background jobs and the refresh worker
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/feedwise/feedwise/internal/api"
	"github.com/feedwise/feedwise/internal/cache"
	"github.com/feedwise/feedwise/internal/config"
	"github.com/feedwise/feedwise/internal/logging"
	"github.com/feedwise/feedwise/internal/recommend"
	"github.com/feedwise/feedwise/internal/recommend/analyzer"
	"github.com/feedwise/feedwise/internal/recommend/reranking"
	"github.com/feedwise/feedwise/internal/recommend/signals"
	"github.com/feedwise/feedwise/internal/store"
	"github.com/feedwise/feedwise/internal/supervisor"
	"github.com/feedwise/feedwise/internal/supervisor/services"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Bool("seed", cfg.Seed.Enabled).
		Msg("Starting Feedwise")

	logger := logging.Logger()

	// In-memory store, optionally seeded with demo data.
	mem := store.NewMemory()
	if cfg.Seed.Enabled {
		store.Seed(mem, cfg.Seed.Articles, cfg.Seed.Users, logger)
	}

	entryCache := cache.New(cfg.Recommend.Cache.FeedTTL, cfg.Recommend.Cache.MaxEntries)
	defer entryCache.Stop()

	engine, insights, err := buildEngine(cfg, mem, entryCache, logger)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to build ranking engine")
	}

	// Fit the feature space before serving so the first requests see a
	// populated corpus. An empty store is fine; the rebuild job refits
	// once articles arrive.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), cfg.Recommend.Jobs.JobTimeout)
	if err := engine.RebuildCorpus(startupCtx); err != nil {
		logging.Warn().Err(err).Msg("Initial corpus fit failed, continuing with fallbacks")
	}
	startupCancel()

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Bridge zerolog to slog for sutureslog compatibility.
	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  cfg.Server.ShutdownTimeout,
	})

	tree.AddJobService(services.NewCorpusService(engine, services.CorpusServiceConfig{
		Interval: cfg.Recommend.Jobs.CorpusRebuildInterval,
		Timeout:  cfg.Recommend.Jobs.JobTimeout,
	}, logger))
	tree.AddJobService(services.NewAnalyzerService(engine, services.AnalyzerServiceConfig{
		Interval:   cfg.Recommend.Jobs.AnalyzeInterval,
		Timeout:    cfg.Recommend.Jobs.JobTimeout,
		RunOnStart: true,
	}, logger))
	tree.AddJobService(services.NewRefreshService(engine, logger))

	handler := api.NewHandler(engine, insights, logger)
	middleware := api.NewChiMiddlewareFromServer(
		cfg.Server.CORSOrigins,
		cfg.Server.RateLimitRequests,
		cfg.Server.RateLimitWindow,
		cfg.Server.RateLimitDisabled,
	)
	router := api.NewRouter(handler, middleware)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	tree.AddAPIService(services.NewHTTPServerService(httpServer, cfg.Server.ShutdownTimeout))

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", httpServer.Addr).Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Wait for the error channel to close (supervisor finished)
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	// Report any services that failed to stop within timeout
	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Application stopped gracefully")
}

// buildEngine wires the signals, analyzer, and reranker into the
// ranking engine over the given store and cache.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func buildEngine(cfg *config.Config, mem *store.Memory, entryCache *cache.Cache, logger zerolog.Logger) (*recommend.Engine, *analyzer.Analyzer, error) {
	rec := &cfg.Recommend

	corpus := signals.NewCorpus(mem, rec.Vectorizer, logger)
	profiles := signals.NewProfileBuilder(mem, mem, corpus, entryCache, rec.Profile, rec.Cache.ProfileTTL, logger)
	content := signals.NewContent(mem, mem, mem, corpus, profiles, rec.Similarity, logger)
	trending := signals.NewTrending(mem, mem, mem, entryCache, rec.Trending, rec.Breaking, rec.Cache.TrendingTTL, rec.Cache.BreakingTTL, logger)
	fresh := signals.NewFresh(mem, mem, mem, rec.Freshness, logger)
	insights := analyzer.New(mem, mem, mem, entryCache, rec.Analyzer, rec.Cache.InsightsTTL, logger)

	engine, err := recommend.NewEngine(rec, recommend.EngineDeps{
		Signals:      []recommend.Signal{content, trending, fresh},
		Rerankers:    []recommend.Reranker{reranking.NewDiversity(rec.Diversity)},
		Similarity:   content,
		Trending:     trending,
		Corpus:       corpus,
		Profiles:     profiles,
		Analyzer:     insights,
		Articles:     mem,
		Interactions: mem,
		Writer:       mem,
		Cache:        entryCache,
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("creating engine: %w", err)
	}
	return engine, insights, nil
}
