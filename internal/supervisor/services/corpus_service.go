// Feedwise - Personalized News Feed Ranking
// Copyright 2026 Feedwise Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feedwise/feedwise

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// CorpusRebuilder refits the text feature space from recent articles.
// Implemented by the ranking engine.
type CorpusRebuilder interface {
	RebuildCorpus(ctx context.Context) error
}

// CorpusServiceConfig holds configuration for the corpus rebuild
// service.
type CorpusServiceConfig struct {
	// Interval is the time between rebuilds.
	Interval time.Duration

	// Timeout bounds a single rebuild.
	Timeout time.Duration

	// RebuildOnStart runs a rebuild immediately when the service
	// starts, so the feature space is available before the first
	// scheduled tick.
	RebuildOnStart bool
}

// CorpusService periodically refits the text feature space so rankings
// track the moving article window.
type CorpusService struct {
	rebuilder CorpusRebuilder
	config    CorpusServiceConfig
	logger    zerolog.Logger
	name      string
}

// NewCorpusService creates a supervised corpus rebuild service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewCorpusService(rebuilder CorpusRebuilder, cfg CorpusServiceConfig, logger zerolog.Logger) *CorpusService {
	if cfg.Interval <= 0 {
		cfg.Interval = 6 * time.Hour
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Minute
	}
	return &CorpusService{
		rebuilder: rebuilder,
		config:    cfg,
		logger:    logger.With().Str("service", "corpus-rebuild").Logger(),
		name:      "corpus-rebuild",
	}
}

// Serve implements suture.Service.
func (s *CorpusService) Serve(ctx context.Context) error {
	s.logger.Info().
		Dur("interval", s.config.Interval).
		Bool("rebuild_on_start", s.config.RebuildOnStart).
		Msg("corpus rebuild service starting")

	if s.config.RebuildOnStart {
		if err := s.rebuild(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("initial corpus rebuild failed, will retry on schedule")
		}
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("corpus rebuild service shutting down")
			return ctx.Err()
		case <-ticker.C:
			if err := s.rebuild(ctx); err != nil {
				s.logger.Warn().Err(err).Msg("scheduled corpus rebuild failed")
			}
		}
	}
}

func (s *CorpusService) rebuild(ctx context.Context) error {
	rctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()
	return s.rebuilder.RebuildCorpus(rctx)
}

// String returns the service name for supervisor event logs.
func (s *CorpusService) String() string {
	return s.name
}
