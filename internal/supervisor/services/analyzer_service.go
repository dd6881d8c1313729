// Feedwise - Personalized News Feed Ranking
// Copyright 2026 Feedwise Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feedwise/feedwise

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/feedwise/feedwise/internal/metrics"
)

// UserAnalyzer runs preference analysis for recently active users.
// Implemented by the ranking engine.
type UserAnalyzer interface {
	AnalyzeActiveUsers(ctx context.Context) error
}

// AnalyzerServiceConfig holds configuration for the scheduled
// preference analysis service.
type AnalyzerServiceConfig struct {
	// Interval is the time between batch runs.
	Interval time.Duration

	// Timeout bounds a single batch run.
	Timeout time.Duration

	// RunOnStart triggers a batch immediately at startup.
	RunOnStart bool
}

// AnalyzerService periodically derives reading preferences for active
// users so the personalization signals stay current.
type AnalyzerService struct {
	analyzer UserAnalyzer
	config   AnalyzerServiceConfig
	logger   zerolog.Logger
	name     string
}

// NewAnalyzerService creates a supervised preference analysis service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewAnalyzerService(analyzer UserAnalyzer, cfg AnalyzerServiceConfig, logger zerolog.Logger) *AnalyzerService {
	if cfg.Interval <= 0 {
		cfg.Interval = 24 * time.Hour
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Minute
	}
	return &AnalyzerService{
		analyzer: analyzer,
		config:   cfg,
		logger:   logger.With().Str("service", "preference-analyzer").Logger(),
		name:     "preference-analyzer",
	}
}

// Serve implements suture.Service.
func (s *AnalyzerService) Serve(ctx context.Context) error {
	s.logger.Info().
		Dur("interval", s.config.Interval).
		Bool("run_on_start", s.config.RunOnStart).
		Msg("preference analyzer service starting")

	if s.config.RunOnStart {
		if err := s.analyze(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("initial analysis batch failed, will retry on schedule")
		}
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("preference analyzer service shutting down")
			return ctx.Err()
		case <-ticker.C:
			if err := s.analyze(ctx); err != nil {
				s.logger.Warn().Err(err).Msg("scheduled analysis batch failed")
			}
		}
	}
}

func (s *AnalyzerService) analyze(ctx context.Context) error {
	actx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	start := time.Now()
	err := s.analyzer.AnalyzeActiveUsers(actx)
	metrics.RecordAnalyzerRun(time.Since(start), err)
	return err
}

// String returns the service name for supervisor event logs.
func (s *AnalyzerService) String() string {
	return s.name
}
