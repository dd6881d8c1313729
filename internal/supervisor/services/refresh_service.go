// Feedwise - Personalized News Feed Ranking
// Copyright 2026 Feedwise Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feedwise/feedwise

package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

// RefreshProcessor drains the interaction-driven profile refresh
// queue. Implemented by the ranking engine.
type RefreshProcessor interface {
	ProcessRefreshes(ctx context.Context) error
}

// RefreshService runs the profile refresh worker under supervision so
// a panic or failure restarts it with backoff.
type RefreshService struct {
	processor RefreshProcessor
	logger    zerolog.Logger
	name      string
}

// NewRefreshService creates a supervised refresh worker.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRefreshService(processor RefreshProcessor, logger zerolog.Logger) *RefreshService {
	return &RefreshService{
		processor: processor,
		logger:    logger.With().Str("service", "profile-refresh").Logger(),
		name:      "profile-refresh",
	}
}

// Serve implements suture.Service.
func (s *RefreshService) Serve(ctx context.Context) error {
	s.logger.Info().Msg("profile refresh worker starting")
	err := s.processor.ProcessRefreshes(ctx)
	if errors.Is(err, context.Canceled) {
		s.logger.Info().Msg("profile refresh worker shutting down")
	}
	return err
}

// String returns the service name for supervisor event logs.
func (s *RefreshService) String() string {
	return s.name
}
