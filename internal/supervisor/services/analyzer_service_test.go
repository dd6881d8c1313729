// Feedwise - Personalized News Feed Ranking
// Copyright 2026 Feedwise Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feedwise/feedwise

package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// mockAnalyzer is a mock implementation for testing.
type mockAnalyzer struct {
	mu           sync.Mutex
	analyzeCalls int
	analyzeErr   error
}

func (m *mockAnalyzer) AnalyzeActiveUsers(_ context.Context) error {
	m.mu.Lock()
	m.analyzeCalls++
	m.mu.Unlock()
	return m.analyzeErr
}

func (m *mockAnalyzer) getAnalyzeCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.analyzeCalls
}

func TestAnalyzerService_String(t *testing.T) {
	service := NewAnalyzerService(&mockAnalyzer{}, AnalyzerServiceConfig{}, zerolog.Nop())

	if got := service.String(); got != "preference-analyzer" {
		t.Errorf("String() = %q, want %q", got, "preference-analyzer")
	}
}

func TestAnalyzerService_RunOnStart(t *testing.T) {
	analyzer := &mockAnalyzer{}
	cfg := AnalyzerServiceConfig{
		Interval:   time.Hour, // Long interval to avoid scheduled runs
		RunOnStart: true,
	}

	service := NewAnalyzerService(analyzer, cfg, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_ = service.Serve(ctx)

	if got := analyzer.getAnalyzeCalls(); got != 1 {
		t.Errorf("AnalyzeActiveUsers() called %d times, want 1", got)
	}
}

func TestAnalyzerService_ScheduledRuns(t *testing.T) {
	analyzer := &mockAnalyzer{}
	cfg := AnalyzerServiceConfig{
		Interval: 50 * time.Millisecond, // Short interval for testing
	}

	service := NewAnalyzerService(analyzer, cfg, zerolog.Nop())

	// Run long enough for 2 scheduled analyses
	ctx, cancel := context.WithTimeout(context.Background(), 130*time.Millisecond)
	defer cancel()

	_ = service.Serve(ctx)

	if got := analyzer.getAnalyzeCalls(); got < 2 {
		t.Errorf("AnalyzeActiveUsers() called %d times, want >= 2", got)
	}
}

func TestAnalyzerService_ContinuesAfterError(t *testing.T) {
	analyzer := &mockAnalyzer{analyzeErr: errors.New("query failed")}
	cfg := AnalyzerServiceConfig{
		Interval: 40 * time.Millisecond,
	}

	service := NewAnalyzerService(analyzer, cfg, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 110*time.Millisecond)
	defer cancel()

	_ = service.Serve(ctx)

	if got := analyzer.getAnalyzeCalls(); got < 2 {
		t.Errorf("AnalyzeActiveUsers() called %d times, want >= 2", got)
	}
}

func TestAnalyzerService_GracefulShutdown(t *testing.T) {
	analyzer := &mockAnalyzer{}
	cfg := AnalyzerServiceConfig{
		Interval: time.Hour,
	}

	service := NewAnalyzerService(analyzer, cfg, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- service.Serve(ctx)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve() did not complete in time")
	}
}
