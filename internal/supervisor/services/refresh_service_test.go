// Feedwise - Personalized News Feed Ranking
// Copyright 2026 Feedwise Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feedwise/feedwise

package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// mockProcessor blocks until its context is canceled, like the real
// refresh queue worker.
type mockProcessor struct {
	serveErr error
}

func (m *mockProcessor) ProcessRefreshes(ctx context.Context) error {
	if m.serveErr != nil {
		return m.serveErr
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestRefreshService_String(t *testing.T) {
	service := NewRefreshService(&mockProcessor{}, zerolog.Nop())

	if got := service.String(); got != "profile-refresh" {
		t.Errorf("String() = %q, want %q", got, "profile-refresh")
	}
}

func TestRefreshService_GracefulShutdown(t *testing.T) {
	service := NewRefreshService(&mockProcessor{}, zerolog.Nop())

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

func TestRefreshService_PropagatesWorkerError(t *testing.T) {
	wantErr := errors.New("queue closed")
	service := NewRefreshService(&mockProcessor{serveErr: wantErr}, zerolog.Nop())

	if err := service.Serve(context.Background()); !errors.Is(err, wantErr) {
		t.Errorf("Serve() returned %v, want %v", err, wantErr)
	}
}
