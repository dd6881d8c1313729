// Feedwise - Personalized News Feed Ranking
// Copyright 2026 Feedwise Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feedwise/feedwise

package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestInit(t *testing.T) {
	t.Run("json output", func(t *testing.T) {
		var buf bytes.Buffer
		Init(Config{Level: "debug", Format: "json", Output: &buf})
		defer Init(DefaultConfig())

		Info().Str("key", "value").Msg("hello")

		out := buf.String()
		if !strings.Contains(out, `"key":"value"`) {
			t.Errorf("missing structured field: %s", out)
		}
		if !strings.Contains(out, `"message":"hello"`) {
			t.Errorf("missing message: %s", out)
		}
	})

	t.Run("level filtering", func(t *testing.T) {
		var buf bytes.Buffer
		Init(Config{Level: "warn", Format: "json", Output: &buf})
		defer Init(DefaultConfig())

		Debug().Msg("quiet")
		Warn().Msg("loud")

		out := buf.String()
		if strings.Contains(out, "quiet") {
			t.Error("debug message emitted at warn level")
		}
		if !strings.Contains(out, "loud") {
			t.Error("warn message suppressed")
		}
	})

	t.Run("console format", func(t *testing.T) {
		var buf bytes.Buffer
		Init(Config{Level: "info", Format: "console", Output: &buf})
		defer Init(DefaultConfig())

		Info().Msg("console line")
		if !strings.Contains(buf.String(), "console line") {
			t.Error("console output missing message")
		}
	})
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"disabled", zerolog.Disabled},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf})
	defer Init(DefaultConfig())

	logger := WithComponent("engine")
	logger.Info().Msg("tagged")

	if !strings.Contains(buf.String(), `"component":"engine"`) {
		t.Errorf("component field missing: %s", buf.String())
	}
}

func TestRequestIDContext(t *testing.T) {
	ctx := context.Background()
	if got := RequestIDFromContext(ctx); got != "" {
		t.Errorf("empty context returned %q", got)
	}

	ctx = ContextWithRequestID(ctx, "req-123")
	if got := RequestIDFromContext(ctx); got != "req-123" {
		t.Errorf("got %q, want req-123", got)
	}

	var buf bytes.Buffer
	SetLogger(NewTestLogger(&buf))
	defer Init(DefaultConfig())

	Ctx(ctx).Info().Msg("with request id")
	if !strings.Contains(buf.String(), `"request_id":"req-123"`) {
		t.Errorf("request_id missing: %s", buf.String())
	}
}

func TestContextWithLogger(t *testing.T) {
	var buf bytes.Buffer
	stored := NewTestLogger(&buf).With().Str("source", "stored").Logger()

	ctx := ContextWithLogger(context.Background(), stored)
	Ctx(ctx).Info().Msg("from context")

	if !strings.Contains(buf.String(), `"source":"stored"`) {
		t.Errorf("context logger not used: %s", buf.String())
	}
}

func TestSlogAdapter(t *testing.T) {
	var buf bytes.Buffer
	handler := NewSlogHandlerWithLogger(NewTestLogger(&buf))
	slogger := slog.New(handler)

	slogger.Info("supervisor event", "service", "corpus-rebuild", "attempts", int64(2))

	out := buf.String()
	if !strings.Contains(out, `"service":"corpus-rebuild"`) {
		t.Errorf("string attr missing: %s", out)
	}
	if !strings.Contains(out, `"attempts":2`) {
		t.Errorf("int attr missing: %s", out)
	}
	if !strings.Contains(out, `"message":"supervisor event"`) {
		t.Errorf("message missing: %s", out)
	}
}
