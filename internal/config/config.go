// Feedwise - Personalized News Feed Ranking
// Copyright 2026 Feedwise Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feedwise/feedwise

// Package config loads and validates the Feedwise application
// configuration from layered sources: built-in defaults, an optional
// YAML file, and environment variables, in increasing precedence.
package config

import (
	"fmt"
	"time"

	"github.com/feedwise/feedwise/internal/recommend"
)

// Config is the root application configuration.
type Config struct {
	// Server configures the HTTP API.
	Server ServerConfig `koanf:"server"`

	// Logging configures structured log output.
	Logging LoggingConfig `koanf:"logging"`

	// Seed configures demo data loaded into the in-memory store at
	// startup.
	Seed SeedConfig `koanf:"seed"`

	// Recommend configures the ranking engine.
	Recommend recommend.Config `koanf:"recommend"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	// Host is the listen address. Default: 0.0.0.0.
	Host string `koanf:"host"`

	// Port is the listen port. Default: 8080.
	Port int `koanf:"port"`

	// ReadTimeout bounds request reads. Default: 15s.
	ReadTimeout time.Duration `koanf:"read_timeout"`

	// WriteTimeout bounds response writes. Default: 30s.
	WriteTimeout time.Duration `koanf:"write_timeout"`

	// IdleTimeout bounds keep-alive connections. Default: 60s.
	IdleTimeout time.Duration `koanf:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown. Default: 15s.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// CORSOrigins lists allowed CORS origins. Default: ["*"].
	CORSOrigins []string `koanf:"cors_origins"`

	// RateLimitRequests is the per-client request budget per window.
	// Default: 100.
	RateLimitRequests int `koanf:"rate_limit_requests"`

	// RateLimitWindow is the rate limit window. Default: 1m.
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`

	// RateLimitDisabled turns rate limiting off. Default: false.
	RateLimitDisabled bool `koanf:"rate_limit_disabled"`
}

// LoggingConfig contains log output settings.
type LoggingConfig struct {
	// Level is the minimum log level. Default: info.
	Level string `koanf:"level"`

	// Format is json or console. Default: json.
	Format string `koanf:"format"`

	// Caller includes file and line in log output. Default: false.
	Caller bool `koanf:"caller"`
}

// SeedConfig controls demo data seeding.
type SeedConfig struct {
	// Enabled loads generated articles and interactions at startup.
	// Default: false.
	Enabled bool `koanf:"enabled"`

	// Articles is the number of articles to generate. Default: 200.
	Articles int `koanf:"articles"`

	// Users is the number of users to generate. Default: 20.
	Users int `koanf:"users"`
}

// defaultConfig returns a Config with all defaults applied. Defaults
// are layered first, then overridden by the config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              8080,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
			ShutdownTimeout:   15 * time.Second,
			CORSOrigins:       []string{"*"},
			RateLimitRequests: 100,
			RateLimitWindow:   time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Seed: SeedConfig{
			Enabled:  false,
			Articles: 200,
			Users:    20,
		},
		Recommend: *recommend.DefaultConfig(),
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be positive, got %v", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be positive, got %v", c.Server.WriteTimeout)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be positive, got %v", c.Server.ShutdownTimeout)
	}
	if !c.Server.RateLimitDisabled {
		if c.Server.RateLimitRequests <= 0 {
			return fmt.Errorf("server.rate_limit_requests must be positive, got %d", c.Server.RateLimitRequests)
		}
		if c.Server.RateLimitWindow <= 0 {
			return fmt.Errorf("server.rate_limit_window must be positive, got %v", c.Server.RateLimitWindow)
		}
	}

	switch c.Logging.Level {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "disabled":
	default:
		return fmt.Errorf("logging.level must be a valid level, got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}

	if c.Seed.Enabled {
		if c.Seed.Articles <= 0 {
			return fmt.Errorf("seed.articles must be positive, got %d", c.Seed.Articles)
		}
		if c.Seed.Users <= 0 {
			return fmt.Errorf("seed.users must be positive, got %d", c.Seed.Users)
		}
	}

	if err := c.Recommend.Validate(); err != nil {
		return fmt.Errorf("recommend: %w", err)
	}
	return nil
}
