// Feedwise - Personalized News Feed Ranking
// Copyright 2026 Feedwise Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feedwise/feedwise

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths searched for a config file, in
// order. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/feedwise/config.yaml",
	"/etc/feedwise/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// Load builds the configuration from layered sources:
//  1. Built-in defaults
//  2. Optional YAML config file
//  3. Environment variables (highest precedence)
//
// The result is validated before being returned.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}
	return cfg, nil
}

// findConfigFile returns the first existing config file path, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths lists config paths parsed as comma-separated
// slices when supplied via environment variables.
var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields splits comma-separated env values into slices for
// the known slice fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("setting %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc maps environment variable names to config paths.
// Unmapped variables are skipped so arbitrary environment noise cannot
// leak into the configuration.
//
// Examples:
//   - HTTP_PORT -> server.port
//   - LOG_LEVEL -> logging.level
//   - RECOMMEND_BLEND_CONTENT -> recommend.blend.content
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Server mappings
		"http_host":             "server.host",
		"http_port":             "server.port",
		"http_read_timeout":     "server.read_timeout",
		"http_write_timeout":    "server.write_timeout",
		"http_idle_timeout":     "server.idle_timeout",
		"http_shutdown_timeout": "server.shutdown_timeout",
		"cors_origins":          "server.cors_origins",
		"rate_limit_requests":   "server.rate_limit_requests",
		"rate_limit_window":     "server.rate_limit_window",
		"disable_rate_limit":    "server.rate_limit_disabled",

		// Logging mappings
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",

		// Seed mappings
		"seed_enabled":  "seed.enabled",
		"seed_articles": "seed.articles",
		"seed_users":    "seed.users",

		// Blend weights
		"recommend_blend_content":  "recommend.blend.content",
		"recommend_blend_trending": "recommend.blend.trending",
		"recommend_blend_fresh":    "recommend.blend.fresh",

		// Vectorizer settings
		"recommend_max_features":       "recommend.vectorizer.max_features",
		"recommend_min_doc_count":      "recommend.vectorizer.min_doc_count",
		"recommend_max_doc_ratio":      "recommend.vectorizer.max_doc_ratio",
		"recommend_ngram_max":          "recommend.vectorizer.ngram_max",
		"recommend_corpus_window_days": "recommend.vectorizer.corpus_window_days",
		"recommend_max_corpus_size":    "recommend.vectorizer.max_corpus_size",

		// Profile settings
		"recommend_profile_interactions": "recommend.profile.max_interactions",
		"recommend_profile_half_life":    "recommend.profile.half_life_days",

		// Score thresholds
		"recommend_min_feed_score":    "recommend.similarity.min_feed_score",
		"recommend_min_similar_score": "recommend.similarity.min_similar_score",
		"recommend_source_boost":      "recommend.similarity.preferred_source_boost",

		// Trending and freshness windows
		"recommend_trending_window_hours":   "recommend.trending.window_hours",
		"recommend_freshness_window_hours":  "recommend.freshness.window_hours",
		"recommend_breaking_window_minutes": "recommend.breaking.window_minutes",
		"recommend_breaking_min_velocity":   "recommend.breaking.min_velocity",

		// Diversity caps
		"recommend_max_per_source":   "recommend.diversity.max_per_source",
		"recommend_max_per_category": "recommend.diversity.max_per_category",
		"recommend_backfill":         "recommend.diversity.backfill",

		// Analyzer settings
		"recommend_analyzer_lookback_days": "recommend.analyzer.lookback_days",
		"recommend_analyzer_min_viewed":    "recommend.analyzer.min_viewed_articles",

		// Background jobs
		"recommend_corpus_rebuild_interval": "recommend.jobs.corpus_rebuild_interval",
		"recommend_analyze_interval":        "recommend.jobs.analyze_interval",
		"recommend_analyze_active_days":     "recommend.jobs.analyze_active_days",
		"recommend_refresh_cooldown":        "recommend.jobs.refresh_cooldown",
		"recommend_refresh_queue_size":      "recommend.jobs.refresh_queue_size",
		"recommend_job_timeout":             "recommend.jobs.job_timeout",

		// Limits
		"recommend_default_k":      "recommend.limits.default_k",
		"recommend_max_k":          "recommend.limits.max_k",
		"recommend_max_candidates": "recommend.limits.max_candidates",
		"recommend_signal_timeout": "recommend.limits.signal_timeout",

		// Cache settings
		"recommend_cache_enabled":     "recommend.cache.enabled",
		"recommend_cache_feed_ttl":    "recommend.cache.feed_ttl",
		"recommend_cache_max_entries": "recommend.cache.max_entries",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}
