// Feedwise - Personalized News Feed Ranking
// Copyright 2026 Feedwise Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feedwise/feedwise

// Package metrics provides Prometheus instrumentation for Feedwise:
// feed assembly latency, signal health, cache efficiency, corpus
// rebuilds, preference analysis, and the HTTP API surface.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Feed Assembly Metrics
	FeedRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_requests_total",
			Help: "Total number of feed requests",
		},
		[]string{"mode", "personalized"},
	)

	FeedRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feed_request_duration_seconds",
			Help:    "Feed assembly duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"mode"},
	)

	FeedBackfills = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_backfills_total",
			Help: "Total number of feeds padded by fallback content",
		},
	)

	// Signal Metrics
	SignalErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signal_errors_total",
			Help: "Total number of ranking signal failures",
		},
		[]string{"signal"},
	)

	// Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"}, // "feed", "profile", "trending", "insights"
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cache_entries",
			Help: "Current number of cached entries",
		},
	)

	// Corpus Metrics
	CorpusRebuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "corpus_rebuild_duration_seconds",
			Help:    "Duration of text feature space rebuilds in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
		},
	)

	CorpusArticles = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "corpus_articles",
			Help: "Number of articles in the fitted corpus",
		},
	)

	CorpusVocabulary = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "corpus_vocabulary_size",
			Help: "Number of terms in the fitted vocabulary",
		},
	)

	CorpusVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "corpus_snapshot_version",
			Help: "Version of the active corpus snapshot",
		},
	)

	CorpusRebuildErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "corpus_rebuild_errors_total",
			Help: "Total number of failed corpus rebuilds",
		},
	)

	// Preference Analysis Metrics
	AnalyzerRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analyzer_runs_total",
			Help: "Total number of preference analysis batch runs",
		},
		[]string{"result"}, // "success", "error"
	)

	AnalyzerDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "analyzer_run_duration_seconds",
			Help:    "Duration of preference analysis batch runs in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
		},
	)

	// Interaction Metrics
	InteractionsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interactions_recorded_total",
			Help: "Total number of recorded user interactions",
		},
		[]string{"action"},
	)

	ProfileRefreshes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "profile_refreshes_total",
			Help: "Total number of background profile refreshes",
		},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint"},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)
)

// RecordFeedRequest records one assembled feed.
func RecordFeedRequest(mode string, personalized, backfilled bool, duration time.Duration) {
	FeedRequestsTotal.WithLabelValues(mode, strconv.FormatBool(personalized)).Inc()
	FeedRequestDuration.WithLabelValues(mode).Observe(duration.Seconds())
	if backfilled {
		FeedBackfills.Inc()
	}
}

// RecordSignalError records a failed ranking signal.
func RecordSignalError(signal string) {
	SignalErrors.WithLabelValues(signal).Inc()
}

// RecordCacheLookup records a cache hit or miss for the given cache type.
func RecordCacheLookup(cacheType string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(cacheType).Inc()
		return
	}
	CacheMisses.WithLabelValues(cacheType).Inc()
}

// RecordCorpusRebuild records a completed feature space rebuild.
func RecordCorpusRebuild(duration time.Duration, articles, vocabulary int, version int64) {
	CorpusRebuildDuration.Observe(duration.Seconds())
	CorpusArticles.Set(float64(articles))
	CorpusVocabulary.Set(float64(vocabulary))
	CorpusVersion.Set(float64(version))
}

// RecordAnalyzerRun records one preference analysis batch.
func RecordAnalyzerRun(duration time.Duration, err error) {
	AnalyzerDuration.Observe(duration.Seconds())
	result := "success"
	if err != nil {
		result = "error"
	}
	AnalyzerRuns.WithLabelValues(result).Inc()
}

// RecordInteraction records a stored user interaction by action name.
func RecordInteraction(action string) {
	InteractionsRecorded.WithLabelValues(action).Inc()
}

// RecordAPIRequest records an HTTP request with its outcome.
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordRateLimitHit records a rejected request on the endpoint.
func RecordRateLimitHit(endpoint string) {
	APIRateLimitHits.WithLabelValues(endpoint).Inc()
}
