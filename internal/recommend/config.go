// Feedwise - Personalized News Feed Ranking
// Copyright 2026 Feedwise Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feedwise/feedwise

package recommend

import (
	"fmt"
	"time"
)

// Config contains all configuration for the ranking engine.
type Config struct {
	// Blend defines the relative contribution of each feed signal.
	// Weights are normalized at runtime, so they don't need to sum to 1.0.
	Blend BlendWeights `json:"blend" koanf:"blend"`

	// Vectorizer contains parameters for the TF-IDF feature space.
	Vectorizer VectorizerConfig `json:"vectorizer" koanf:"vectorizer"`

	// Profile contains parameters for user profile construction.
	Profile ProfileConfig `json:"profile" koanf:"profile"`

	// Similarity contains parameters for content similarity ranking.
	Similarity SimilarityConfig `json:"similarity" koanf:"similarity"`

	// Trending contains parameters for engagement-based trending.
	Trending TrendingConfig `json:"trending" koanf:"trending"`

	// Freshness contains parameters for the recency signal.
	Freshness FreshnessConfig `json:"freshness" koanf:"freshness"`

	// Breaking contains parameters for breaking news detection.
	Breaking BreakingConfig `json:"breaking" koanf:"breaking"`

	// Diversity contains parameters for diversity reranking.
	Diversity DiversityConfig `json:"diversity" koanf:"diversity"`

	// Analyzer contains parameters for the preference analyzer.
	Analyzer AnalyzerConfig `json:"analyzer" koanf:"analyzer"`

	// Jobs contains background job schedule parameters.
	Jobs JobsConfig `json:"jobs" koanf:"jobs"`

	// Limits contains operational limits.
	Limits LimitsConfig `json:"limits" koanf:"limits"`

	// Cache contains caching parameters.
	Cache CacheConfig `json:"cache" koanf:"cache"`
}

// BlendWeights defines the relative contribution of each feed signal.
type BlendWeights struct {
	// Content is the weight for profile-similarity ranking.
	Content float64 `json:"content" koanf:"content"`

	// Trending is the weight for engagement-based trending.
	Trending float64 `json:"trending" koanf:"trending"`

	// Fresh is the weight for recency.
	Fresh float64 `json:"fresh" koanf:"fresh"`
}

// Normalize returns a copy with weights normalized to sum to 1.0.
func (w BlendWeights) Normalize() BlendWeights {
	sum := w.Content + w.Trending + w.Fresh
	if sum == 0 {
		const equalWeight = 1.0 / 3.0
		return BlendWeights{Content: equalWeight, Trending: equalWeight, Fresh: equalWeight}
	}
	return BlendWeights{
		Content:  w.Content / sum,
		Trending: w.Trending / sum,
		Fresh:    w.Fresh / sum,
	}
}

// ToMap returns the weights as a string-keyed map.
func (w BlendWeights) ToMap() map[string]float64 {
	return map[string]float64{
		"content":  w.Content,
		"trending": w.Trending,
		"fresh":    w.Fresh,
	}
}

// VectorizerConfig contains parameters for the TF-IDF feature space.
type VectorizerConfig struct {
	// MaxFeatures caps the vocabulary size. Terms are kept by corpus
	// frequency. Default: 5000.
	MaxFeatures int `json:"max_features" koanf:"max_features"`

	// MinDocCount excludes terms appearing in fewer documents.
	// Default: 2.
	MinDocCount int `json:"min_doc_count" koanf:"min_doc_count"`

	// MaxDocRatio excludes terms appearing in more than this fraction of
	// documents. Default: 0.95.
	MaxDocRatio float64 `json:"max_doc_ratio" koanf:"max_doc_ratio"`

	// NgramMax is the maximum n-gram length. Default: 2 (unigrams+bigrams).
	NgramMax int `json:"ngram_max" koanf:"ngram_max"`

	// CorpusWindowDays bounds the corpus to recently published articles.
	// Default: 30.
	CorpusWindowDays int `json:"corpus_window_days" koanf:"corpus_window_days"`

	// MaxCorpusSize caps the number of articles vectorized per rebuild.
	// Default: 1000.
	MaxCorpusSize int `json:"max_corpus_size" koanf:"max_corpus_size"`
}

// ProfileConfig contains parameters for user profile construction.
type ProfileConfig struct {
	// MaxInteractions is the number of most recent interactions considered.
	// Default: 50.
	MaxInteractions int `json:"max_interactions" koanf:"max_interactions"`

	// HalfLifeDays controls exponential recency decay of interaction
	// weight. Default: 30.
	HalfLifeDays float64 `json:"half_life_days" koanf:"half_life_days"`

	// DepthBonus is the per-extra-interaction multiplier for repeated
	// engagement with the same article. Default: 0.2.
	DepthBonus float64 `json:"depth_bonus" koanf:"depth_bonus"`

	// RepetitionScale converts interaction weight into text repetitions.
	// Default: 3.
	RepetitionScale float64 `json:"repetition_scale" koanf:"repetition_scale"`
}

// SimilarityConfig contains parameters for content similarity ranking.
type SimilarityConfig struct {
	// MinFeedScore is the minimum cosine similarity for feed candidates.
	// Default: 0.1.
	MinFeedScore float64 `json:"min_feed_score" koanf:"min_feed_score"`

	// MinSimilarScore is the minimum cosine similarity for related-article
	// lookups. Default: 0.2.
	MinSimilarScore float64 `json:"min_similar_score" koanf:"min_similar_score"`

	// PreferredSourceBoost multiplies scores of articles from the user's
	// preferred sources in related-article lookups. Default: 1.2.
	PreferredSourceBoost float64 `json:"preferred_source_boost" koanf:"preferred_source_boost"`
}

// TrendingConfig contains parameters for engagement-based trending.
type TrendingConfig struct {
	// WindowHours is the default trending window. Default: 24.
	WindowHours int `json:"window_hours" koanf:"window_hours"`

	// CategoryNorm divides category-scoped engagement scores into [0, 1].
	// Default: 100.
	CategoryNorm float64 `json:"category_norm" koanf:"category_norm"`

	// GlobalNorm divides global engagement scores into [0, 1].
	// Default: 200.
	GlobalNorm float64 `json:"global_norm" koanf:"global_norm"`

	// PoolMultiplier oversizes the candidate pool before source diversity
	// is applied. Default: 2.
	PoolMultiplier int `json:"pool_multiplier" koanf:"pool_multiplier"`

	// MaxPerSource caps articles per source in trending output.
	// Default: 2.
	MaxPerSource int `json:"max_per_source" koanf:"max_per_source"`
}

// FreshnessConfig contains parameters for the recency signal.
type FreshnessConfig struct {
	// WindowHours is the freshness window. Articles older than this score
	// zero. Default: 12.
	WindowHours int `json:"window_hours" koanf:"window_hours"`
}

// BreakingConfig contains parameters for breaking news detection.
type BreakingConfig struct {
	// WindowMinutes is the publication window. Default: 60.
	WindowMinutes int `json:"window_minutes" koanf:"window_minutes"`

	// MinVelocity is the minimum engagement-per-minute to qualify.
	// Default: 0.5.
	MinVelocity float64 `json:"min_velocity" koanf:"min_velocity"`
}

// DiversityConfig contains parameters for diversity reranking.
type DiversityConfig struct {
	// MaxPerSource caps articles per source in the final feed.
	// Default: 3.
	MaxPerSource int `json:"max_per_source" koanf:"max_per_source"`

	// MaxPerCategory caps articles per primary category in the final feed.
	// Default: 4.
	MaxPerCategory int `json:"max_per_category" koanf:"max_per_category"`

	// Backfill re-admits capped items, flagged, when the feed would
	// otherwise come up short. Default: true.
	Backfill bool `json:"backfill" koanf:"backfill"`
}

// AnalyzerConfig contains parameters for the preference analyzer.
type AnalyzerConfig struct {
	// LookbackDays is the analysis window. Default: 30.
	LookbackDays int `json:"lookback_days" koanf:"lookback_days"`

	// MinViewedArticles is the minimum distinct viewed articles required
	// before preferences are written back. Default: 10.
	MinViewedArticles int `json:"min_viewed_articles" koanf:"min_viewed_articles"`

	// TopK is the number of top categories and sources retained.
	// Default: 5.
	TopK int `json:"top_k" koanf:"top_k"`

	// TopKeywords is the number of keywords retained. Default: 10.
	TopKeywords int `json:"top_keywords" koanf:"top_keywords"`
}

// JobsConfig contains background job schedule parameters.
type JobsConfig struct {
	// CorpusRebuildInterval is the time between feature-space rebuilds.
	// Default: 6h.
	CorpusRebuildInterval time.Duration `json:"corpus_rebuild_interval" koanf:"corpus_rebuild_interval"`

	// AnalyzeInterval is the time between batch preference analysis runs.
	// Default: 24h.
	AnalyzeInterval time.Duration `json:"analyze_interval" koanf:"analyze_interval"`

	// AnalyzeActiveDays bounds batch analysis to recently active users.
	// Default: 7.
	AnalyzeActiveDays int `json:"analyze_active_days" koanf:"analyze_active_days"`

	// RefreshCooldown is the per-user debounce for interaction-driven feed
	// refreshes. Default: 10m.
	RefreshCooldown time.Duration `json:"refresh_cooldown" koanf:"refresh_cooldown"`

	// RefreshQueueSize is the buffered refresh queue capacity.
	// Default: 1024.
	RefreshQueueSize int `json:"refresh_queue_size" koanf:"refresh_queue_size"`

	// JobTimeout is the maximum time allowed for a background run.
	// Default: 10m.
	JobTimeout time.Duration `json:"job_timeout" koanf:"job_timeout"`
}

// LimitsConfig contains operational limits.
type LimitsConfig struct {
	// DefaultK is the default feed size. Default: 10.
	DefaultK int `json:"default_k" koanf:"default_k"`

	// MaxK is the maximum allowed feed size. Default: 50.
	MaxK int `json:"max_k" koanf:"max_k"`

	// MaxCandidates caps the candidate pool per signal. Default: 500.
	MaxCandidates int `json:"max_candidates" koanf:"max_candidates"`

	// SignalTimeout is the maximum time for a single signal to respond.
	// Default: 2s.
	SignalTimeout time.Duration `json:"signal_timeout" koanf:"signal_timeout"`
}

// CacheConfig contains per-entry-type cache TTLs.
type CacheConfig struct {
	// Enabled controls whether caching is active. Default: true.
	Enabled bool `json:"enabled" koanf:"enabled"`

	// FeedTTL caches assembled feeds. Default: 30m.
	FeedTTL time.Duration `json:"feed_ttl" koanf:"feed_ttl"`

	// ProfileTTL caches user profile vectors. Default: 10m.
	ProfileTTL time.Duration `json:"profile_ttl" koanf:"profile_ttl"`

	// TrendingTTL caches trending lists. Default: 15m.
	TrendingTTL time.Duration `json:"trending_ttl" koanf:"trending_ttl"`

	// BreakingTTL caches breaking news lists. Default: 5m.
	BreakingTTL time.Duration `json:"breaking_ttl" koanf:"breaking_ttl"`

	// ExploreTTL caches explore feeds. Default: 10m.
	ExploreTTL time.Duration `json:"explore_ttl" koanf:"explore_ttl"`

	// InsightsTTL caches analyzer insights. Default: 1h.
	InsightsTTL time.Duration `json:"insights_ttl" koanf:"insights_ttl"`

	// MaxEntries is the maximum number of cached entries. Default: 10000.
	MaxEntries int `json:"max_entries" koanf:"max_entries"`
}

// DefaultConfig returns a Config with sensible production defaults.
func DefaultConfig() *Config {
	return &Config{
		Blend: BlendWeights{
			Content:  0.6,
			Trending: 0.3,
			Fresh:    0.1,
		},
		Vectorizer: VectorizerConfig{
			MaxFeatures:      5000,
			MinDocCount:      2,
			MaxDocRatio:      0.95,
			NgramMax:         2,
			CorpusWindowDays: 30,
			MaxCorpusSize:    1000,
		},
		Profile: ProfileConfig{
			MaxInteractions: 50,
			HalfLifeDays:    30,
			DepthBonus:      0.2,
			RepetitionScale: 3,
		},
		Similarity: SimilarityConfig{
			MinFeedScore:         0.1,
			MinSimilarScore:      0.2,
			PreferredSourceBoost: 1.2,
		},
		Trending: TrendingConfig{
			WindowHours:    24,
			CategoryNorm:   100,
			GlobalNorm:     200,
			PoolMultiplier: 2,
			MaxPerSource:   2,
		},
		Freshness: FreshnessConfig{
			WindowHours: 12,
		},
		Breaking: BreakingConfig{
			WindowMinutes: 60,
			MinVelocity:   0.5,
		},
		Diversity: DiversityConfig{
			MaxPerSource:   3,
			MaxPerCategory: 4,
			Backfill:       true,
		},
		Analyzer: AnalyzerConfig{
			LookbackDays:      30,
			MinViewedArticles: 10,
			TopK:              5,
			TopKeywords:       10,
		},
		Jobs: JobsConfig{
			CorpusRebuildInterval: 6 * time.Hour,
			AnalyzeInterval:       24 * time.Hour,
			AnalyzeActiveDays:     7,
			RefreshCooldown:       10 * time.Minute,
			RefreshQueueSize:      1024,
			JobTimeout:            10 * time.Minute,
		},
		Limits: LimitsConfig{
			DefaultK:      10,
			MaxK:          50,
			MaxCandidates: 500,
			SignalTimeout: 2 * time.Second,
		},
		Cache: CacheConfig{
			Enabled:     true,
			FeedTTL:     30 * time.Minute,
			ProfileTTL:  10 * time.Minute,
			TrendingTTL: 15 * time.Minute,
			BreakingTTL: 5 * time.Minute,
			ExploreTTL:  10 * time.Minute,
			InsightsTTL: time.Hour,
			MaxEntries:  10000,
		},
	}
}

// Validate checks the configuration for errors.
//
//nolint:gocyclo // validation needs to check many fields
func (c *Config) Validate() error {
	if c.Blend.Content < 0 || c.Blend.Trending < 0 || c.Blend.Fresh < 0 {
		return fmt.Errorf("blend weights must be non-negative, got %+v", c.Blend)
	}

	if c.Vectorizer.MaxFeatures < 1 {
		return fmt.Errorf("vectorizer.max_features must be positive, got %d", c.Vectorizer.MaxFeatures)
	}
	if c.Vectorizer.MinDocCount < 1 {
		return fmt.Errorf("vectorizer.min_doc_count must be positive, got %d", c.Vectorizer.MinDocCount)
	}
	if c.Vectorizer.MaxDocRatio <= 0 || c.Vectorizer.MaxDocRatio > 1 {
		return fmt.Errorf("vectorizer.max_doc_ratio must be in (0, 1], got %f", c.Vectorizer.MaxDocRatio)
	}
	if c.Vectorizer.NgramMax < 1 || c.Vectorizer.NgramMax > 3 {
		return fmt.Errorf("vectorizer.ngram_max must be in [1, 3], got %d", c.Vectorizer.NgramMax)
	}
	if c.Vectorizer.MaxCorpusSize < 1 {
		return fmt.Errorf("vectorizer.max_corpus_size must be positive, got %d", c.Vectorizer.MaxCorpusSize)
	}

	if c.Profile.MaxInteractions < 1 {
		return fmt.Errorf("profile.max_interactions must be positive, got %d", c.Profile.MaxInteractions)
	}
	if c.Profile.HalfLifeDays <= 0 {
		return fmt.Errorf("profile.half_life_days must be positive, got %f", c.Profile.HalfLifeDays)
	}

	if c.Similarity.MinFeedScore < 0 || c.Similarity.MinFeedScore > 1 {
		return fmt.Errorf("similarity.min_feed_score must be in [0, 1], got %f", c.Similarity.MinFeedScore)
	}
	if c.Similarity.MinSimilarScore < 0 || c.Similarity.MinSimilarScore > 1 {
		return fmt.Errorf("similarity.min_similar_score must be in [0, 1], got %f", c.Similarity.MinSimilarScore)
	}

	if c.Trending.WindowHours < 1 {
		return fmt.Errorf("trending.window_hours must be positive, got %d", c.Trending.WindowHours)
	}
	if c.Trending.CategoryNorm <= 0 || c.Trending.GlobalNorm <= 0 {
		return fmt.Errorf("trending norms must be positive, got %f / %f", c.Trending.CategoryNorm, c.Trending.GlobalNorm)
	}

	if c.Freshness.WindowHours < 1 {
		return fmt.Errorf("freshness.window_hours must be positive, got %d", c.Freshness.WindowHours)
	}

	if c.Breaking.WindowMinutes < 1 {
		return fmt.Errorf("breaking.window_minutes must be positive, got %d", c.Breaking.WindowMinutes)
	}

	if c.Diversity.MaxPerSource < 1 {
		return fmt.Errorf("diversity.max_per_source must be positive, got %d", c.Diversity.MaxPerSource)
	}
	if c.Diversity.MaxPerCategory < 1 {
		return fmt.Errorf("diversity.max_per_category must be positive, got %d", c.Diversity.MaxPerCategory)
	}

	if c.Analyzer.LookbackDays < 1 {
		return fmt.Errorf("analyzer.lookback_days must be positive, got %d", c.Analyzer.LookbackDays)
	}
	if c.Analyzer.MinViewedArticles < 0 {
		return fmt.Errorf("analyzer.min_viewed_articles must be non-negative, got %d", c.Analyzer.MinViewedArticles)
	}
	if c.Analyzer.TopK < 1 {
		return fmt.Errorf("analyzer.top_k must be positive, got %d", c.Analyzer.TopK)
	}

	if c.Jobs.CorpusRebuildInterval <= 0 {
		return fmt.Errorf("jobs.corpus_rebuild_interval must be positive, got %v", c.Jobs.CorpusRebuildInterval)
	}
	if c.Jobs.AnalyzeInterval <= 0 {
		return fmt.Errorf("jobs.analyze_interval must be positive, got %v", c.Jobs.AnalyzeInterval)
	}
	if c.Jobs.RefreshCooldown < 0 {
		return fmt.Errorf("jobs.refresh_cooldown must be non-negative, got %v", c.Jobs.RefreshCooldown)
	}
	if c.Jobs.RefreshQueueSize < 1 {
		return fmt.Errorf("jobs.refresh_queue_size must be positive, got %d", c.Jobs.RefreshQueueSize)
	}

	if c.Limits.DefaultK < 1 {
		return fmt.Errorf("limits.default_k must be positive, got %d", c.Limits.DefaultK)
	}
	if c.Limits.MaxK < c.Limits.DefaultK {
		return fmt.Errorf("limits.max_k must be >= limits.default_k, got %d < %d", c.Limits.MaxK, c.Limits.DefaultK)
	}
	if c.Limits.MaxCandidates < 1 {
		return fmt.Errorf("limits.max_candidates must be positive, got %d", c.Limits.MaxCandidates)
	}
	if c.Limits.SignalTimeout <= 0 {
		return fmt.Errorf("limits.signal_timeout must be positive, got %v", c.Limits.SignalTimeout)
	}

	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	// Direct field copy - all nested structs contain only value types
	clone := *c
	return &clone
}
