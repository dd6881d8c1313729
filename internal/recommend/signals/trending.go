// Feedwise - Personalized News Feed Ranking
// Copyright 2026 Feedwise Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feedwise/feedwise

package signals

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/feedwise/feedwise/internal/cache"
	"github.com/feedwise/feedwise/internal/recommend"
)

// engagement aggregates interaction counts for one article inside a
// trending window.
type engagement struct {
	views    int64
	likes    int64
	shares   int64
	comments int64
}

// categoryScore is the engagement score used for category-scoped
// trending: views + 2*likes + 3*shares.
func (e engagement) categoryScore() float64 {
	return float64(e.views) + 2*float64(e.likes) + 3*float64(e.shares)
}

// globalScore additionally counts comments, which matter more in the
// cross-category ranking: views + 2*likes + 3*shares + 2*comments.
func (e engagement) globalScore() float64 {
	return e.categoryScore() + 2*float64(e.comments)
}

// Trending ranks recently published articles by windowed engagement.
// It also detects breaking news via early engagement velocity.
type Trending struct {
	articles     recommend.ArticleStore
	interactions recommend.InteractionStore
	prefs        recommend.PreferenceStore
	store        *cache.Cache
	cfg          recommend.TrendingConfig
	breakingCfg  recommend.BreakingConfig
	trendingTTL  time.Duration
	breakingTTL  time.Duration
	logger       zerolog.Logger
	clock        func() time.Time
}

// NewTrending creates the trending signal. A nil cache disables caching.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewTrending(
	articles recommend.ArticleStore,
	interactions recommend.InteractionStore,
	prefs recommend.PreferenceStore,
	store *cache.Cache,
	cfg recommend.TrendingConfig,
	breakingCfg recommend.BreakingConfig,
	trendingTTL, breakingTTL time.Duration,
	logger zerolog.Logger,
) *Trending {
	return &Trending{
		articles:     articles,
		interactions: interactions,
		prefs:        prefs,
		store:        store,
		cfg:          cfg,
		breakingCfg:  breakingCfg,
		trendingTTL:  trendingTTL,
		breakingTTL:  breakingTTL,
		logger:       logger.With().Str("component", "trending").Logger(),
		clock:        time.Now,
	}
}

// Name returns the signal identifier.
func (t *Trending) Name() string { return "trending" }

// Kind returns the signal classification.
func (t *Trending) Kind() recommend.SignalKind { return recommend.SignalTrending }

// Recommend returns trending articles scoped to the user's preferred
// categories when a preference record exists, global trending otherwise.
func (t *Trending) Recommend(ctx context.Context, userID int64, k int, excludeSeen bool) ([]recommend.Recommendation, error) {
	var categories []string
	if userID != 0 && t.prefs != nil {
		rec, ok, err := t.prefs.Preferences(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("load preferences: %w", err)
		}
		if ok {
			categories = rec.Categories
		}
	}

	window := time.Duration(t.cfg.WindowHours) * time.Hour
	items, err := t.trending(ctx, categories, k+len(categories)*2, window)
	if err != nil {
		return nil, err
	}

	if excludeSeen && userID != 0 {
		seen, err := seenSet(ctx, t.interactions, userID, true)
		if err != nil {
			return nil, fmt.Errorf("load seen articles: %w", err)
		}
		filtered := make([]recommend.Recommendation, 0, len(items))
		for _, item := range items {
			if _, wasSeen := seen[item.Article.ID]; wasSeen {
				continue
			}
			filtered = append(filtered, item)
		}
		items = filtered
	}

	if len(items) > k {
		items = items[:k]
	}
	return items, nil
}

// InCategory returns articles trending in one category over the given
// window. A zero window uses the configured default.
func (t *Trending) InCategory(ctx context.Context, category string, k int, window time.Duration) ([]recommend.Recommendation, error) {
	if window <= 0 {
		window = time.Duration(t.cfg.WindowHours) * time.Hour
	}
	return t.trending(ctx, []string{category}, k, window)
}

// Global returns cross-category trending over the given window.
func (t *Trending) Global(ctx context.Context, k int, window time.Duration) ([]recommend.Recommendation, error) {
	if window <= 0 {
		window = time.Duration(t.cfg.WindowHours) * time.Hour
	}
	return t.trending(ctx, nil, k, window)
}

type trendingParams struct {
	Categories []string `json:"categories"`
	K          int      `json:"k"`
	WindowSec  int64    `json:"window_sec"`
}

// trending is the shared ranking path. Empty categories means global.
func (t *Trending) trending(ctx context.Context, categories []string, k int, window time.Duration) ([]recommend.Recommendation, error) {
	key := cache.GenerateKey("trending", trendingParams{
		Categories: categories,
		K:          k,
		WindowSec:  int64(window.Seconds()),
	})
	if t.store != nil {
		if entry, ok := t.store.Get(key); ok {
			if items, ok := entry.([]recommend.Recommendation); ok {
				return items, nil
			}
		}
	}

	since := t.clock().Add(-window)
	articles, err := t.articles.ArticlesByCategories(ctx, categories, since, 0)
	if err != nil {
		return nil, fmt.Errorf("load window articles: %w", err)
	}
	if len(articles) == 0 {
		return nil, nil
	}

	counts, err := t.windowEngagement(ctx, since)
	if err != nil {
		return nil, err
	}

	global := len(categories) == 0
	norm := t.cfg.CategoryNorm
	if global {
		norm = t.cfg.GlobalNorm
	}

	items := make([]recommend.Recommendation, 0, len(articles))
	for _, a := range articles {
		e, ok := counts[a.ID]
		if !ok {
			continue
		}
		var raw float64
		if global {
			raw = e.globalScore()
		} else {
			raw = e.categoryScore()
		}
		if raw <= 0 {
			continue
		}
		score := clamp01(raw / norm)
		items = append(items, recommend.Recommendation{
			Article: a,
			Score:   score,
			Contributions: []recommend.Contribution{{
				Signal: recommend.SignalTrending,
				Score:  score,
				Reason: t.reason(a, categories),
			}},
		})
	}
	sortByScore(items)

	// Oversized pool first, then the per-source cap, then the cut.
	pool := k * t.cfg.PoolMultiplier
	if pool > 0 && len(items) > pool {
		items = items[:pool]
	}
	items = t.capPerSource(items)
	if len(items) > k {
		items = items[:k]
	}

	if t.store != nil {
		t.store.SetWithTTL(key, items, t.trendingTTL)
	}
	return items, nil
}

// Breaking returns very recent articles whose engagement velocity
// suggests a developing story. Scores are min-max normalized over the
// qualifying set.
func (t *Trending) Breaking(ctx context.Context, k int) ([]recommend.Recommendation, error) {
	key := cache.GenerateKey("breaking", trendingParams{K: k})
	if t.store != nil {
		if entry, ok := t.store.Get(key); ok {
			if items, ok := entry.([]recommend.Recommendation); ok {
				return items, nil
			}
		}
	}

	now := t.clock()
	window := time.Duration(t.breakingCfg.WindowMinutes) * time.Minute
	since := now.Add(-window)

	articles, err := t.articles.RecentArticles(ctx, since, 0)
	if err != nil {
		return nil, fmt.Errorf("load recent articles: %w", err)
	}
	if len(articles) == 0 {
		return nil, nil
	}

	counts, err := t.windowEngagement(ctx, since)
	if err != nil {
		return nil, err
	}

	type velocity struct {
		article recommend.Article
		value   float64
	}
	var qualifying []velocity
	maxVelocity := 0.0
	for _, a := range articles {
		e, ok := counts[a.ID]
		if !ok {
			continue
		}
		ageMinutes := now.Sub(a.PublishedAt).Minutes()
		if ageMinutes < 1 {
			ageMinutes = 1
		}
		v := e.globalScore() / ageMinutes
		if v < t.breakingCfg.MinVelocity {
			continue
		}
		qualifying = append(qualifying, velocity{article: a, value: v})
		if v > maxVelocity {
			maxVelocity = v
		}
	}
	if len(qualifying) == 0 {
		return nil, nil
	}

	items := make([]recommend.Recommendation, 0, len(qualifying))
	for _, q := range qualifying {
		score := clamp01(q.value / maxVelocity)
		items = append(items, recommend.Recommendation{
			Article: q.article,
			Score:   score,
			Contributions: []recommend.Contribution{{
				Signal: recommend.SignalBreaking,
				Score:  score,
				Reason: "Breaking news",
			}},
		})
	}
	sortByScore(items)
	if len(items) > k {
		items = items[:k]
	}

	if t.store != nil {
		t.store.SetWithTTL(key, items, t.breakingTTL)
	}
	return items, nil
}

// windowEngagement tallies interaction counts per article since the
// cutoff. Malformed records are skipped per record.
func (t *Trending) windowEngagement(ctx context.Context, since time.Time) (map[int64]engagement, error) {
	interactions, err := t.interactions.Since(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("load window interactions: %w", err)
	}

	counts := make(map[int64]engagement)
	skipped := 0
	for _, in := range interactions {
		if !in.Valid() {
			skipped++
			continue
		}
		e := counts[in.ArticleID]
		switch in.Action {
		case recommend.ActionView, recommend.ActionClick:
			e.views++
		case recommend.ActionLike, recommend.ActionBookmark:
			e.likes++
		case recommend.ActionShare:
			e.shares++
		case recommend.ActionComment:
			e.comments++
		}
		counts[in.ArticleID] = e
	}
	if skipped > 0 {
		t.logger.Warn().Int("skipped", skipped).Msg("skipped malformed interaction records")
	}
	return counts, nil
}

// capPerSource enforces the total per-source cap on an already sorted
// list.
func (t *Trending) capPerSource(items []recommend.Recommendation) []recommend.Recommendation {
	if t.cfg.MaxPerSource < 1 {
		return items
	}
	bySource := make(map[string]int)
	out := make([]recommend.Recommendation, 0, len(items))
	for _, item := range items {
		if bySource[item.Article.SourceID] >= t.cfg.MaxPerSource {
			continue
		}
		bySource[item.Article.SourceID]++
		out = append(out, item)
	}
	return out
}

func (t *Trending) reason(a recommend.Article, categories []string) string {
	for _, c := range categories {
		for _, ac := range a.Categories {
			if c == ac {
				return fmt.Sprintf("Trending in %s", c)
			}
		}
	}
	if cat := a.PrimaryCategory(); cat != "" && len(categories) > 0 {
		return fmt.Sprintf("Trending in %s", cat)
	}
	return "Trending now"
}
