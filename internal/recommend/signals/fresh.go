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

	"github.com/feedwise/feedwise/internal/recommend"
)

// Fresh scores recently published articles by recency: an article
// published right now scores 1.0, decaying linearly to 0 at the window
// edge. Articles in the user's preferred categories rank ahead of the
// rest of the window; without a preference record the whole corpus
// competes on recency alone. This keeps brand-new articles in feeds
// before any engagement accumulates.
type Fresh struct {
	articles     recommend.ArticleStore
	interactions recommend.InteractionStore
	prefs        recommend.PreferenceStore
	cfg          recommend.FreshnessConfig
	logger       zerolog.Logger
	clock        func() time.Time
}

// NewFresh creates the freshness signal.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewFresh(
	articles recommend.ArticleStore,
	interactions recommend.InteractionStore,
	prefs recommend.PreferenceStore,
	cfg recommend.FreshnessConfig,
	logger zerolog.Logger,
) *Fresh {
	return &Fresh{
		articles:     articles,
		interactions: interactions,
		prefs:        prefs,
		cfg:          cfg,
		logger:       logger.With().Str("component", "fresh").Logger(),
		clock:        time.Now,
	}
}

// Name returns the signal identifier.
func (f *Fresh) Name() string { return "fresh" }

// Kind returns the signal classification.
func (f *Fresh) Kind() recommend.SignalKind { return recommend.SignalFresh }

// Recommend returns the freshest unseen articles in the window,
// preferred categories first.
func (f *Fresh) Recommend(ctx context.Context, userID int64, k int, excludeSeen bool) ([]recommend.Recommendation, error) {
	now := f.clock()
	window := time.Duration(f.cfg.WindowHours) * time.Hour
	since := now.Add(-window)

	articles, err := f.articles.RecentArticles(ctx, since, 0)
	if err != nil {
		return nil, fmt.Errorf("load fresh articles: %w", err)
	}
	if len(articles) == 0 {
		return nil, nil
	}

	seen, err := seenSet(ctx, f.interactions, userID, excludeSeen)
	if err != nil {
		return nil, fmt.Errorf("load seen articles: %w", err)
	}

	preferred := f.preferredCategories(ctx, userID)

	windowHours := window.Hours()
	inPreferred := make([]recommend.Recommendation, 0, len(articles))
	rest := make([]recommend.Recommendation, 0, len(articles))
	for _, a := range articles {
		if _, wasSeen := seen[a.ID]; wasSeen {
			continue
		}
		ageHours := now.Sub(a.PublishedAt).Hours()
		if ageHours < 0 {
			ageHours = 0
		}
		score := clamp01(1 - ageHours/windowHours)
		if score <= 0 {
			continue
		}
		reason := "Fresh news"
		if a.SourceID != "" {
			reason = fmt.Sprintf("Fresh from %s", a.SourceID)
		}
		item := recommend.Recommendation{
			Article: a,
			Score:   score,
			Contributions: []recommend.Contribution{{
				Signal: recommend.SignalFresh,
				Score:  score,
				Reason: reason,
			}},
		}
		if inCategories(a, preferred) {
			inPreferred = append(inPreferred, item)
		} else {
			rest = append(rest, item)
		}
	}

	sortByScore(inPreferred)
	sortByScore(rest)
	items := append(inPreferred, rest...)
	if len(items) > k {
		items = items[:k]
	}
	return items, nil
}

// preferredCategories reads the user's analyzed categories; any lookup
// problem degrades to the unscoped window.
func (f *Fresh) preferredCategories(ctx context.Context, userID int64) map[string]struct{} {
	if userID == 0 || f.prefs == nil {
		return nil
	}
	rec, ok, err := f.prefs.Preferences(ctx, userID)
	if err != nil {
		f.logger.Warn().Err(err).Int64("user_id", userID).Msg("preference lookup failed, ignoring")
		return nil
	}
	if !ok || len(rec.Categories) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(rec.Categories))
	for _, cat := range rec.Categories {
		out[cat] = struct{}{}
	}
	return out
}

func inCategories(a recommend.Article, set map[string]struct{}) bool {
	for _, cat := range a.Categories {
		if _, ok := set[cat]; ok {
			return true
		}
	}
	return false
}
