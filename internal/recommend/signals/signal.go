// Feedwise - Personalized News Feed Ranking
// Copyright 2026 Feedwise Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feedwise/feedwise

package signals

import (
	"context"
	"sort"

	"github.com/feedwise/feedwise/internal/recommend"
)

// Signal produces scored feed candidates for a user. Implementations are
// safe for concurrent use. Raw scores are in [0, 1]; the engine applies
// blend weights.
type Signal interface {
	// Name returns the signal identifier used in logs and breakdowns.
	Name() string

	// Kind returns the signal classification.
	Kind() recommend.SignalKind

	// Recommend returns up to k scored candidates for the user, best
	// first. An empty result is a valid outcome, not an error.
	Recommend(ctx context.Context, userID int64, k int, excludeSeen bool) ([]recommend.Recommendation, error)
}

// sortByScore orders recommendations by score descending, breaking ties
// by newer publication time, then by ID for determinism.
func sortByScore(items []recommend.Recommendation) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		ti, tj := items[i].Article.PublishedAt, items[j].Article.PublishedAt
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return items[i].Article.ID < items[j].Article.ID
	})
}

// seenSet loads the user's viewed article IDs as a set. A nil user or
// disabled exclusion yields an empty set.
func seenSet(ctx context.Context, store recommend.InteractionStore, userID int64, excludeSeen bool) (map[int64]struct{}, error) {
	if !excludeSeen || userID == 0 {
		return map[int64]struct{}{}, nil
	}
	ids, err := store.ViewedArticleIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		seen[id] = struct{}{}
	}
	return seen, nil
}

// clamp01 bounds a score to [0, 1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
