// Feedwise - Personalized News Feed Ranking
// Copyright 2026 Feedwise Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feedwise/feedwise

// Package reranking implements post-processing passes that diversify
// ranked feeds across sources and categories.
package reranking

import (
	"context"

	"github.com/feedwise/feedwise/internal/recommend"
)

// Diversity enforces per-source and per-category caps on a ranked list.
// Items are admitted in score order; an item past a cap is set aside.
// When backfill is enabled and the capped list comes up short of k, the
// best set-aside items are re-admitted with the Backfilled flag so
// callers can surface the relaxation.
type Diversity struct {
	maxPerSource   int
	maxPerCategory int
	backfill       bool
}

// NewDiversity creates a diversity reranker. Non-positive caps fall back
// to defaults (3 per source, 4 per category).
func NewDiversity(cfg recommend.DiversityConfig) *Diversity {
	if cfg.MaxPerSource < 1 {
		cfg.MaxPerSource = 3
	}
	if cfg.MaxPerCategory < 1 {
		cfg.MaxPerCategory = 4
	}
	return &Diversity{
		maxPerSource:   cfg.MaxPerSource,
		maxPerCategory: cfg.MaxPerCategory,
		backfill:       cfg.Backfill,
	}
}

// Name returns the reranker identifier.
func (d *Diversity) Name() string {
	return "diversity"
}

// Rerank applies the caps, preserving score order within the admitted
// and backfilled groups.
func (d *Diversity) Rerank(_ context.Context, items []recommend.Recommendation, k int) []recommend.Recommendation {
	if len(items) == 0 || k <= 0 {
		return nil
	}

	selected := make([]recommend.Recommendation, 0, k)
	var overflow []recommend.Recommendation
	bySource := make(map[string]int)
	byCategory := make(map[string]int)

	for _, item := range items {
		if len(selected) >= k {
			break
		}
		source := item.Article.SourceID
		category := item.Article.PrimaryCategory()

		if bySource[source] >= d.maxPerSource || (category != "" && byCategory[category] >= d.maxPerCategory) {
			overflow = append(overflow, item)
			continue
		}

		bySource[source]++
		if category != "" {
			byCategory[category]++
		}
		selected = append(selected, item)
	}

	if d.backfill && len(selected) < k {
		for _, item := range overflow {
			if len(selected) >= k {
				break
			}
			item.Backfilled = true
			selected = append(selected, item)
		}
	}

	return selected
}

// SourceCap limits consecutive picks from the same source in a ranked
// list. Deferred items slot back in as soon as the run breaks, so the
// cap reorders rather than discards.
type SourceCap struct {
	maxRun int
}

// NewSourceCap creates a consecutive-source limiter. A non-positive run
// length defaults to 2.
func NewSourceCap(maxRun int) *SourceCap {
	if maxRun < 1 {
		maxRun = 2
	}
	return &SourceCap{maxRun: maxRun}
}

// Name returns the reranker identifier.
func (s *SourceCap) Name() string {
	return "source_cap"
}

// Rerank interleaves the list so no more than maxRun consecutive items
// share a source, then truncates to k.
func (s *SourceCap) Rerank(_ context.Context, items []recommend.Recommendation, k int) []recommend.Recommendation {
	if len(items) == 0 || k <= 0 {
		return nil
	}

	out := make([]recommend.Recommendation, 0, len(items))
	pending := items

	for len(pending) > 0 {
		progressed := false
		var deferred []recommend.Recommendation
		for _, item := range pending {
			if s.runLength(out, item.Article.SourceID) >= s.maxRun {
				deferred = append(deferred, item)
				continue
			}
			out = append(out, item)
			progressed = true
		}
		if !progressed {
			// Only one source left; the cap cannot be honored further.
			out = append(out, deferred...)
			break
		}
		pending = deferred
	}

	if len(out) > k {
		out = out[:k]
	}
	return out
}

// runLength counts the trailing picks from the given source.
func (s *SourceCap) runLength(out []recommend.Recommendation, source string) int {
	run := 0
	for i := len(out) - 1; i >= 0; i-- {
		if out[i].Article.SourceID != source {
			break
		}
		run++
	}
	return run
}
