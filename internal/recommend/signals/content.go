// Feedwise - Personalized News Feed Ranking
// Copyright 2026 Feedwise Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feedwise/feedwise

package signals

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/feedwise/feedwise/internal/recommend"
	"github.com/feedwise/feedwise/internal/recommend/reranking"
	"github.com/feedwise/feedwise/internal/recommend/textvec"
)

// poolFactor oversizes the candidate pool ahead of the source cap so the
// cap has material to interleave with.
const poolFactor = 4

// Content ranks articles by cosine similarity between the user's profile
// vector and article vectors in the shared feature space.
type Content struct {
	articles     recommend.ArticleStore
	interactions recommend.InteractionStore
	prefs        recommend.PreferenceStore
	corpus       *Corpus
	profiles     *ProfileBuilder
	sourceCap    *reranking.SourceCap
	cfg          recommend.SimilarityConfig
	logger       zerolog.Logger
}

// NewContent creates the content similarity signal.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewContent(
	articles recommend.ArticleStore,
	interactions recommend.InteractionStore,
	prefs recommend.PreferenceStore,
	corpus *Corpus,
	profiles *ProfileBuilder,
	cfg recommend.SimilarityConfig,
	logger zerolog.Logger,
) *Content {
	return &Content{
		articles:     articles,
		interactions: interactions,
		prefs:        prefs,
		corpus:       corpus,
		profiles:     profiles,
		sourceCap:    reranking.NewSourceCap(2),
		cfg:          cfg,
		logger:       logger.With().Str("component", "content").Logger(),
	}
}

// Name returns the signal identifier.
func (c *Content) Name() string { return "content" }

// Kind returns the signal classification.
func (c *Content) Kind() recommend.SignalKind { return recommend.SignalContent }

// Recommend returns profile-similar articles. A cold-start user (no
// usable history) yields an empty result so the blender can lean on the
// other signals.
func (c *Content) Recommend(ctx context.Context, userID int64, k int, excludeSeen bool) ([]recommend.Recommendation, error) {
	profile, ok, err := c.profiles.Vector(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("build profile: %w", err)
	}
	if !ok {
		c.logger.Debug().Int64("user_id", userID).Msg("no usable profile, skipping content signal")
		return nil, nil
	}

	seen, err := seenSet(ctx, c.interactions, userID, excludeSeen)
	if err != nil {
		return nil, fmt.Errorf("load seen articles: %w", err)
	}

	preferred := c.preferredCategories(ctx, userID)
	items, err := c.rankAgainst(ctx, profile, k, c.cfg.MinFeedScore, func(a recommend.Article, score float64) recommend.Recommendation {
		return recommend.Recommendation{
			Article: a,
			Score:   score,
			Contributions: []recommend.Contribution{{
				Signal: recommend.SignalContent,
				Score:  score,
				Reason: c.feedReason(a, preferred),
			}},
		}
	}, func(id int64) bool {
		_, wasSeen := seen[id]
		return wasSeen
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// Similar returns articles similar to a seed article. When userID is
// non-zero, articles from the user's preferred sources get a score
// boost. Seed articles missing from the corpus are projected on demand.
func (c *Content) Similar(ctx context.Context, articleID int64, k int, userID int64) ([]recommend.Recommendation, error) {
	seed, err := c.articles.Article(ctx, articleID)
	if err != nil {
		return nil, fmt.Errorf("load seed article: %w", err)
	}

	seedVec := c.corpus.VectorFor(seed)
	if len(seedVec) == 0 {
		return nil, nil
	}

	preferredSources := c.preferredSources(ctx, userID)
	items, err := c.rankAgainst(ctx, seedVec, k, c.cfg.MinSimilarScore, func(a recommend.Article, score float64) recommend.Recommendation {
		boosted := score
		if _, ok := preferredSources[a.SourceID]; ok {
			boosted = clamp01(score * c.cfg.PreferredSourceBoost)
		}
		return recommend.Recommendation{
			Article: a,
			Score:   boosted,
			Contributions: []recommend.Contribution{{
				Signal: recommend.SignalContent,
				Score:  boosted,
				Reason: "Similar content",
			}},
		}
	}, func(id int64) bool {
		return id == articleID
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// rankAgainst scores every corpus article against the query vector,
// keeps those at or above minScore, and returns the top k after the
// consecutive-source cap.
func (c *Content) rankAgainst(
	ctx context.Context,
	query textvec.Vector,
	k int,
	minScore float64,
	wrap func(recommend.Article, float64) recommend.Recommendation,
	skip func(int64) bool,
) ([]recommend.Recommendation, error) {
	snap := c.corpus.Snapshot()
	if snap.Len() == 0 {
		return nil, nil
	}

	type scored struct {
		id    int64
		score float64
	}
	candidates := make([]scored, 0, snap.Len())
	for _, id := range snap.IDs() {
		if skip(id) {
			continue
		}
		vec, ok := snap.Vector(id)
		if !ok {
			continue
		}
		score := textvec.Cosine(query, vec)
		if score < minScore {
			continue
		}
		candidates = append(candidates, scored{id: id, score: score})
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	pool := k * poolFactor
	if pool > len(candidates) {
		pool = len(candidates)
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].id < candidates[j].id
	})
	candidates = candidates[:pool]

	ids := make([]int64, len(candidates))
	for i, cand := range candidates {
		ids[i] = cand.id
	}
	articles, err := c.articles.ArticlesByID(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load candidate articles: %w", err)
	}

	items := make([]recommend.Recommendation, 0, len(candidates))
	for _, cand := range candidates {
		a, ok := articles[cand.id]
		if !ok {
			continue
		}
		items = append(items, wrap(a, cand.score))
	}
	sortByScore(items)
	return c.sourceCap.Rerank(ctx, items, k), nil
}

// feedReason explains a content pick in terms of the user's preferred
// categories when possible.
func (c *Content) feedReason(a recommend.Article, preferred map[string]struct{}) string {
	for _, cat := range a.Categories {
		if _, ok := preferred[cat]; ok {
			return fmt.Sprintf("Based on your interest in %s", cat)
		}
	}
	return "Similar content"
}

func (c *Content) preferredCategories(ctx context.Context, userID int64) map[string]struct{} {
	out := make(map[string]struct{})
	if userID == 0 || c.prefs == nil {
		return out
	}
	rec, ok, err := c.prefs.Preferences(ctx, userID)
	if err != nil || !ok {
		return out
	}
	for _, cat := range rec.Categories {
		out[cat] = struct{}{}
	}
	return out
}

func (c *Content) preferredSources(ctx context.Context, userID int64) map[string]struct{} {
	out := make(map[string]struct{})
	if userID == 0 || c.prefs == nil {
		return out
	}
	rec, ok, err := c.prefs.Preferences(ctx, userID)
	if err != nil || !ok {
		return out
	}
	for _, src := range rec.Sources {
		out[src] = struct{}{}
	}
	return out
}

// CategoryFallback returns recent articles from the user's preferred
// categories scored at a flat baseline. Used when similarity ranking has
// nothing to offer. Preferences come from the analyzed record, or are
// inferred from reading history when no record exists yet.
func (c *Content) CategoryFallback(ctx context.Context, userID int64, k int, since time.Time) ([]recommend.Recommendation, error) {
	rec, ok, err := c.prefs.Preferences(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load preferences: %w", err)
	}
	categories := rec.Categories
	if !ok || len(categories) == 0 {
		// No analyzed record yet; infer categories from reading history.
		categories, err = c.inferCategories(ctx, userID)
		if err != nil {
			return nil, err
		}
		if len(categories) == 0 {
			return nil, nil
		}
	}

	articles, err := c.articles.ArticlesByCategories(ctx, categories, since, k)
	if err != nil {
		return nil, fmt.Errorf("load category articles: %w", err)
	}

	const fallbackScore = 0.5
	items := make([]recommend.Recommendation, 0, len(articles))
	for _, a := range articles {
		reason := "From your preferred categories"
		if cat := a.PrimaryCategory(); cat != "" {
			reason = fmt.Sprintf("Based on your interest in %s", cat)
		}
		items = append(items, recommend.Recommendation{
			Article: a,
			Score:   fallbackScore,
			Contributions: []recommend.Contribution{{
				Signal: recommend.SignalFallback,
				Score:  fallbackScore,
				Reason: reason,
			}},
		})
	}
	return items, nil
}

// Inference bounds for the history-derived category fallback.
const (
	inferredCategoryCap    = 3
	inferInteractionWindow = 50
)

// inferCategories derives preferred categories from the user's recent
// interactions, most-read first.
func (c *Content) inferCategories(ctx context.Context, userID int64) ([]string, error) {
	recent, err := c.interactions.RecentByUser(ctx, userID, inferInteractionWindow)
	if err != nil {
		return nil, fmt.Errorf("load interactions: %w", err)
	}
	if len(recent) == 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(recent))
	for _, in := range recent {
		ids = append(ids, in.ArticleID)
	}
	read, err := c.articles.ArticlesByID(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load read articles: %w", err)
	}

	counts := make(map[string]int)
	for _, a := range read {
		if cat := a.PrimaryCategory(); cat != "" {
			counts[cat]++
		}
	}
	categories := make([]string, 0, len(counts))
	for cat := range counts {
		categories = append(categories, cat)
	}
	sort.Slice(categories, func(i, j int) bool {
		if counts[categories[i]] != counts[categories[j]] {
			return counts[categories[i]] > counts[categories[j]]
		}
		return categories[i] < categories[j]
	})
	if len(categories) > inferredCategoryCap {
		categories = categories[:inferredCategoryCap]
	}
	return categories, nil
}
