// Feedwise - Personalized News Feed Ranking
// Copyright 2026 Feedwise Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feedwise/feedwise

package signals

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/feedwise/feedwise/internal/cache"
	"github.com/feedwise/feedwise/internal/recommend"
	"github.com/feedwise/feedwise/internal/recommend/textvec"
)

// ProfileBuilder derives a user's interest vector from their recent
// interaction history. The vector lives in the corpus feature space, so
// it is rebuilt whenever the profile cache entry expires or the user's
// feed is refreshed.
type ProfileBuilder struct {
	interactions recommend.InteractionStore
	articles     recommend.ArticleStore
	corpus       *Corpus
	store        *cache.Cache
	cfg          recommend.ProfileConfig
	ttl          time.Duration
	logger       zerolog.Logger
	clock        func() time.Time
}

// NewProfileBuilder creates a profile builder. A nil cache disables
// profile caching.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewProfileBuilder(
	interactions recommend.InteractionStore,
	articles recommend.ArticleStore,
	corpus *Corpus,
	store *cache.Cache,
	cfg recommend.ProfileConfig,
	ttl time.Duration,
	logger zerolog.Logger,
) *ProfileBuilder {
	return &ProfileBuilder{
		interactions: interactions,
		articles:     articles,
		corpus:       corpus,
		store:        store,
		cfg:          cfg,
		ttl:          ttl,
		logger:       logger.With().Str("component", "profile").Logger(),
		clock:        time.Now,
	}
}

// cachedProfile pins a profile vector to the snapshot it was built in;
// a stale vector from an older feature space is discarded on read.
type cachedProfile struct {
	vector  textvec.Vector
	version int64
}

// Vector returns the user's profile vector. The second return is false
// when the user has no usable history; that is a normal cold-start
// outcome, not an error.
func (b *ProfileBuilder) Vector(ctx context.Context, userID int64) (textvec.Vector, bool, error) {
	snap := b.corpus.Snapshot()
	if snap.Len() == 0 {
		return nil, false, nil
	}

	key := b.cacheKey(userID)
	if b.store != nil {
		if entry, ok := b.store.Get(key); ok {
			if cp, ok := entry.(cachedProfile); ok && cp.version == snap.Version() {
				return cp.vector, len(cp.vector) > 0, nil
			}
		}
	}

	vec, err := b.build(ctx, userID, snap)
	if err != nil {
		return nil, false, err
	}

	if b.store != nil {
		b.store.SetWithTTL(key, cachedProfile{vector: vec, version: snap.Version()}, b.ttl)
	}
	return vec, len(vec) > 0, nil
}

// Invalidate drops the user's cached profile so the next read rebuilds
// it from fresh history.
func (b *ProfileBuilder) Invalidate(userID int64) {
	if b.store != nil {
		b.store.Delete(b.cacheKey(userID))
	}
}

// Refresh rebuilds the user's profile immediately, replacing any cached
// vector. Used by the background refresh worker after significant
// interactions.
func (b *ProfileBuilder) Refresh(ctx context.Context, userID int64) error {
	b.Invalidate(userID)
	_, _, err := b.Vector(ctx, userID)
	return err
}

func (b *ProfileBuilder) cacheKey(userID int64) string {
	return fmt.Sprintf("profile:%d", userID)
}

// articleHistory accumulates a user's interactions with one article.
type articleHistory struct {
	count     int
	maxWeight float64
	latest    time.Time
}

// build assembles the weighted interest text and projects it into the
// feature space.
//
// Per-article weight is recencyDecay * maxActionWeight * depthBonus:
//
//	recencyDecay = exp(-ageDays / halfLife)
//	depthBonus   = 1 + depthFactor * (interactions - 1)
//
// The article text is repeated max(1, round(weight * repetitionScale))
// times, so heavier engagement pulls the profile harder toward that
// article's terms.
func (b *ProfileBuilder) build(ctx context.Context, userID int64, snap *textvec.Snapshot) (textvec.Vector, error) {
	recent, err := b.interactions.RecentByUser(ctx, userID, b.cfg.MaxInteractions)
	if err != nil {
		return nil, fmt.Errorf("load interactions: %w", err)
	}

	now := b.clock()
	perArticle := make(map[int64]*articleHistory)
	skipped := 0
	for _, in := range recent {
		if !in.Valid() {
			skipped++
			continue
		}
		h := perArticle[in.ArticleID]
		if h == nil {
			h = &articleHistory{}
			perArticle[in.ArticleID] = h
		}
		h.count++
		if w := in.Action.Weight(); w > h.maxWeight {
			h.maxWeight = w
		}
		if in.Timestamp.After(h.latest) {
			h.latest = in.Timestamp
		}
	}
	if skipped > 0 {
		b.logger.Warn().
			Int64("user_id", userID).
			Int("skipped", skipped).
			Msg("skipped malformed interaction records")
	}
	if len(perArticle) == 0 {
		return textvec.Vector{}, nil
	}

	ids := make([]int64, 0, len(perArticle))
	for id := range perArticle {
		ids = append(ids, id)
	}
	// Fixed assembly order keeps the vector stable across rebuilds:
	// bigrams form across chunk boundaries, so order changes weights.
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	articles, err := b.articles.ArticlesByID(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load history articles: %w", err)
	}

	var text strings.Builder
	for _, id := range ids {
		a, ok := articles[id]
		if !ok {
			// Deleted articles drop out of the profile silently.
			continue
		}
		weight := b.interactionWeight(perArticle[id], now)
		reps := int(math.Round(weight * b.cfg.RepetitionScale))
		if reps < 1 {
			reps = 1
		}
		chunk := a.VectorText()
		for i := 0; i < reps; i++ {
			text.WriteString(chunk)
			text.WriteByte(' ')
		}
	}

	return snap.Transform(text.String()), nil
}

func (b *ProfileBuilder) interactionWeight(h *articleHistory, now time.Time) float64 {
	ageDays := now.Sub(h.latest).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}
	decay := math.Exp(-ageDays / b.cfg.HalfLifeDays)
	depth := 1 + b.cfg.DepthBonus*float64(h.count-1)
	return decay * h.maxWeight * depth
}
