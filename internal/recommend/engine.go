// Feedwise - Personalized News Feed Ranking
// Copyright 2026 Feedwise Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feedwise/feedwise

package recommend

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/feedwise/feedwise/internal/cache"
	"github.com/feedwise/feedwise/internal/metrics"
)

// Signal produces candidate recommendations from one ranking strategy.
// Implementations must be safe for concurrent use.
type Signal interface {
	// Name returns the signal identifier used in logs and metadata.
	Name() string

	// Kind returns the signal classification for blend weighting.
	Kind() SignalKind

	// Recommend returns up to k candidates with raw scores in [0, 1].
	Recommend(ctx context.Context, userID int64, k int, excludeSeen bool) ([]Recommendation, error)
}

// SimilarityProvider answers article-to-article similarity queries and
// category-based fallback lookups.
type SimilarityProvider interface {
	Similar(ctx context.Context, articleID int64, k int, userID int64) ([]Recommendation, error)
	CategoryFallback(ctx context.Context, userID int64, k int, since time.Time) ([]Recommendation, error)
}

// TrendingProvider answers scoped trending and breaking-news queries.
type TrendingProvider interface {
	InCategory(ctx context.Context, category string, k int, window time.Duration) ([]Recommendation, error)
	Global(ctx context.Context, k int, window time.Duration) ([]Recommendation, error)
	Breaking(ctx context.Context, k int) ([]Recommendation, error)
}

// CorpusManager owns the text feature space lifecycle.
type CorpusManager interface {
	Rebuild(ctx context.Context) error
	Version() int64
}

// ProfileRefresher maintains cached user profile vectors.
type ProfileRefresher interface {
	Invalidate(userID int64)
	Refresh(ctx context.Context, userID int64) error
}

// PreferenceAnalyzer derives and persists reading preferences.
type PreferenceAnalyzer interface {
	UpdatePreferences(ctx context.Context, userID int64) (bool, error)
}

// InteractionWriter records user interactions.
type InteractionWriter interface {
	AddInteraction(in Interaction)
}

// EngineDeps collects the engine's collaborators. Signals, Articles,
// Interactions, and Corpus are required; the rest degrade gracefully
// when absent.
type EngineDeps struct {
	Signals      []Signal
	Rerankers    []Reranker
	Similarity   SimilarityProvider
	Trending     TrendingProvider
	Corpus       CorpusManager
	Profiles     ProfileRefresher
	Analyzer     PreferenceAnalyzer
	Articles     ArticleStore
	Interactions InteractionStore
	Writer       InteractionWriter
	Cache        *cache.Cache
}

// EngineStats is a point-in-time snapshot of engine counters.
type EngineStats struct {
	Requests       int64 `json:"requests"`
	CacheHits      int64 `json:"cache_hits"`
	CacheMisses    int64 `json:"cache_misses"`
	SignalFailures int64 `json:"signal_failures"`
	RefreshDrops   int64 `json:"refresh_drops"`
}

// Engine assembles ranked feeds by fanning requests out to the
// registered signals, blending their scores, and reranking the result.
// It is safe for concurrent use.
type Engine struct {
	cfg     *Config
	weights BlendWeights
	logger  zerolog.Logger

	signals   []Signal
	rerankers []Reranker

	similarity SimilarityProvider
	trending   TrendingProvider
	corpus     CorpusManager
	profiles   ProfileRefresher
	analyzer   PreferenceAnalyzer

	articles     ArticleStore
	interactions InteractionStore
	writer       InteractionWriter

	store *cache.Cache

	// Per-user cache epoch. Bumped on every recorded interaction so
	// cached feeds for that user stop matching without key enumeration.
	epochMu sync.Mutex
	epochs  map[int64]uint64

	refreshCh   chan refreshRequest
	refreshMu   sync.Mutex
	lastRefresh map[int64]time.Time

	requests       atomic.Int64
	cacheHits      atomic.Int64
	cacheMisses    atomic.Int64
	signalFailures atomic.Int64
	refreshDrops   atomic.Int64

	clock func() time.Time
}

// NewEngine validates the configuration and dependencies and returns a
// ready engine.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, deps EngineDeps, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if len(deps.Signals) == 0 {
		return nil, fmt.Errorf("at least one signal is required")
	}
	if deps.Articles == nil {
		return nil, fmt.Errorf("article store is required")
	}
	if deps.Interactions == nil {
		return nil, fmt.Errorf("interaction store is required")
	}
	if deps.Corpus == nil {
		return nil, fmt.Errorf("corpus manager is required")
	}

	queueSize := cfg.Jobs.RefreshQueueSize
	if queueSize <= 0 {
		queueSize = 1
	}

	return &Engine{
		cfg:          cfg,
		weights:      cfg.Blend.Normalize(),
		logger:       logger.With().Str("component", "engine").Logger(),
		signals:      deps.Signals,
		rerankers:    deps.Rerankers,
		similarity:   deps.Similarity,
		trending:     deps.Trending,
		corpus:       deps.Corpus,
		profiles:     deps.Profiles,
		analyzer:     deps.Analyzer,
		articles:     deps.Articles,
		interactions: deps.Interactions,
		writer:       deps.Writer,
		store:        deps.Cache,
		epochs:       make(map[int64]uint64),
		refreshCh:    make(chan refreshRequest, queueSize),
		lastRefresh:  make(map[int64]time.Time),
		clock:        time.Now,
	}, nil
}

// Feed produces a ranked feed for the request. Signal failures degrade
// the blend rather than failing the request; an entirely empty catalog
// yields an empty feed.
func (e *Engine) Feed(ctx context.Context, req FeedRequest) (*FeedResponse, error) {
	start := e.clock()
	e.requests.Add(1)
	req = e.prepareRequest(req)
	logger := e.requestLogger(req)

	if resp, ok := e.cachedFeed(req); ok {
		e.cacheHits.Add(1)
		metrics.RecordCacheLookup("feed", true)
		resp.Metadata.LatencyMS = time.Since(start).Milliseconds()
		logger.Debug().Msg("feed served from cache")
		return resp, nil
	}
	e.cacheMisses.Add(1)
	metrics.RecordCacheLookup("feed", false)

	results := e.collectSignals(ctx, req, logger)
	blended, signalsUsed, personalized := e.blend(req, results)
	if req.Mode == ModeExplore {
		var augmented []string
		blended, augmented = e.exploreAugment(ctx, req, blended, logger)
		signalsUsed = append(signalsUsed, augmented...)
		blended = e.injectDiscoveries(ctx, req, blended, logger)
	}
	total := len(blended)

	sortRecommendations(blended)
	items := blended
	for _, r := range e.rerankers {
		items = r.Rerank(ctx, items, req.K)
	}
	if len(items) > req.K {
		items = items[:req.K]
	}

	items, backfilled := e.backfill(ctx, req, items, logger)
	if !backfilled {
		for _, it := range items {
			if it.Backfilled {
				backfilled = true
				break
			}
		}
	}

	resp := &FeedResponse{
		Items:           items,
		TotalCandidates: total,
		Metadata: FeedMetadata{
			RequestID:       req.RequestID,
			UserID:          req.UserID,
			Mode:            req.Mode.String(),
			SignalsUsed:     signalsUsed,
			LatencyMS:       time.Since(start).Milliseconds(),
			Personalized:    personalized,
			BackfillUsed:    backfilled,
			SnapshotVersion: e.corpus.Version(),
			Timestamp:       start.UTC(),
		},
	}

	e.cacheFeed(req, resp)
	metrics.RecordFeedRequest(resp.Metadata.Mode, personalized, backfilled, time.Since(start))
	logger.Debug().
		Int("items", len(items)).
		Int("candidates", total).
		Bool("personalized", personalized).
		Bool("backfilled", backfilled).
		Msg("feed assembled")
	return resp, nil
}

// Similar returns articles similar to the given one, with the reader's
// preferred sources boosted when userID is non-zero.
func (e *Engine) Similar(ctx context.Context, articleID int64, k int, userID int64) ([]Recommendation, error) {
	if e.similarity == nil {
		return nil, fmt.Errorf("similarity provider not configured")
	}
	k = e.clampK(k)

	type similarParams struct {
		ArticleID int64 `json:"article_id"`
		K         int   `json:"k"`
		UserID    int64 `json:"user_id"`
		Version   int64 `json:"version"`
	}
	key := cache.GenerateKey("similar", similarParams{
		ArticleID: articleID, K: k, UserID: userID, Version: e.corpus.Version(),
	})

	if e.cacheEnabled() {
		if cached, ok := e.store.Get(key); ok {
			if items, ok := cached.([]Recommendation); ok {
				return items, nil
			}
		}
	}

	items, err := e.similarity.Similar(ctx, articleID, k, userID)
	if err != nil {
		return nil, err
	}
	if e.cacheEnabled() {
		e.store.SetWithTTL(key, items, e.cfg.Cache.FeedTTL)
	}
	return items, nil
}

// Trending returns the globally trending articles, or the category
// scope when category is non-empty.
func (e *Engine) Trending(ctx context.Context, category string, k int) ([]Recommendation, error) {
	if e.trending == nil {
		return nil, fmt.Errorf("trending provider not configured")
	}
	k = e.clampK(k)
	if category != "" {
		return e.trending.InCategory(ctx, category, k, 0)
	}
	return e.trending.Global(ctx, k, 0)
}

// Breaking returns articles with unusually fast early engagement.
func (e *Engine) Breaking(ctx context.Context, k int) ([]Recommendation, error) {
	if e.trending == nil {
		return nil, fmt.Errorf("trending provider not configured")
	}
	return e.trending.Breaking(ctx, e.clampK(k))
}

// RecordInteraction persists an interaction, invalidates the user's
// cached feeds, and schedules a debounced profile refresh for
// significant actions.
func (e *Engine) RecordInteraction(ctx context.Context, in Interaction) error {
	if !in.Valid() {
		return fmt.Errorf("invalid interaction: user=%d article=%d", in.UserID, in.ArticleID)
	}
	if e.writer == nil {
		return fmt.Errorf("interaction writer not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	e.writer.AddInteraction(in)
	e.bumpEpoch(in.UserID)
	metrics.RecordInteraction(in.Action.String())

	if in.Action.Significant() {
		e.enqueueRefresh(in.UserID, in.Action.Engaging())
	}
	return nil
}

// ProcessRefreshes drains the profile refresh queue until the context
// is canceled. Intended to run as a supervised background worker.
func (e *Engine) ProcessRefreshes(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req := <-e.refreshCh:
			e.processRefresh(ctx, req)
		}
	}
}

func (e *Engine) processRefresh(ctx context.Context, req refreshRequest) {
	rctx, cancel := context.WithTimeout(ctx, e.cfg.Jobs.JobTimeout)
	defer cancel()

	if e.profiles != nil {
		if err := e.profiles.Refresh(rctx, req.userID); err != nil {
			e.logger.Warn().Err(err).Int64("user_id", req.userID).Msg("profile refresh failed")
		} else {
			metrics.ProfileRefreshes.Inc()
			e.logger.Debug().Int64("user_id", req.userID).Msg("profile refreshed")
		}
	}

	if req.analyze && e.analyzer != nil {
		if _, err := e.analyzer.UpdatePreferences(rctx, req.userID); err != nil {
			e.logger.Warn().Err(err).Int64("user_id", req.userID).Msg("preference analysis failed")
		}
	}
}

// RebuildCorpus refits the text feature space from recent articles.
func (e *Engine) RebuildCorpus(ctx context.Context) error {
	return e.corpus.Rebuild(ctx)
}

// AnalyzeActiveUsers runs preference analysis for every user active
// within the configured window. Per-user failures are logged and
// skipped.
func (e *Engine) AnalyzeActiveUsers(ctx context.Context) error {
	if e.analyzer == nil {
		return nil
	}
	since := e.clock().AddDate(0, 0, -e.cfg.Jobs.AnalyzeActiveDays)
	userIDs, err := e.interactions.ActiveUserIDs(ctx, since)
	if err != nil {
		return fmt.Errorf("listing active users: %w", err)
	}

	var updated, failed int
	for _, userID := range userIDs {
		if err := ctx.Err(); err != nil {
			return err
		}
		ok, err := e.analyzer.UpdatePreferences(ctx, userID)
		if err != nil {
			failed++
			e.logger.Warn().Err(err).Int64("user_id", userID).Msg("preference analysis failed")
			continue
		}
		if ok {
			updated++
		}
	}

	e.logger.Info().
		Int("active_users", len(userIDs)).
		Int("updated", updated).
		Int("failed", failed).
		Msg("preference analysis batch complete")
	return nil
}

// Stats returns a snapshot of the engine counters.
func (e *Engine) Stats() EngineStats {
	return EngineStats{
		Requests:       e.requests.Load(),
		CacheHits:      e.cacheHits.Load(),
		CacheMisses:    e.cacheMisses.Load(),
		SignalFailures: e.signalFailures.Load(),
		RefreshDrops:   e.refreshDrops.Load(),
	}
}

func (e *Engine) prepareRequest(req FeedRequest) FeedRequest {
	req.K = e.clampK(req.K)
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	return req
}

func (e *Engine) clampK(k int) int {
	if k <= 0 {
		return e.cfg.Limits.DefaultK
	}
	if k > e.cfg.Limits.MaxK {
		return e.cfg.Limits.MaxK
	}
	return k
}

func (e *Engine) requestLogger(req FeedRequest) zerolog.Logger {
	return e.logger.With().
		Str("request_id", req.RequestID).
		Int64("user_id", req.UserID).
		Str("mode", req.Mode.String()).
		Int("k", req.K).
		Logger()
}

// signalResult carries one signal's outcome across the fan-out join.
type signalResult struct {
	name    string
	kind    SignalKind
	items   []Recommendation
	err     error
	elapsed time.Duration
}

// collectSignals fans the request out to every applicable signal with a
// per-signal timeout. Failed signals are logged and excluded so one
// slow or broken strategy cannot take the feed down.
func (e *Engine) collectSignals(ctx context.Context, req FeedRequest, logger zerolog.Logger) []signalResult {
	poolK := req.K * 3
	if poolK > e.cfg.Limits.MaxCandidates {
		poolK = e.cfg.Limits.MaxCandidates
	}
	if poolK < req.K {
		poolK = req.K
	}

	active := make([]Signal, 0, len(e.signals))
	for _, s := range e.signals {
		// Explore drops personalization: no similarity ranking, and the
		// preference-scoped trending signal is replaced by the global
		// and breaking pulls in exploreAugment.
		if req.Mode == ModeExplore && (s.Kind() == SignalContent || s.Kind() == SignalTrending) {
			continue
		}
		active = append(active, s)
	}

	results := make([]signalResult, len(active))
	var g errgroup.Group
	for i, s := range active {
		idx, sig := i, s
		g.Go(func() error {
			sctx, cancel := context.WithTimeout(ctx, e.cfg.Limits.SignalTimeout)
			defer cancel()

			start := time.Now()
			items, err := sig.Recommend(sctx, req.UserID, poolK, req.ExcludeSeen)
			results[idx] = signalResult{
				name:    sig.Name(),
				kind:    sig.Kind(),
				items:   items,
				err:     err,
				elapsed: time.Since(start),
			}
			// Signal failures degrade the blend rather than aborting
			// the fan-out, so they are carried in the result instead.
			return nil
		})
	}
	// Goroutines always return nil; failures ride in the results.
	_ = g.Wait()

	for _, r := range results {
		if r.err != nil {
			e.signalFailures.Add(1)
			metrics.RecordSignalError(r.name)
			logger.Warn().Err(r.err).Str("signal", r.name).Dur("elapsed", r.elapsed).Msg("signal failed, excluding from blend")
		}
	}
	return results
}

// blend merges signal candidates into one scored list. Each article's
// score is the sum of its weighted signal scores; an article surfaced
// by several signals accumulates all of their contributions.
func (e *Engine) blend(req FeedRequest, results []signalResult) ([]Recommendation, []string, bool) {
	weights := e.blendWeights(req.Mode)

	merged := make(map[int64]*Recommendation)
	var order []int64
	signalsUsed := make([]string, 0, len(results))
	personalized := false

	for _, r := range results {
		if r.err != nil {
			continue
		}
		signalsUsed = append(signalsUsed, r.name)
		weight := weights[r.kind]
		if len(r.items) > 0 && r.kind == SignalContent {
			personalized = true
		}

		for _, item := range r.items {
			id := item.Article.ID
			entry, ok := merged[id]
			if !ok {
				rec := Recommendation{Article: item.Article}
				merged[id] = &rec
				entry = &rec
				order = append(order, id)
			}
			for _, c := range item.Contributions {
				c.Weighted = weight * c.Score
				entry.Score += c.Weighted
				entry.Contributions = append(entry.Contributions, c)
			}
		}
	}

	out := make([]Recommendation, 0, len(order))
	for _, id := range order {
		out = append(out, *merged[id])
	}
	return out, signalsUsed, personalized
}

// blendWeights returns per-kind weights for the mode. Explore mode
// drops the similarity weight and renormalizes over discovery signals.
func (e *Engine) blendWeights(mode FeedMode) map[SignalKind]float64 {
	w := e.weights
	if mode == ModeExplore {
		w = BlendWeights{Trending: e.weights.Trending, Fresh: e.weights.Fresh}.Normalize()
	}
	return map[SignalKind]float64{
		SignalContent:  w.Content,
		SignalTrending: w.Trending,
		SignalFresh:    w.Fresh,
	}
}

// Discovery injection bounds for explore mode.
const (
	discoverWindowHours = 48
	discoverSlots       = 2
	discoverScore       = 0.3
)

// Explore sourcing bounds.
const (
	exploreBreakingSlots  = 5
	exploreTrendingWindow = 48 * time.Hour
)

// exploreAugment pulls breaking news and globally-scoped trending into
// an explore blend. Breaking items keep their pinned scores unweighted
// so they surface ahead of everything else; global trending carries the
// explore trending weight. Pull failures degrade to the blended items.
func (e *Engine) exploreAugment(ctx context.Context, req FeedRequest, items []Recommendation, logger zerolog.Logger) ([]Recommendation, []string) {
	if e.trending == nil {
		return items, nil
	}
	weights := e.blendWeights(ModeExplore)

	var used []string
	breaking, err := e.trending.Breaking(ctx, exploreBreakingSlots)
	if err != nil {
		logger.Warn().Err(err).Msg("explore breaking pull failed")
	} else if len(breaking) > 0 {
		items = mergeContributions(items, breaking, 1.0)
		used = append(used, "breaking")
	}

	half := req.K / 2
	if half < 1 {
		half = 1
	}
	global, err := e.trending.Global(ctx, half, exploreTrendingWindow)
	if err != nil {
		logger.Warn().Err(err).Msg("explore global trending pull failed")
	} else if len(global) > 0 {
		items = mergeContributions(items, global, weights[SignalTrending])
		used = append(used, "trending_global")
	}
	return items, used
}

// mergeContributions folds extra candidates into a blended list,
// accumulating weighted contributions for articles already present.
func mergeContributions(items, extra []Recommendation, weight float64) []Recommendation {
	index := make(map[int64]int, len(items))
	for i, it := range items {
		index[it.Article.ID] = i
	}
	for _, item := range extra {
		idx, ok := index[item.Article.ID]
		if !ok {
			items = append(items, Recommendation{Article: item.Article})
			idx = len(items) - 1
			index[item.Article.ID] = idx
		}
		for _, c := range item.Contributions {
			c.Weighted = weight * c.Score
			items[idx].Score += c.Weighted
			items[idx].Contributions = append(items[idx].Contributions, c)
		}
	}
	return items
}

// injectDiscoveries adds recent articles from categories the user has
// not engaged with, so explore feeds surface new ground instead of
// only reweighting familiar signals. Failures skip the injection; the
// blended feed stands on its own.
func (e *Engine) injectDiscoveries(ctx context.Context, req FeedRequest, items []Recommendation, logger zerolog.Logger) []Recommendation {
	recent, err := e.interactions.RecentByUser(ctx, req.UserID, e.cfg.Profile.MaxInteractions)
	if err != nil {
		logger.Warn().Err(err).Msg("discovery skipped: interaction lookup failed")
		return items
	}
	ids := make([]int64, 0, len(recent))
	for _, in := range recent {
		ids = append(ids, in.ArticleID)
	}

	engaged := make(map[string]struct{})
	if len(ids) > 0 {
		read, err := e.articles.ArticlesByID(ctx, ids)
		if err != nil {
			logger.Warn().Err(err).Msg("discovery skipped: article lookup failed")
			return items
		}
		for _, a := range read {
			for _, c := range a.Categories {
				engaged[c] = struct{}{}
			}
		}
	}

	since := e.clock().Add(-discoverWindowHours * time.Hour)
	pool, err := e.articles.RecentArticles(ctx, since, e.cfg.Limits.MaxCandidates)
	if err != nil {
		logger.Warn().Err(err).Msg("discovery skipped: recent article lookup failed")
		return items
	}

	have := make(map[int64]struct{}, len(items))
	for _, it := range items {
		have[it.Article.ID] = struct{}{}
	}

	added := 0
	for _, a := range pool {
		if added >= discoverSlots {
			break
		}
		cat := a.PrimaryCategory()
		if cat == "" {
			continue
		}
		if _, ok := engaged[cat]; ok {
			continue
		}
		if _, ok := have[a.ID]; ok {
			continue
		}
		items = append(items, Recommendation{
			Article: a,
			Score:   discoverScore,
			Contributions: []Contribution{{
				Signal:   SignalExplore,
				Score:    discoverScore,
				Weighted: discoverScore,
				Reason:   "Discover something new",
			}},
		})
		have[a.ID] = struct{}{}
		added++
	}
	if added > 0 {
		logger.Debug().Int("added", added).Msg("injected unexplored category articles")
	}
	return items
}

// backfill pads a short feed toward K: first from the user's preferred
// categories, then from the latest published articles. Padding never
// duplicates an article already in the feed.
func (e *Engine) backfill(ctx context.Context, req FeedRequest, items []Recommendation, logger zerolog.Logger) ([]Recommendation, bool) {
	need := req.K - len(items)
	if need <= 0 {
		return items, false
	}

	have := make(map[int64]struct{}, len(items))
	for _, it := range items {
		have[it.Article.ID] = struct{}{}
	}

	used := false
	if e.similarity != nil && req.UserID != 0 {
		since := e.clock().AddDate(0, 0, -e.cfg.Vectorizer.CorpusWindowDays)
		fallback, err := e.similarity.CategoryFallback(ctx, req.UserID, need+len(items), since)
		if err != nil {
			logger.Warn().Err(err).Msg("category fallback failed")
		}
		for _, f := range fallback {
			if need == 0 {
				break
			}
			if _, ok := have[f.Article.ID]; ok {
				continue
			}
			f.Backfilled = true
			items = append(items, f)
			have[f.Article.ID] = struct{}{}
			need--
			used = true
		}
	}

	if need > 0 {
		added, err := e.latestBackfill(ctx, req, items, have, need)
		if err != nil {
			logger.Warn().Err(err).Msg("latest-articles fallback failed")
		}
		if len(added) > 0 {
			items = append(items, added...)
			used = true
		}
	}
	return items, used
}

func (e *Engine) latestBackfill(ctx context.Context, req FeedRequest, items []Recommendation, have map[int64]struct{}, need int) ([]Recommendation, error) {
	limit := need + len(items) + len(have)
	latest, err := e.articles.RecentArticles(ctx, time.Time{}, limit)
	if err != nil {
		return nil, err
	}

	var seen map[int64]struct{}
	if req.ExcludeSeen && req.UserID != 0 {
		ids, err := e.interactions.ViewedArticleIDs(ctx, req.UserID)
		if err != nil {
			return nil, err
		}
		seen = make(map[int64]struct{}, len(ids))
		for _, id := range ids {
			seen[id] = struct{}{}
		}
	}

	added := make([]Recommendation, 0, need)
	for _, a := range latest {
		if need == 0 {
			break
		}
		if _, ok := have[a.ID]; ok {
			continue
		}
		if _, ok := seen[a.ID]; ok {
			continue
		}
		added = append(added, Recommendation{
			Article:    a,
			Backfilled: true,
			Contributions: []Contribution{{
				Signal: SignalFallback,
				Reason: "Latest news",
			}},
		})
		have[a.ID] = struct{}{}
		need--
	}
	return added, nil
}

type feedCacheParams struct {
	UserID      int64  `json:"user_id"`
	K           int    `json:"k"`
	ExcludeSeen bool   `json:"exclude_seen"`
	Mode        int    `json:"mode"`
	Epoch       uint64 `json:"epoch"`
	Version     int64  `json:"version"`
}

func (e *Engine) feedCacheKey(req FeedRequest) string {
	return cache.GenerateKey("feed", feedCacheParams{
		UserID:      req.UserID,
		K:           req.K,
		ExcludeSeen: req.ExcludeSeen,
		Mode:        int(req.Mode),
		Epoch:       e.epoch(req.UserID),
		Version:     e.corpus.Version(),
	})
}

func (e *Engine) cacheEnabled() bool {
	return e.store != nil && e.cfg.Cache.Enabled
}

func (e *Engine) cachedFeed(req FeedRequest) (*FeedResponse, bool) {
	if !e.cacheEnabled() {
		return nil, false
	}
	cached, ok := e.store.Get(e.feedCacheKey(req))
	if !ok {
		return nil, false
	}
	stored, ok := cached.(FeedResponse)
	if !ok {
		return nil, false
	}

	resp := stored
	resp.Items = make([]Recommendation, len(stored.Items))
	copy(resp.Items, stored.Items)
	resp.Metadata.RequestID = req.RequestID
	resp.Metadata.CacheHit = true
	return &resp, true
}

func (e *Engine) cacheFeed(req FeedRequest, resp *FeedResponse) {
	if !e.cacheEnabled() {
		return
	}
	ttl := e.cfg.Cache.FeedTTL
	if req.Mode == ModeExplore {
		ttl = e.cfg.Cache.ExploreTTL
	}
	e.store.SetWithTTL(e.feedCacheKey(req), *resp, ttl)
}

func (e *Engine) epoch(userID int64) uint64 {
	e.epochMu.Lock()
	defer e.epochMu.Unlock()
	return e.epochs[userID]
}

func (e *Engine) bumpEpoch(userID int64) {
	e.epochMu.Lock()
	e.epochs[userID]++
	e.epochMu.Unlock()
}

// refreshRequest is one unit of work for the refresh worker. analyze
// additionally re-runs preference analysis for the user.
type refreshRequest struct {
	userID  int64
	analyze bool
}

// enqueueRefresh schedules a profile rebuild unless one ran for this
// user inside the cooldown window. A full queue drops the request;
// the periodic analyzer job will catch the user up.
func (e *Engine) enqueueRefresh(userID int64, analyze bool) {
	now := e.clock()

	e.refreshMu.Lock()
	last, ok := e.lastRefresh[userID]
	if ok && now.Sub(last) < e.cfg.Jobs.RefreshCooldown {
		e.refreshMu.Unlock()
		return
	}
	e.lastRefresh[userID] = now
	e.refreshMu.Unlock()

	select {
	case e.refreshCh <- refreshRequest{userID: userID, analyze: analyze}:
	default:
		e.refreshDrops.Add(1)
		e.logger.Debug().Int64("user_id", userID).Msg("refresh queue full, dropping request")
	}
}

// sortRecommendations orders by score descending, breaking ties by
// newer publication time and then lower article ID for determinism.
func sortRecommendations(items []Recommendation) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		if !items[i].Article.PublishedAt.Equal(items[j].Article.PublishedAt) {
			return items[i].Article.PublishedAt.After(items[j].Article.PublishedAt)
		}
		return items[i].Article.ID < items[j].Article.ID
	})
}
