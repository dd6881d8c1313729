// Feedwise - Personalized News Feed Ranking
// Copyright 2026 Feedwise Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feedwise/feedwise

// Package analyzer derives reading patterns from interaction history and
// writes preference records back for the fallback and filter paths.
package analyzer

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/feedwise/feedwise/internal/cache"
	"github.com/feedwise/feedwise/internal/recommend"
)

// Patterns is the full reading-pattern breakdown for one user over the
// analysis window.
type Patterns struct {
	UserID            int64     `json:"user_id"`
	WindowDays        int       `json:"window_days"`
	TotalInteractions int       `json:"total_interactions"`
	ViewedArticles    int       `json:"viewed_articles"`
	AvgReadSeconds    float64   `json:"avg_read_seconds"`
	VelocityPerDay    float64   `json:"velocity_per_day"`
	EngagementRate    float64   `json:"engagement_rate"`
	PeakHour          int       `json:"peak_hour"`
	PeakDay           string    `json:"peak_day"`
	HourCounts        [24]int   `json:"hour_counts"`
	DayCounts         [7]int    `json:"day_counts"`
	TopCategories     []string  `json:"top_categories"`
	TopSources        []string  `json:"top_sources"`
	TopKeywords       []string  `json:"top_keywords"`
	StreakDays        int       `json:"streak_days"`
	DiversityScore    float64   `json:"diversity_score"`
	SkippedRecords    int       `json:"skipped_records"`
	AnalyzedAt        time.Time `json:"analyzed_at"`
}

// Insights is the user-facing analytics payload: patterns plus earned
// achievements.
type Insights struct {
	Patterns     Patterns `json:"patterns"`
	Achievements []string `json:"achievements"`
}

// Achievement thresholds.
const (
	streakAchievementDays    = 7
	avidReaderArticles       = 100
	engagedReaderRatePercent = 50
)

// Analyzer computes reading patterns and maintains preference records.
type Analyzer struct {
	interactions recommend.InteractionStore
	articles     recommend.ArticleStore
	prefs        recommend.PreferenceStore
	store        *cache.Cache
	cfg          recommend.AnalyzerConfig
	insightsTTL  time.Duration
	logger       zerolog.Logger
	clock        func() time.Time
}

// New creates an analyzer. A nil cache disables insights caching.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(
	interactions recommend.InteractionStore,
	articles recommend.ArticleStore,
	prefs recommend.PreferenceStore,
	store *cache.Cache,
	cfg recommend.AnalyzerConfig,
	insightsTTL time.Duration,
	logger zerolog.Logger,
) *Analyzer {
	return &Analyzer{
		interactions: interactions,
		articles:     articles,
		prefs:        prefs,
		store:        store,
		cfg:          cfg,
		insightsTTL:  insightsTTL,
		logger:       logger.With().Str("component", "analyzer").Logger(),
		clock:        time.Now,
	}
}

// groupStats accumulates weighted engagement for one category or source.
type groupStats struct {
	name  string
	score float64
	count int
}

// Patterns analyzes the user's window of interaction history. It never
// fails on malformed records; those are skipped and counted.
func (a *Analyzer) Patterns(ctx context.Context, userID int64) (*Patterns, error) {
	now := a.clock()
	since := now.AddDate(0, 0, -a.cfg.LookbackDays)

	history, err := a.interactions.ByUserSince(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	p := &Patterns{
		UserID:     userID,
		WindowDays: a.cfg.LookbackDays,
		PeakHour:   -1,
		AnalyzedAt: now,
	}
	if len(history) == 0 {
		return p, nil
	}

	valid := make([]recommend.Interaction, 0, len(history))
	for _, in := range history {
		if !in.Valid() {
			p.SkippedRecords++
			continue
		}
		valid = append(valid, in)
	}
	p.TotalInteractions = len(valid)
	if len(valid) == 0 {
		return p, nil
	}

	// Per-article tallies drive category/source/keyword aggregation;
	// view timestamps drive the temporal histograms.
	viewed := make(map[int64]struct{})
	likes := make(map[int64]int)
	shares := make(map[int64]int)
	engagements := 0
	var dwellTotal, dwellCount float64
	activeDays := make(map[string]struct{})

	for _, in := range valid {
		day := in.Timestamp.Format("2006-01-02")
		activeDays[day] = struct{}{}
		p.HourCounts[in.Timestamp.Hour()]++
		p.DayCounts[int(in.Timestamp.Weekday())]++

		switch in.Action {
		case recommend.ActionView:
			viewed[in.ArticleID] = struct{}{}
			if in.DwellSeconds > 0 {
				dwellTotal += float64(in.DwellSeconds)
				dwellCount++
			}
		case recommend.ActionLike, recommend.ActionBookmark:
			likes[in.ArticleID]++
			engagements++
		case recommend.ActionShare:
			shares[in.ArticleID]++
			engagements++
		case recommend.ActionComment, recommend.ActionClick:
			engagements++
		}
	}

	p.ViewedArticles = len(viewed)
	if dwellCount > 0 {
		p.AvgReadSeconds = dwellTotal / dwellCount
	}
	p.VelocityPerDay = float64(len(viewed)) / float64(a.cfg.LookbackDays)
	if len(viewed) > 0 {
		p.EngagementRate = float64(engagements) / float64(len(viewed)) * 100
	}
	p.PeakHour, p.PeakDay = peaks(p.HourCounts, p.DayCounts)
	p.StreakDays = streak(activeDays, now)

	if err := a.aggregateArticleGroups(ctx, p, viewed, likes, shares); err != nil {
		return nil, err
	}
	return p, nil
}

// aggregateArticleGroups fills the category, source, keyword, and
// diversity fields from the viewed articles' metadata.
func (a *Analyzer) aggregateArticleGroups(ctx context.Context, p *Patterns, viewed map[int64]struct{}, likes, shares map[int64]int) error {
	if len(viewed) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(viewed))
	for id := range viewed {
		ids = append(ids, id)
	}
	articles, err := a.articles.ArticlesByID(ctx, ids)
	if err != nil {
		return fmt.Errorf("load viewed articles: %w", err)
	}

	categories := make(map[string]*groupStats)
	sources := make(map[string]*groupStats)
	keywords := make(map[string]int)
	for id := range viewed {
		art, ok := articles[id]
		if !ok {
			p.SkippedRecords++
			continue
		}
		// Engagement-weighted group score: each view counts once, likes
		// twice, shares three times.
		weight := 1 + 2*float64(likes[id]) + 3*float64(shares[id])
		for _, cat := range art.Categories {
			addGroup(categories, cat, weight)
		}
		if art.SourceID != "" {
			addGroup(sources, art.SourceID, weight)
		}
		for _, kw := range art.Keywords {
			keywords[kw]++
		}
	}

	p.TopCategories = topNames(categories, a.cfg.TopK)
	p.TopSources = topNames(sources, a.cfg.TopK)
	p.TopKeywords = topKeywords(keywords, a.cfg.TopKeywords)
	p.DiversityScore = diversity(categories)
	return nil
}

// UpdatePreferences runs the analysis and writes the preference record
// back. It returns false without writing when the user has fewer viewed
// articles than the configured threshold.
func (a *Analyzer) UpdatePreferences(ctx context.Context, userID int64) (bool, error) {
	p, err := a.Patterns(ctx, userID)
	if err != nil {
		return false, err
	}
	if p.ViewedArticles < a.cfg.MinViewedArticles {
		a.logger.Debug().
			Int64("user_id", userID).
			Int("viewed", p.ViewedArticles).
			Int("required", a.cfg.MinViewedArticles).
			Msg("insufficient history, preferences unchanged")
		return false, nil
	}

	rec := recommend.PreferenceRecord{
		UserID:     userID,
		Categories: p.TopCategories,
		Sources:    p.TopSources,
		Reading: recommend.ReadingPreferences{
			AvgReadSeconds: p.AvgReadSeconds,
			PeakHour:       p.PeakHour,
			PeakDay:        p.PeakDay,
			VelocityPerDay: p.VelocityPerDay,
			EngagementRate: p.EngagementRate,
			TopKeywords:    p.TopKeywords,
		},
		UpdatedAt: a.clock(),
	}
	if err := a.prefs.SavePreferences(ctx, rec); err != nil {
		return false, fmt.Errorf("save preferences: %w", err)
	}

	a.logger.Info().
		Int64("user_id", userID).
		Strs("categories", rec.Categories).
		Int("viewed", p.ViewedArticles).
		Msg("preferences updated")
	return true, nil
}

// Insights returns the cached user-facing analytics payload.
func (a *Analyzer) Insights(ctx context.Context, userID int64) (*Insights, error) {
	key := fmt.Sprintf("insights:%d", userID)
	if a.store != nil {
		if entry, ok := a.store.Get(key); ok {
			if ins, ok := entry.(*Insights); ok {
				return ins, nil
			}
		}
	}

	p, err := a.Patterns(ctx, userID)
	if err != nil {
		return nil, err
	}

	ins := &Insights{
		Patterns:     *p,
		Achievements: achievements(p),
	}
	if a.store != nil {
		a.store.SetWithTTL(key, ins, a.insightsTTL)
	}
	return ins, nil
}

// InvalidateInsights drops the cached payload, forcing a recompute on
// the next read.
func (a *Analyzer) InvalidateInsights(userID int64) {
	if a.store != nil {
		a.store.Delete(fmt.Sprintf("insights:%d", userID))
	}
}

func achievements(p *Patterns) []string {
	var out []string
	if p.StreakDays >= streakAchievementDays {
		out = append(out, "consistent_reader")
	}
	if p.ViewedArticles >= avidReaderArticles {
		out = append(out, "avid_reader")
	}
	if p.ViewedArticles > 0 && p.EngagementRate >= engagedReaderRatePercent {
		out = append(out, "engaged_reader")
	}
	return out
}

func addGroup(groups map[string]*groupStats, name string, weight float64) {
	g := groups[name]
	if g == nil {
		g = &groupStats{name: name}
		groups[name] = g
	}
	g.score += weight
	g.count++
}

// topNames returns the top-k group names by score, ties broken
// alphabetically for determinism.
func topNames(groups map[string]*groupStats, k int) []string {
	all := make([]*groupStats, 0, len(groups))
	for _, g := range groups {
		all = append(all, g)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].score != all[j].score {
			return all[i].score > all[j].score
		}
		return all[i].name < all[j].name
	})
	if len(all) > k {
		all = all[:k]
	}
	out := make([]string, len(all))
	for i, g := range all {
		out[i] = g.name
	}
	return out
}

func topKeywords(keywords map[string]int, k int) []string {
	type kc struct {
		name  string
		count int
	}
	all := make([]kc, 0, len(keywords))
	for name, count := range keywords {
		all = append(all, kc{name, count})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].count != all[j].count {
			return all[i].count > all[j].count
		}
		return all[i].name < all[j].name
	})
	if len(all) > k {
		all = all[:k]
	}
	out := make([]string, len(all))
	for i, e := range all {
		out[i] = e.name
	}
	return out
}

// peaks returns the argmax hour and weekday name, or (-1, "") when the
// histograms are empty.
func peaks(hours [24]int, days [7]int) (int, string) {
	peakHour, maxHour := -1, 0
	for h, c := range hours {
		if c > maxHour {
			peakHour, maxHour = h, c
		}
	}
	peakDay, maxDay := -1, 0
	for d, c := range days {
		if c > maxDay {
			peakDay, maxDay = d, c
		}
	}
	dayName := ""
	if peakDay >= 0 {
		dayName = time.Weekday(peakDay).String()
	}
	return peakHour, dayName
}

// streak counts consecutive active days scanning backward from today.
// A streak survives if the most recent active day is today or yesterday.
func streak(activeDays map[string]struct{}, now time.Time) int {
	if len(activeDays) == 0 {
		return 0
	}
	day := now
	if _, today := activeDays[day.Format("2006-01-02")]; !today {
		day = day.AddDate(0, 0, -1)
		if _, yesterday := activeDays[day.Format("2006-01-02")]; !yesterday {
			return 0
		}
	}
	count := 0
	for {
		if _, ok := activeDays[day.Format("2006-01-02")]; !ok {
			break
		}
		count++
		day = day.AddDate(0, 0, -1)
	}
	return count
}

// diversity is the Shannon entropy of the category view distribution,
// normalized to [0, 1] by the maximum entropy for the category count.
func diversity(categories map[string]*groupStats) float64 {
	if len(categories) <= 1 {
		return 0
	}
	total := 0
	for _, g := range categories {
		total += g.count
	}
	if total == 0 {
		return 0
	}
	entropy := 0.0
	for _, g := range categories {
		if g.count == 0 {
			continue
		}
		pr := float64(g.count) / float64(total)
		entropy -= pr * math.Log2(pr)
	}
	return entropy / math.Log2(float64(len(categories)))
}
