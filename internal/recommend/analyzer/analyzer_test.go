// Feedwise - Personalized News Feed Ranking
// Copyright 2026 Feedwise Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feedwise/feedwise

package analyzer

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/feedwise/feedwise/internal/recommend"
	"github.com/feedwise/feedwise/internal/store"
)

func testAnalyzer(m *store.Memory, now time.Time) *Analyzer {
	a := New(m, m, m, nil, recommend.AnalyzerConfig{
		LookbackDays:      30,
		MinViewedArticles: 10,
		TopK:              5,
		TopKeywords:       10,
	}, time.Hour, zerolog.Nop())
	a.clock = func() time.Time { return now }
	return a
}

// seedReader creates n viewed articles for user 1, spreading categories
// and sources, and returns the store.
func seedReader(t *testing.T, n int, now time.Time) *store.Memory {
	t.Helper()
	m := store.NewMemory()
	categories := []string{"tech", "politics", "sports"}
	for i := 0; i < n; i++ {
		a := m.PutArticle(recommend.Article{
			Title:       fmt.Sprintf("article %d", i),
			Categories:  []string{categories[i%len(categories)]},
			SourceID:    fmt.Sprintf("source-%d", i%2),
			Keywords:    []string{"election", "economy"},
			PublishedAt: now.Add(-time.Duration(i) * time.Hour),
		})
		m.AddInteraction(recommend.Interaction{
			UserID:       1,
			ArticleID:    a.ID,
			Action:       recommend.ActionView,
			Timestamp:    now.Add(-time.Duration(i) * time.Hour),
			DwellSeconds: 60,
		})
	}
	return m
}

func TestAnalyzer_Patterns(t *testing.T) {
	now := time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)

	t.Run("empty history", func(t *testing.T) {
		a := testAnalyzer(store.NewMemory(), now)
		p, err := a.Patterns(context.Background(), 1)
		if err != nil {
			t.Fatal(err)
		}
		if p.TotalInteractions != 0 || p.ViewedArticles != 0 {
			t.Errorf("empty history produced %+v", p)
		}
		if p.PeakHour != -1 {
			t.Errorf("PeakHour = %d, want -1 for empty history", p.PeakHour)
		}
	})

	t.Run("aggregates categories and sources", func(t *testing.T) {
		m := seedReader(t, 12, now)
		a := testAnalyzer(m, now)

		p, err := a.Patterns(context.Background(), 1)
		if err != nil {
			t.Fatal(err)
		}
		if p.ViewedArticles != 12 {
			t.Errorf("ViewedArticles = %d, want 12", p.ViewedArticles)
		}
		if len(p.TopCategories) != 3 {
			t.Errorf("TopCategories = %v, want 3 entries", p.TopCategories)
		}
		if len(p.TopSources) != 2 {
			t.Errorf("TopSources = %v, want 2 entries", p.TopSources)
		}
		if p.AvgReadSeconds != 60 {
			t.Errorf("AvgReadSeconds = %f, want 60", p.AvgReadSeconds)
		}
		if p.DiversityScore <= 0.9 {
			t.Errorf("DiversityScore = %f, want near 1 for even spread", p.DiversityScore)
		}
	})

	t.Run("likes raise category rank", func(t *testing.T) {
		m := store.NewMemory()
		tech := m.PutArticle(recommend.Article{Title: "t", Categories: []string{"tech"}, SourceID: "s", PublishedAt: now})
		sport1 := m.PutArticle(recommend.Article{Title: "s1", Categories: []string{"sports"}, SourceID: "s", PublishedAt: now})
		sport2 := m.PutArticle(recommend.Article{Title: "s2", Categories: []string{"sports"}, SourceID: "s", PublishedAt: now})

		// Two sports views vs one tech view with a like and a share:
		// tech scores 1+2+3=6, sports 2.
		for _, id := range []int64{sport1.ID, sport2.ID, tech.ID} {
			m.AddInteraction(recommend.Interaction{UserID: 1, ArticleID: id, Action: recommend.ActionView, Timestamp: now})
		}
		m.AddInteraction(recommend.Interaction{UserID: 1, ArticleID: tech.ID, Action: recommend.ActionLike, Timestamp: now})
		m.AddInteraction(recommend.Interaction{UserID: 1, ArticleID: tech.ID, Action: recommend.ActionShare, Timestamp: now})

		a := testAnalyzer(m, now)
		p, err := a.Patterns(context.Background(), 1)
		if err != nil {
			t.Fatal(err)
		}
		if len(p.TopCategories) == 0 || p.TopCategories[0] != "tech" {
			t.Errorf("TopCategories = %v, want tech first", p.TopCategories)
		}
	})

	t.Run("skips malformed records", func(t *testing.T) {
		m := seedReader(t, 3, now)
		m.AddInteraction(recommend.Interaction{UserID: 1, ArticleID: 0, Action: recommend.ActionView, Timestamp: now})

		a := testAnalyzer(m, now)
		p, err := a.Patterns(context.Background(), 1)
		if err != nil {
			t.Fatal(err)
		}
		if p.SkippedRecords != 1 {
			t.Errorf("SkippedRecords = %d, want 1", p.SkippedRecords)
		}
		if p.ViewedArticles != 3 {
			t.Errorf("ViewedArticles = %d, want 3", p.ViewedArticles)
		}
	})
}

func TestAnalyzer_Streak(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		activeDays []int // days ago with activity
		want       int
	}{
		{name: "no activity", activeDays: nil, want: 0},
		{name: "active today only", activeDays: []int{0}, want: 1},
		{name: "five consecutive days", activeDays: []int{0, 1, 2, 3, 4}, want: 5},
		{name: "gap breaks streak", activeDays: []int{0, 1, 3, 4}, want: 2},
		{name: "streak ending yesterday survives", activeDays: []int{1, 2, 3}, want: 3},
		{name: "stale activity resets", activeDays: []int{2, 3, 4}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := store.NewMemory()
			art := m.PutArticle(recommend.Article{Title: "a", PublishedAt: now})
			for _, daysAgo := range tt.activeDays {
				m.AddInteraction(recommend.Interaction{
					UserID:    1,
					ArticleID: art.ID,
					Action:    recommend.ActionView,
					Timestamp: now.AddDate(0, 0, -daysAgo),
				})
			}

			a := testAnalyzer(m, now)
			p, err := a.Patterns(context.Background(), 1)
			if err != nil {
				t.Fatal(err)
			}
			if p.StreakDays != tt.want {
				t.Errorf("StreakDays = %d, want %d", p.StreakDays, tt.want)
			}
		})
	}
}

func TestAnalyzer_UpdatePreferences(t *testing.T) {
	now := time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)
	ctx := context.Background()

	t.Run("below threshold leaves record untouched", func(t *testing.T) {
		m := seedReader(t, 9, now)
		a := testAnalyzer(m, now)

		updated, err := a.UpdatePreferences(ctx, 1)
		if err != nil {
			t.Fatal(err)
		}
		if updated {
			t.Error("UpdatePreferences = true with 9 viewed articles, want false")
		}
		if _, ok, _ := m.Preferences(ctx, 1); ok {
			t.Error("preference record written despite threshold")
		}
	})

	t.Run("at threshold writes record", func(t *testing.T) {
		m := seedReader(t, 10, now)
		a := testAnalyzer(m, now)

		updated, err := a.UpdatePreferences(ctx, 1)
		if err != nil {
			t.Fatal(err)
		}
		if !updated {
			t.Fatal("UpdatePreferences = false with 10 viewed articles, want true")
		}
		rec, ok, _ := m.Preferences(ctx, 1)
		if !ok {
			t.Fatal("no preference record written")
		}
		if len(rec.Categories) == 0 {
			t.Error("record has no categories")
		}
		if rec.Reading.AvgReadSeconds != 60 {
			t.Errorf("AvgReadSeconds = %f, want 60", rec.Reading.AvgReadSeconds)
		}
		if !rec.UpdatedAt.Equal(now) {
			t.Errorf("UpdatedAt = %v, want %v", rec.UpdatedAt, now)
		}
	})
}

func TestAnalyzer_Insights(t *testing.T) {
	now := time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)
	ctx := context.Background()

	m := store.NewMemory()
	art := m.PutArticle(recommend.Article{Title: "a", Categories: []string{"tech"}, SourceID: "s", PublishedAt: now})
	for daysAgo := 0; daysAgo < 8; daysAgo++ {
		m.AddInteraction(recommend.Interaction{
			UserID:    1,
			ArticleID: art.ID,
			Action:    recommend.ActionView,
			Timestamp: now.AddDate(0, 0, -daysAgo),
		})
	}

	a := testAnalyzer(m, now)
	ins, err := a.Insights(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}

	found := false
	for _, ach := range ins.Achievements {
		if ach == "consistent_reader" {
			found = true
		}
	}
	if !found {
		t.Errorf("8-day streak should earn consistent_reader, got %v", ins.Achievements)
	}
	if ins.Patterns.StreakDays != 8 {
		t.Errorf("StreakDays = %d, want 8", ins.Patterns.StreakDays)
	}
}
