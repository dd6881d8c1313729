// Feedwise - Personalized News Feed Ranking
// Copyright 2026 Feedwise Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feedwise/feedwise

// Package store provides the in-memory implementation of the article,
// interaction, and preference stores the engine consumes. Deployments
// with external persistence implement the same interfaces against their
// own backends.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/feedwise/feedwise/internal/recommend"
)

// ErrNotFound is returned for lookups of absent articles.
var ErrNotFound = fmt.Errorf("not found")

// Memory is a thread-safe in-memory store backing all three engine
// store interfaces. Interactions are append-only.
type Memory struct {
	mu           sync.RWMutex
	articles     map[int64]recommend.Article
	interactions []recommend.Interaction
	prefs        map[int64]recommend.PreferenceRecord
	nextID       int64
}

// NewMemory creates an empty store.
func NewMemory() *Memory {
	return &Memory{
		articles: make(map[int64]recommend.Article),
		prefs:    make(map[int64]recommend.PreferenceRecord),
		nextID:   1,
	}
}

// PutArticle inserts or replaces an article. A zero ID is assigned.
func (m *Memory) PutArticle(a recommend.Article) recommend.Article {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == 0 {
		a.ID = m.nextID
		m.nextID++
	} else if a.ID >= m.nextID {
		m.nextID = a.ID + 1
	}
	m.articles[a.ID] = a
	return a
}

// AddInteraction appends an interaction record and bumps the article's
// engagement counters.
func (m *Memory) AddInteraction(in recommend.Interaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.interactions = append(m.interactions, in)

	a, ok := m.articles[in.ArticleID]
	if !ok {
		return
	}
	switch in.Action {
	case recommend.ActionView, recommend.ActionClick:
		a.Counters.Views++
	case recommend.ActionLike, recommend.ActionBookmark:
		a.Counters.Likes++
	case recommend.ActionShare:
		a.Counters.Shares++
	case recommend.ActionComment:
		a.Counters.Comments++
	}
	m.articles[in.ArticleID] = a
}

// RecentArticles implements recommend.ArticleStore.
func (m *Memory) RecentArticles(_ context.Context, since time.Time, limit int) ([]recommend.Article, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]recommend.Article, 0, len(m.articles))
	for _, a := range m.articles {
		if !since.IsZero() && a.PublishedAt.Before(since) {
			continue
		}
		out = append(out, a)
	}
	sortNewestFirst(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Article implements recommend.ArticleStore.
func (m *Memory) Article(_ context.Context, id int64) (recommend.Article, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.articles[id]
	if !ok {
		return recommend.Article{}, fmt.Errorf("article %d: %w", id, ErrNotFound)
	}
	return a, nil
}

// ArticlesByID implements recommend.ArticleStore.
func (m *Memory) ArticlesByID(_ context.Context, ids []int64) (map[int64]recommend.Article, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[int64]recommend.Article, len(ids))
	for _, id := range ids {
		if a, ok := m.articles[id]; ok {
			out[id] = a
		}
	}
	return out, nil
}

// ArticlesByCategories implements recommend.ArticleStore. Empty
// categories means all categories.
func (m *Memory) ArticlesByCategories(_ context.Context, categories []string, since time.Time, limit int) ([]recommend.Article, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	wanted := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		wanted[c] = struct{}{}
	}

	out := make([]recommend.Article, 0, len(m.articles))
	for _, a := range m.articles {
		if !since.IsZero() && a.PublishedAt.Before(since) {
			continue
		}
		if len(wanted) > 0 && !hasAnyCategory(a, wanted) {
			continue
		}
		out = append(out, a)
	}
	sortNewestFirst(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// RecentByUser implements recommend.InteractionStore.
func (m *Memory) RecentByUser(_ context.Context, userID int64, limit int) ([]recommend.Interaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]recommend.Interaction, 0, limit)
	for _, in := range m.interactions {
		if in.UserID == userID {
			out = append(out, in)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ByUserSince implements recommend.InteractionStore.
func (m *Memory) ByUserSince(_ context.Context, userID int64, since time.Time) ([]recommend.Interaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []recommend.Interaction
	for _, in := range m.interactions {
		if in.UserID == userID && !in.Timestamp.Before(since) {
			out = append(out, in)
		}
	}
	return out, nil
}

// Since implements recommend.InteractionStore.
func (m *Memory) Since(_ context.Context, since time.Time) ([]recommend.Interaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []recommend.Interaction
	for _, in := range m.interactions {
		if !in.Timestamp.Before(since) {
			out = append(out, in)
		}
	}
	return out, nil
}

// ViewedArticleIDs implements recommend.InteractionStore.
func (m *Memory) ViewedArticleIDs(_ context.Context, userID int64) ([]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[int64]struct{})
	var out []int64
	for _, in := range m.interactions {
		if in.UserID != userID || in.Action != recommend.ActionView {
			continue
		}
		if _, dup := seen[in.ArticleID]; dup {
			continue
		}
		seen[in.ArticleID] = struct{}{}
		out = append(out, in.ArticleID)
	}
	return out, nil
}

// ActiveUserIDs implements recommend.InteractionStore.
func (m *Memory) ActiveUserIDs(_ context.Context, since time.Time) ([]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[int64]struct{})
	var out []int64
	for _, in := range m.interactions {
		if in.Timestamp.Before(since) {
			continue
		}
		if _, dup := seen[in.UserID]; dup {
			continue
		}
		seen[in.UserID] = struct{}{}
		out = append(out, in.UserID)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// Preferences implements recommend.PreferenceStore.
func (m *Memory) Preferences(_ context.Context, userID int64) (recommend.PreferenceRecord, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.prefs[userID]
	return rec, ok, nil
}

// SavePreferences implements recommend.PreferenceStore.
func (m *Memory) SavePreferences(_ context.Context, rec recommend.PreferenceRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.prefs[rec.UserID] = rec
	return nil
}

func sortNewestFirst(articles []recommend.Article) {
	sort.Slice(articles, func(i, j int) bool {
		ti, tj := articles[i].PublishedAt, articles[j].PublishedAt
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return articles[i].ID < articles[j].ID
	})
}

func hasAnyCategory(a recommend.Article, wanted map[string]struct{}) bool {
	for _, c := range a.Categories {
		if _, ok := wanted[c]; ok {
			return true
		}
	}
	return false
}
