// Feedwise - Personalized News Feed Ranking
// Copyright 2026 Feedwise Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feedwise/feedwise

package store

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/feedwise/feedwise/internal/recommend"
)

// seedRandSource fixes the generator so repeated startups produce the
// same demo dataset.
const seedRandSource = 20260115

var seedCategories = []string{
	"technology", "science", "business", "sports",
	"politics", "health", "entertainment", "world",
}

var seedSources = []string{
	"techwire", "sciencedaily", "bizjournal", "sportsfeed",
	"globaldesk", "healthbeat", "culturepost", "newsroom",
}

// seedTopics supplies per-category vocabulary so generated articles
// cluster in the feature space the way real coverage does.
var seedTopics = map[string][]string{
	"technology":    {"processor", "startup", "software", "cloud", "encryption", "robotics", "semiconductor", "platform"},
	"science":       {"telescope", "genome", "climate", "particle", "ecosystem", "vaccine", "asteroid", "laboratory"},
	"business":      {"earnings", "merger", "inflation", "startup", "regulator", "shares", "supply", "forecast"},
	"sports":        {"championship", "transfer", "record", "tournament", "playoff", "coach", "stadium", "season"},
	"politics":      {"election", "parliament", "policy", "coalition", "referendum", "sanctions", "legislation", "summit"},
	"health":        {"vaccine", "hospital", "nutrition", "outbreak", "therapy", "screening", "wellness", "research"},
	"entertainment": {"premiere", "festival", "streaming", "album", "boxoffice", "sequel", "award", "celebrity"},
	"world":         {"summit", "treaty", "border", "aid", "ceasefire", "embassy", "migration", "alliance"},
}

var seedVerbs = []string{
	"announces", "unveils", "reports", "faces", "wins",
	"expands", "delays", "confirms", "reviews", "launches",
}

// Seed fills the store with generated demo data: articleCount articles
// spread over the last week and a plausible interaction history for
// userCount users, each biased toward two preferred categories.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func Seed(m *Memory, articleCount, userCount int, logger zerolog.Logger) {
	rng := rand.New(rand.NewSource(seedRandSource)) //nolint:gosec // demo data, not crypto
	now := time.Now()

	articles := seedArticles(rng, now, articleCount)
	for i := range articles {
		articles[i] = m.PutArticle(articles[i])
	}

	interactionCount := 0
	for userID := int64(1); userID <= int64(userCount); userID++ {
		for _, in := range seedInteractions(rng, now, userID, articles) {
			m.AddInteraction(in)
			interactionCount++
		}
	}

	logger.Info().
		Int("articles", len(articles)).
		Int("users", userCount).
		Int("interactions", interactionCount).
		Msg("Seeded demo data")
}

func seedArticles(rng *rand.Rand, now time.Time, count int) []recommend.Article {
	articles := make([]recommend.Article, 0, count)
	for i := 0; i < count; i++ {
		category := seedCategories[rng.Intn(len(seedCategories))]
		topics := seedTopics[category]
		subject := topics[rng.Intn(len(topics))]
		verb := seedVerbs[rng.Intn(len(seedVerbs))]
		object := topics[rng.Intn(len(topics))]
		source := seedSources[rng.Intn(len(seedSources))]

		// Spread publication over the last week, weighted toward
		// recency so the freshness and breaking windows have material.
		ageHours := rng.Float64() * rng.Float64() * 168
		publishedAt := now.Add(-time.Duration(ageHours * float64(time.Hour)))

		views := int64(rng.Intn(500))
		articles = append(articles, recommend.Article{
			Title:       fmt.Sprintf("%s %s %s %s", capitalize(category), subject, verb, object),
			Body:        seedBody(rng, category, subject, object),
			Keywords:    []string{subject, object},
			Categories:  []string{category},
			SourceID:    source,
			PublishedAt: publishedAt,
			Counters: recommend.EngagementCounters{
				Views:  views,
				Likes:  views / int64(2+rng.Intn(8)),
				Shares: views / int64(5+rng.Intn(15)),
			},
		})
	}
	return articles
}

func seedBody(rng *rand.Rand, category, subject, object string) string {
	topics := seedTopics[category]
	sentences := 3 + rng.Intn(4)
	body := fmt.Sprintf("Coverage of the %s %s continues to develop. ", category, subject)
	for i := 0; i < sentences; i++ {
		body += fmt.Sprintf("Sources close to the %s say the %s %s the %s outlook. ",
			object, topics[rng.Intn(len(topics))], seedVerbs[rng.Intn(len(seedVerbs))], category)
	}
	return body
}

// seedInteractions generates a reading history for one user: mostly
// views inside the user's two preferred categories, with occasional
// likes, bookmarks, and shares.
func seedInteractions(rng *rand.Rand, now time.Time, userID int64, articles []recommend.Article) []recommend.Interaction {
	if len(articles) == 0 {
		return nil
	}

	prefA := seedCategories[rng.Intn(len(seedCategories))]
	prefB := seedCategories[rng.Intn(len(seedCategories))]
	preferred := make([]recommend.Article, 0, len(articles))
	for _, a := range articles {
		if c := a.PrimaryCategory(); c == prefA || c == prefB {
			preferred = append(preferred, a)
		}
	}

	count := 5 + rng.Intn(25)
	out := make([]recommend.Interaction, 0, count)
	for i := 0; i < count; i++ {
		pool := articles
		if len(preferred) > 0 && rng.Float64() < 0.8 {
			pool = preferred
		}
		article := pool[rng.Intn(len(pool))]

		in := recommend.Interaction{
			UserID:    userID,
			ArticleID: article.ID,
			Action:    recommend.ActionView,
			Timestamp: now.Add(-time.Duration(rng.Float64() * 168 * float64(time.Hour))),
		}
		switch r := rng.Float64(); {
		case r < 0.15:
			in.Action = recommend.ActionLike
		case r < 0.22:
			in.Action = recommend.ActionBookmark
		case r < 0.27:
			in.Action = recommend.ActionShare
		default:
			in.DwellSeconds = 10 + rng.Intn(290)
		}
		out = append(out, in)
	}
	return out
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
