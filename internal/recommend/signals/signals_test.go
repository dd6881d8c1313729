// Feedwise - Personalized News Feed Ranking
// Copyright 2026 Feedwise Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feedwise/feedwise

package signals

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/feedwise/feedwise/internal/recommend"
	"github.com/feedwise/feedwise/internal/recommend/textvec"
	"github.com/feedwise/feedwise/internal/store"
)

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func newsStore(t *testing.T) (*store.Memory, map[string]recommend.Article) {
	t.Helper()
	m := store.NewMemory()
	articles := map[string]recommend.Article{}

	put := func(key, title, body, category, source string, age time.Duration) {
		articles[key] = m.PutArticle(recommend.Article{
			Title:       title,
			Body:        body,
			Categories:  []string{category},
			SourceID:    source,
			PublishedAt: testNow.Add(-age),
		})
	}

	put("solar1", "Solar farms expand", "solar panels boost green energy output across the region", "energy", "wire", time.Hour)
	put("solar2", "Green energy surges", "green energy output rises as solar panels spread", "energy", "local", 2*time.Hour)
	put("solar3", "Panel production up", "solar panels production output boost reported", "energy", "wire", 3*time.Hour)
	put("match", "Cup final tonight", "football cup final kicks off tonight stadium crowd", "sports", "sportsnet", time.Hour)
	put("transfer", "Star striker transfer", "football transfer window striker deal agreed", "sports", "sportsnet", 2*time.Hour)
	put("budget", "Budget vote delayed", "parliament budget vote delayed amid debate", "politics", "wire", 4*time.Hour)

	return m, articles
}

func builtCorpus(t *testing.T, m *store.Memory) *Corpus {
	t.Helper()
	cfg := recommend.DefaultConfig().Vectorizer
	c := NewCorpus(m, cfg, zerolog.Nop())
	c.clock = func() time.Time { return testNow }
	if err := c.Rebuild(context.Background()); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	return c
}

func newProfiles(m *store.Memory, c *Corpus) *ProfileBuilder {
	cfg := recommend.DefaultConfig().Profile
	b := NewProfileBuilder(m, m, c, nil, cfg, time.Minute, zerolog.Nop())
	b.clock = func() time.Time { return testNow }
	return b
}

func TestCorpus_Rebuild(t *testing.T) {
	ctx := context.Background()

	t.Run("empty store yields empty snapshot", func(t *testing.T) {
		c := NewCorpus(store.NewMemory(), recommend.DefaultConfig().Vectorizer, zerolog.Nop())
		if err := c.Rebuild(ctx); err != nil {
			t.Fatal(err)
		}
		if c.Snapshot().Len() != 0 {
			t.Errorf("Len = %d, want 0", c.Snapshot().Len())
		}
	})

	t.Run("rebuild swaps snapshot atomically", func(t *testing.T) {
		m, _ := newsStore(t)
		c := builtCorpus(t, m)

		before := c.Snapshot()
		if before.Len() != 6 {
			t.Fatalf("Len = %d, want 6", before.Len())
		}

		m.PutArticle(recommend.Article{
			Title: "Late breaking story", Body: "green energy late development",
			Categories: []string{"energy"}, SourceID: "wire", PublishedAt: testNow,
		})
		if err := c.Rebuild(ctx); err != nil {
			t.Fatal(err)
		}

		after := c.Snapshot()
		if after.Len() != 7 {
			t.Errorf("Len after rebuild = %d, want 7", after.Len())
		}
		// The old reference stays fully usable.
		if before.Len() != 6 {
			t.Errorf("old snapshot mutated, Len = %d", before.Len())
		}
		if after.Version() <= before.Version() {
			t.Error("snapshot version did not increase")
		}
	})

	t.Run("unfitted articles projected on demand", func(t *testing.T) {
		m, _ := newsStore(t)
		c := builtCorpus(t, m)

		unfitted := recommend.Article{
			ID: 9999, Title: "Solar output news",
			Body: "solar panels output", PublishedAt: testNow,
		}
		if v := c.VectorFor(unfitted); len(v) == 0 {
			t.Error("VectorFor(unfitted) = empty, want projection")
		}
	})
}

func TestProfileBuilder_Vector(t *testing.T) {
	ctx := context.Background()

	t.Run("cold start has no profile", func(t *testing.T) {
		m, _ := newsStore(t)
		b := newProfiles(m, builtCorpus(t, m))
		_, ok, err := b.Vector(ctx, 42)
		if err != nil {
			t.Fatal(err)
		}
		if ok {
			t.Error("user with no history should have no profile")
		}
	})

	t.Run("profile leans toward engaged topics", func(t *testing.T) {
		m, arts := newsStore(t)
		c := builtCorpus(t, m)
		b := newProfiles(m, c)

		m.AddInteraction(recommend.Interaction{UserID: 1, ArticleID: arts["solar1"].ID, Action: recommend.ActionView, Timestamp: testNow.Add(-time.Hour)})
		m.AddInteraction(recommend.Interaction{UserID: 1, ArticleID: arts["solar2"].ID, Action: recommend.ActionLike, Timestamp: testNow.Add(-time.Hour)})

		profile, ok, err := b.Vector(ctx, 1)
		if err != nil || !ok {
			t.Fatalf("Vector: ok=%v err=%v", ok, err)
		}

		snap := c.Snapshot()
		energyVec, _ := snap.Vector(arts["solar3"].ID)
		sportsVec, _ := snap.Vector(arts["match"].ID)
		if textvec.Cosine(profile, energyVec) <= textvec.Cosine(profile, sportsVec) {
			t.Error("profile should be closer to unread energy article than sports article")
		}
	})

	t.Run("profile build is deterministic", func(t *testing.T) {
		m, arts := newsStore(t)
		c := builtCorpus(t, m)
		m.AddInteraction(recommend.Interaction{UserID: 1, ArticleID: arts["solar1"].ID, Action: recommend.ActionView, Timestamp: testNow.Add(-time.Hour)})

		b1 := newProfiles(m, c)
		b2 := newProfiles(m, c)
		v1, _, err1 := b1.Vector(ctx, 1)
		v2, _, err2 := b2.Vector(ctx, 1)
		if err1 != nil || err2 != nil {
			t.Fatalf("errs: %v %v", err1, err2)
		}
		if len(v1) != len(v2) {
			t.Fatalf("vector sizes differ: %d vs %d", len(v1), len(v2))
		}
		for term, w := range v1 {
			if v2[term] != w {
				t.Fatalf("weight for %q differs: %f vs %f", term, w, v2[term])
			}
		}
	})

	t.Run("stable across rebuilds with boundary bigrams", func(t *testing.T) {
		m, _ := newsStore(t)
		// Adjacent history chunks form "solar panels" at the boundary,
		// which the corpus fits as a bigram; assembly order must not
		// change between rebuilds or that term's weight drifts.
		endsSolar := m.PutArticle(recommend.Article{
			Title:       "Grid outlook",
			Body:        "regional grid outlook update solar",
			SourceID:    "wire",
			PublishedAt: testNow.Add(-time.Hour),
		})
		startsPanels := m.PutArticle(recommend.Article{
			Title:       "Panels arrive",
			Body:        "panels arrive for the regional grid",
			SourceID:    "local",
			PublishedAt: testNow.Add(-time.Hour),
		})
		c := builtCorpus(t, m)
		b := newProfiles(m, c)

		m.AddInteraction(recommend.Interaction{UserID: 9, ArticleID: endsSolar.ID, Action: recommend.ActionView, Timestamp: testNow.Add(-time.Hour)})
		m.AddInteraction(recommend.Interaction{UserID: 9, ArticleID: startsPanels.ID, Action: recommend.ActionView, Timestamp: testNow.Add(-time.Hour)})

		first, ok, err := b.Vector(ctx, 9)
		if err != nil || !ok {
			t.Fatalf("Vector: ok=%v err=%v", ok, err)
		}
		for i := 0; i < 20; i++ {
			again, _, err := b.Vector(ctx, 9)
			if err != nil {
				t.Fatal(err)
			}
			if len(again) != len(first) {
				t.Fatalf("rebuild %d: vector sizes differ: %d vs %d", i, len(again), len(first))
			}
			for term, w := range first {
				if again[term] != w {
					t.Fatalf("rebuild %d: weight for %q differs: %f vs %f", i, term, w, again[term])
				}
			}
		}
	})

	t.Run("repeat engagement amplifies the article pull", func(t *testing.T) {
		m, arts := newsStore(t)
		c := builtCorpus(t, m)
		b := newProfiles(m, c)

		// Heavy reader: three views and a share of one energy article.
		for i := 0; i < 3; i++ {
			m.AddInteraction(recommend.Interaction{UserID: 11, ArticleID: arts["solar1"].ID, Action: recommend.ActionView, Timestamp: testNow.Add(-time.Hour)})
		}
		m.AddInteraction(recommend.Interaction{UserID: 11, ArticleID: arts["solar1"].ID, Action: recommend.ActionShare, Timestamp: testNow.Add(-time.Hour)})
		m.AddInteraction(recommend.Interaction{UserID: 11, ArticleID: arts["match"].ID, Action: recommend.ActionView, Timestamp: testNow.Add(-time.Hour)})

		// Light reader: a single view of the same pair.
		m.AddInteraction(recommend.Interaction{UserID: 12, ArticleID: arts["solar1"].ID, Action: recommend.ActionView, Timestamp: testNow.Add(-time.Hour)})
		m.AddInteraction(recommend.Interaction{UserID: 12, ArticleID: arts["match"].ID, Action: recommend.ActionView, Timestamp: testNow.Add(-time.Hour)})

		heavy, ok, err := b.Vector(ctx, 11)
		if err != nil || !ok {
			t.Fatalf("heavy Vector: ok=%v err=%v", ok, err)
		}
		light, ok, err := b.Vector(ctx, 12)
		if err != nil || !ok {
			t.Fatalf("light Vector: ok=%v err=%v", ok, err)
		}

		snap := c.Snapshot()
		energyVec, _ := snap.Vector(arts["solar3"].ID)
		if textvec.Cosine(heavy, energyVec) <= textvec.Cosine(light, energyVec) {
			t.Errorf("share plus repeat views should pull the profile harder toward energy: %f vs %f",
				textvec.Cosine(heavy, energyVec), textvec.Cosine(light, energyVec))
		}
	})

	t.Run("newer engagement pulls harder than older", func(t *testing.T) {
		mkStore := func(sportsAge time.Duration) (textvec.Vector, textvec.Vector, textvec.Vector) {
			m, arts := newsStore(t)
			c := builtCorpus(t, m)
			b := newProfiles(m, c)
			// Fixed energy anchor plus a sports view of varying age.
			m.AddInteraction(recommend.Interaction{UserID: 1, ArticleID: arts["solar1"].ID, Action: recommend.ActionView, Timestamp: testNow.Add(-20 * 24 * time.Hour)})
			m.AddInteraction(recommend.Interaction{UserID: 1, ArticleID: arts["match"].ID, Action: recommend.ActionView, Timestamp: testNow.Add(-sportsAge)})
			profile, _, _ := b.Vector(context.Background(), 1)
			snap := c.Snapshot()
			sportsVec, _ := snap.Vector(arts["transfer"].ID)
			energyVec, _ := snap.Vector(arts["solar2"].ID)
			return profile, sportsVec, energyVec
		}

		recentProfile, sportsVec, _ := mkStore(time.Hour)
		staleProfile, staleSports, _ := mkStore(29 * 24 * time.Hour)

		recentAffinity := textvec.Cosine(recentProfile, sportsVec)
		staleAffinity := textvec.Cosine(staleProfile, staleSports)
		if recentAffinity <= staleAffinity {
			t.Errorf("recent sports view should pull profile harder: %f vs %f", recentAffinity, staleAffinity)
		}
	})
}

func newContent(m *store.Memory, c *Corpus) *Content {
	def := recommend.DefaultConfig()
	return NewContent(m, m, m, c, newProfiles(m, c), def.Similarity, zerolog.Nop())
}

func TestContent_Recommend(t *testing.T) {
	ctx := context.Background()

	t.Run("no profile yields empty result", func(t *testing.T) {
		m, _ := newsStore(t)
		content := newContent(m, builtCorpus(t, m))
		got, err := content.Recommend(ctx, 42, 5, true)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 0 {
			t.Errorf("cold-start content signal returned %d items, want 0", len(got))
		}
	})

	t.Run("ranks similar unseen articles first", func(t *testing.T) {
		m, arts := newsStore(t)
		content := newContent(m, builtCorpus(t, m))

		m.AddInteraction(recommend.Interaction{UserID: 1, ArticleID: arts["solar1"].ID, Action: recommend.ActionView, Timestamp: testNow.Add(-time.Hour)})
		m.AddInteraction(recommend.Interaction{UserID: 1, ArticleID: arts["solar2"].ID, Action: recommend.ActionLike, Timestamp: testNow.Add(-time.Hour)})

		got, err := content.Recommend(ctx, 1, 5, true)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) == 0 {
			t.Fatal("no recommendations for engaged user")
		}
		if got[0].Article.ID != arts["solar3"].ID {
			t.Errorf("top pick = %d, want the unread energy article %d", got[0].Article.ID, arts["solar3"].ID)
		}
		for _, r := range got {
			if r.Article.ID == arts["solar1"].ID {
				t.Error("viewed article leaked into recommendations")
			}
			if len(r.Contributions) != 1 || r.Contributions[0].Signal != recommend.SignalContent {
				t.Errorf("missing content contribution on %+v", r)
			}
		}
	})

	t.Run("liked but unviewed articles may repeat", func(t *testing.T) {
		m, arts := newsStore(t)
		content := newContent(m, builtCorpus(t, m))

		// A like alone does not mark an article as seen.
		m.AddInteraction(recommend.Interaction{UserID: 1, ArticleID: arts["solar1"].ID, Action: recommend.ActionLike, Timestamp: testNow.Add(-time.Hour)})

		got, err := content.Recommend(ctx, 1, 6, true)
		if err != nil {
			t.Fatal(err)
		}
		found := false
		for _, r := range got {
			if r.Article.ID == arts["solar1"].ID {
				found = true
			}
		}
		if !found {
			t.Error("liked-but-unviewed article should remain recommendable")
		}
	})
}

func TestContent_Similar(t *testing.T) {
	ctx := context.Background()
	m, arts := newsStore(t)
	content := newContent(m, builtCorpus(t, m))

	t.Run("excludes the seed article", func(t *testing.T) {
		got, err := content.Similar(ctx, arts["solar1"].ID, 5, 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) == 0 {
			t.Fatal("no similar articles found")
		}
		for _, r := range got {
			if r.Article.ID == arts["solar1"].ID {
				t.Error("seed article returned as its own neighbor")
			}
		}
	})

	t.Run("boosts preferred sources for known users", func(t *testing.T) {
		if err := m.SavePreferences(ctx, recommend.PreferenceRecord{
			UserID:  7,
			Sources: []string{"local"},
		}); err != nil {
			t.Fatal(err)
		}

		anon, err := content.Similar(ctx, arts["solar1"].ID, 5, 0)
		if err != nil {
			t.Fatal(err)
		}
		boosted, err := content.Similar(ctx, arts["solar1"].ID, 5, 7)
		if err != nil {
			t.Fatal(err)
		}

		find := func(items []recommend.Recommendation, id int64) float64 {
			for _, r := range items {
				if r.Article.ID == id {
					return r.Score
				}
			}
			return -1
		}
		anonScore := find(anon, arts["solar2"].ID)
		boostedScore := find(boosted, arts["solar2"].ID)
		if anonScore < 0 || boostedScore < 0 {
			t.Fatal("local-source article missing from similar results")
		}
		if boostedScore <= anonScore {
			t.Errorf("preferred source not boosted: %f vs %f", boostedScore, anonScore)
		}
	})
}

func TestContent_CategoryFallback(t *testing.T) {
	ctx := context.Background()
	since := testNow.Add(-24 * time.Hour)

	t.Run("uses the analyzed preference record", func(t *testing.T) {
		m, _ := newsStore(t)
		content := newContent(m, builtCorpus(t, m))

		if err := m.SavePreferences(ctx, recommend.PreferenceRecord{
			UserID:     5,
			Categories: []string{"sports"},
		}); err != nil {
			t.Fatal(err)
		}

		got, err := content.CategoryFallback(ctx, 5, 10, since)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) == 0 {
			t.Fatal("no fallback articles for a user with preferences")
		}
		for _, r := range got {
			if r.Article.PrimaryCategory() != "sports" {
				t.Errorf("fallback article %d category = %q, want sports", r.Article.ID, r.Article.PrimaryCategory())
			}
			if len(r.Contributions) != 1 || r.Contributions[0].Signal != recommend.SignalFallback {
				t.Errorf("missing fallback contribution on article %d", r.Article.ID)
			}
		}
	})

	t.Run("infers categories from history without a record", func(t *testing.T) {
		m, arts := newsStore(t)
		content := newContent(m, builtCorpus(t, m))

		m.AddInteraction(recommend.Interaction{UserID: 6, ArticleID: arts["match"].ID, Action: recommend.ActionView, Timestamp: testNow.Add(-time.Hour)})
		m.AddInteraction(recommend.Interaction{UserID: 6, ArticleID: arts["transfer"].ID, Action: recommend.ActionView, Timestamp: testNow.Add(-2 * time.Hour)})

		got, err := content.CategoryFallback(ctx, 6, 10, since)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) == 0 {
			t.Fatal("no fallback articles inferred from history")
		}
		for _, r := range got {
			if r.Article.PrimaryCategory() != "sports" {
				t.Errorf("inferred fallback article %d category = %q, want sports", r.Article.ID, r.Article.PrimaryCategory())
			}
		}
	})

	t.Run("no record and no history yields nothing", func(t *testing.T) {
		m, _ := newsStore(t)
		content := newContent(m, builtCorpus(t, m))

		got, err := content.CategoryFallback(ctx, 99, 10, since)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 0 {
			t.Errorf("fallback returned %d items for an unknown user, want 0", len(got))
		}
	})
}

func newTrending(m *store.Memory) *Trending {
	def := recommend.DefaultConfig()
	tr := NewTrending(m, m, m, nil, def.Trending, def.Breaking, def.Cache.TrendingTTL, def.Cache.BreakingTTL, zerolog.Nop())
	tr.clock = func() time.Time { return testNow }
	return tr
}

func engage(m *store.Memory, articleID int64, views, likes, shares int) {
	user := int64(100)
	for i := 0; i < views; i++ {
		m.AddInteraction(recommend.Interaction{UserID: user + int64(i), ArticleID: articleID, Action: recommend.ActionView, Timestamp: testNow.Add(-30 * time.Minute)})
	}
	for i := 0; i < likes; i++ {
		m.AddInteraction(recommend.Interaction{UserID: user + int64(i), ArticleID: articleID, Action: recommend.ActionLike, Timestamp: testNow.Add(-20 * time.Minute)})
	}
	for i := 0; i < shares; i++ {
		m.AddInteraction(recommend.Interaction{UserID: user + int64(i), ArticleID: articleID, Action: recommend.ActionShare, Timestamp: testNow.Add(-10 * time.Minute)})
	}
}

func TestTrending(t *testing.T) {
	ctx := context.Background()

	t.Run("orders by weighted engagement", func(t *testing.T) {
		m, arts := newsStore(t)
		tr := newTrending(m)

		// budget: 10 views = 10. solar1: 2 views + 3 shares = 11.
		engage(m, arts["budget"].ID, 10, 0, 0)
		engage(m, arts["solar1"].ID, 2, 0, 3)

		got, err := tr.Global(ctx, 5, 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) < 2 {
			t.Fatalf("len = %d, want >= 2", len(got))
		}
		if got[0].Article.ID != arts["solar1"].ID {
			t.Errorf("top trending = %d, want shares-heavy article %d", got[0].Article.ID, arts["solar1"].ID)
		}
	})

	t.Run("ignores engagement on stale articles", func(t *testing.T) {
		m, _ := newsStore(t)
		old := m.PutArticle(recommend.Article{
			Title: "Old viral story", Body: "old story",
			Categories: []string{"politics"}, SourceID: "wire",
			PublishedAt: testNow.Add(-72 * time.Hour),
		})
		engage(m, old.ID, 50, 10, 10)

		tr := newTrending(m)
		got, err := tr.Global(ctx, 5, 0)
		if err != nil {
			t.Fatal(err)
		}
		for _, r := range got {
			if r.Article.ID == old.ID {
				t.Error("article published outside the window is trending")
			}
		}
	})

	t.Run("category scope and reason", func(t *testing.T) {
		m, arts := newsStore(t)
		tr := newTrending(m)
		engage(m, arts["match"].ID, 5, 2, 0)
		engage(m, arts["solar1"].ID, 20, 5, 5)

		got, err := tr.InCategory(ctx, "sports", 5, 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 1 {
			t.Fatalf("len = %d, want 1", len(got))
		}
		if got[0].Article.ID != arts["match"].ID {
			t.Errorf("got %d, want sports article", got[0].Article.ID)
		}
		if got[0].Reason() != "Trending in sports" {
			t.Errorf("Reason() = %q, want %q", got[0].Reason(), "Trending in sports")
		}
	})

	t.Run("caps two articles per source", func(t *testing.T) {
		m := store.NewMemory()
		for i := 0; i < 4; i++ {
			a := m.PutArticle(recommend.Article{
				Title: fmt.Sprintf("wire story %d", i), Body: "story body",
				Categories: []string{"politics"}, SourceID: "wire",
				PublishedAt: testNow.Add(-time.Hour),
			})
			engage(m, a.ID, 10-i, 0, 0)
		}

		tr := newTrending(m)
		got, err := tr.Global(ctx, 10, 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 2 {
			t.Errorf("len = %d, want 2 after per-source cap", len(got))
		}
	})

	t.Run("scoped to preferred categories for known users", func(t *testing.T) {
		m, arts := newsStore(t)
		tr := newTrending(m)
		engage(m, arts["match"].ID, 5, 0, 0)
		engage(m, arts["solar1"].ID, 5, 0, 0)

		if err := m.SavePreferences(ctx, recommend.PreferenceRecord{UserID: 1, Categories: []string{"sports"}}); err != nil {
			t.Fatal(err)
		}

		got, err := tr.Recommend(ctx, 1, 5, false)
		if err != nil {
			t.Fatal(err)
		}
		for _, r := range got {
			if r.Article.PrimaryCategory() != "sports" {
				t.Errorf("non-preferred category %q in scoped trending", r.Article.PrimaryCategory())
			}
		}
	})
}

func TestTrending_Breaking(t *testing.T) {
	ctx := context.Background()

	t.Run("detects fast early engagement", func(t *testing.T) {
		m := store.NewMemory()
		hot := m.PutArticle(recommend.Article{
			Title: "Dam breach reported", Body: "breaking dam breach",
			Categories: []string{"news"}, SourceID: "wire",
			PublishedAt: testNow.Add(-10 * time.Minute),
		})
		cold := m.PutArticle(recommend.Article{
			Title: "Quiet local story", Body: "quiet story",
			Categories: []string{"news"}, SourceID: "local",
			PublishedAt: testNow.Add(-10 * time.Minute),
		})
		for i := 0; i < 20; i++ {
			m.AddInteraction(recommend.Interaction{UserID: int64(i + 1), ArticleID: hot.ID, Action: recommend.ActionView, Timestamp: testNow.Add(-5 * time.Minute)})
		}
		m.AddInteraction(recommend.Interaction{UserID: 1, ArticleID: cold.ID, Action: recommend.ActionView, Timestamp: testNow.Add(-5 * time.Minute)})

		tr := newTrending(m)
		got, err := tr.Breaking(ctx, 5)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) == 0 {
			t.Fatal("no breaking items detected")
		}
		if got[0].Article.ID != hot.ID {
			t.Errorf("top breaking = %d, want %d", got[0].Article.ID, hot.ID)
		}
		// 1 view over 10 minutes is below the velocity floor.
		for _, r := range got {
			if r.Article.ID == cold.ID {
				t.Error("slow article qualified as breaking")
			}
		}
	})

	t.Run("old articles never break", func(t *testing.T) {
		m := store.NewMemory()
		a := m.PutArticle(recommend.Article{
			Title: "Two hour old story", Body: "story",
			PublishedAt: testNow.Add(-2 * time.Hour), SourceID: "wire",
		})
		engage(m, a.ID, 50, 10, 10)

		tr := newTrending(m)
		got, err := tr.Breaking(ctx, 5)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 0 {
			t.Errorf("len = %d, want 0 outside breaking window", len(got))
		}
	})
}

func TestFresh_Recommend(t *testing.T) {
	ctx := context.Background()

	t.Run("newest first within window", func(t *testing.T) {
		m, arts := newsStore(t)
		f := NewFresh(m, m, m, recommend.DefaultConfig().Freshness, zerolog.Nop())
		f.clock = func() time.Time { return testNow }

		got, err := f.Recommend(ctx, 0, 10, false)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 6 {
			t.Fatalf("len = %d, want 6 articles inside 12h window", len(got))
		}
		for i := 1; i < len(got); i++ {
			if got[i].Score > got[i-1].Score {
				t.Errorf("freshness order violated at %d", i)
			}
		}
		if got[0].Article.ID != arts["solar1"].ID && got[0].Article.ID != arts["match"].ID {
			t.Errorf("top fresh = %d, want a one-hour-old article", got[0].Article.ID)
		}
	})

	t.Run("preferred categories rank first", func(t *testing.T) {
		m, arts := newsStore(t)
		if err := m.SavePreferences(ctx, recommend.PreferenceRecord{
			UserID:     8,
			Categories: []string{"politics"},
		}); err != nil {
			t.Fatal(err)
		}

		f := NewFresh(m, m, m, recommend.DefaultConfig().Freshness, zerolog.Nop())
		f.clock = func() time.Time { return testNow }

		got, err := f.Recommend(ctx, 8, 10, false)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 6 {
			t.Fatalf("len = %d, want the full 12h window", len(got))
		}
		if got[0].Article.ID != arts["budget"].ID {
			t.Errorf("top fresh = %d, want the politics article %d despite newer articles elsewhere",
				got[0].Article.ID, arts["budget"].ID)
		}
		for i := 1; i < len(got); i++ {
			if got[i].Article.PrimaryCategory() == "politics" {
				t.Errorf("politics article %d ranked behind non-preferred articles", got[i].Article.ID)
			}
		}
	})

	t.Run("window cutoff excludes old articles", func(t *testing.T) {
		m := store.NewMemory()
		m.PutArticle(recommend.Article{Title: "yesterday", Body: "b", PublishedAt: testNow.Add(-20 * time.Hour)})
		f := NewFresh(m, m, m, recommend.DefaultConfig().Freshness, zerolog.Nop())
		f.clock = func() time.Time { return testNow }

		got, err := f.Recommend(ctx, 0, 10, false)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 0 {
			t.Errorf("len = %d, want 0", len(got))
		}
	})

	t.Run("excludes seen articles", func(t *testing.T) {
		m, arts := newsStore(t)
		m.AddInteraction(recommend.Interaction{UserID: 1, ArticleID: arts["solar1"].ID, Action: recommend.ActionView, Timestamp: testNow})

		f := NewFresh(m, m, m, recommend.DefaultConfig().Freshness, zerolog.Nop())
		f.clock = func() time.Time { return testNow }

		got, err := f.Recommend(ctx, 1, 10, true)
		if err != nil {
			t.Fatal(err)
		}
		for _, r := range got {
			if r.Article.ID == arts["solar1"].ID {
				t.Error("viewed article in fresh results")
			}
		}
	})
}
