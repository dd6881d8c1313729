// Feedwise - Personalized News Feed Ranking
// Copyright 2026 Feedwise Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feedwise/feedwise

package signals

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/feedwise/feedwise/internal/metrics"
	"github.com/feedwise/feedwise/internal/recommend"
	"github.com/feedwise/feedwise/internal/recommend/textvec"
)

// Corpus owns the fitted TF-IDF feature space. Rebuilds fit a fresh
// snapshot off to the side and swap it in atomically, so concurrent
// readers always see a complete vocabulary.
type Corpus struct {
	articles   recommend.ArticleStore
	vectorizer *textvec.Vectorizer
	cfg        recommend.VectorizerConfig
	logger     zerolog.Logger
	clock      func() time.Time

	current atomic.Pointer[textvec.Snapshot]

	// rebuildMu serializes rebuilds; readers never take it.
	rebuildMu sync.Mutex
}

// NewCorpus creates a corpus holder. The snapshot starts empty; call
// Rebuild (or let the scheduled job do it) to fit the feature space.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewCorpus(articles recommend.ArticleStore, cfg recommend.VectorizerConfig, logger zerolog.Logger) *Corpus {
	c := &Corpus{
		articles: articles,
		vectorizer: textvec.New(textvec.Config{
			MaxFeatures: cfg.MaxFeatures,
			MinDocCount: cfg.MinDocCount,
			MaxDocRatio: cfg.MaxDocRatio,
			NgramMax:    cfg.NgramMax,
		}),
		cfg:    cfg,
		logger: logger.With().Str("component", "corpus").Logger(),
		clock:  time.Now,
	}
	c.current.Store(c.vectorizer.Fit(nil))
	return c
}

// Snapshot returns the current feature space. Never nil; an unfitted or
// empty corpus yields a snapshot with Len() == 0.
func (c *Corpus) Snapshot() *textvec.Snapshot {
	return c.current.Load()
}

// Version returns the version of the current snapshot.
func (c *Corpus) Version() int64 {
	return c.current.Load().Version()
}

// Rebuild fits a new snapshot from recently published articles and swaps
// it in. Concurrent rebuilds are serialized; readers are never blocked.
func (c *Corpus) Rebuild(ctx context.Context) error {
	c.rebuildMu.Lock()
	defer c.rebuildMu.Unlock()

	start := c.clock()
	since := start.AddDate(0, 0, -c.cfg.CorpusWindowDays)

	articles, err := c.articles.RecentArticles(ctx, since, c.cfg.MaxCorpusSize)
	if err != nil {
		metrics.CorpusRebuildErrors.Inc()
		return fmt.Errorf("load corpus articles: %w", err)
	}

	docs := make([]textvec.Document, 0, len(articles))
	for _, a := range articles {
		docs = append(docs, textvec.Document{ID: a.ID, Text: a.VectorText()})
	}

	snap := c.vectorizer.Fit(docs)
	c.current.Store(snap)

	metrics.RecordCorpusRebuild(c.clock().Sub(start), snap.Len(), snap.VocabSize(), snap.Version())

	c.logger.Info().
		Int("articles", snap.Len()).
		Int("vocabulary", snap.VocabSize()).
		Int64("version", snap.Version()).
		Dur("duration", c.clock().Sub(start)).
		Msg("feature space rebuilt")

	return nil
}

// VectorFor returns the article's vector in the current feature space.
// Articles outside the fitted corpus (published after the last rebuild)
// are projected on demand.
func (c *Corpus) VectorFor(a recommend.Article) textvec.Vector {
	snap := c.Snapshot()
	if v, ok := snap.Vector(a.ID); ok {
		return v
	}
	return snap.Transform(a.VectorText())
}
