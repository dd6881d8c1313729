// Feedwise - Personalized News Feed Ranking
// Copyright 2026 Feedwise Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feedwise/feedwise

package textvec

import (
	"math"
	"sort"
	"sync/atomic"
	"time"
)

// Document is one input to a vectorizer fit.
type Document struct {
	// ID identifies the document (article ID).
	ID int64

	// Text is the pre-assembled text to vectorize.
	Text string
}

// Config contains vectorizer parameters.
type Config struct {
	// MaxFeatures caps the vocabulary size.
	MaxFeatures int

	// MinDocCount excludes terms appearing in fewer documents.
	MinDocCount int

	// MaxDocRatio excludes terms appearing in more than this fraction of
	// documents.
	MaxDocRatio float64

	// NgramMax is the maximum n-gram length.
	NgramMax int
}

// DefaultConfig returns vectorizer defaults matching the engine defaults.
func DefaultConfig() Config {
	return Config{
		MaxFeatures: 5000,
		MinDocCount: 2,
		MaxDocRatio: 0.95,
		NgramMax:    2,
	}
}

// Vectorizer builds TF-IDF snapshots from document batches.
//
// Term weighting is sublinear TF with smoothed IDF:
//
//	tf(t, d)  = 1 + ln(count(t, d))
//	idf(t)    = ln((1 + N) / (1 + df(t))) + 1
//
// and every document vector is L2-normalized, so cosine similarity over
// fitted vectors reduces to a dot product.
type Vectorizer struct {
	cfg Config
}

// New returns a vectorizer with the given parameters. Zero values are
// replaced by defaults.
func New(cfg Config) *Vectorizer {
	def := DefaultConfig()
	if cfg.MaxFeatures <= 0 {
		cfg.MaxFeatures = def.MaxFeatures
	}
	if cfg.MinDocCount <= 0 {
		cfg.MinDocCount = def.MinDocCount
	}
	if cfg.MaxDocRatio <= 0 || cfg.MaxDocRatio > 1 {
		cfg.MaxDocRatio = def.MaxDocRatio
	}
	if cfg.NgramMax <= 0 {
		cfg.NgramMax = def.NgramMax
	}
	return &Vectorizer{cfg: cfg}
}

// lastVersion guarantees strictly increasing snapshot versions even when
// two fits land on the same clock reading.
var lastVersion atomic.Int64

func nextVersion(now time.Time) int64 {
	for {
		prev := lastVersion.Load()
		next := now.UnixNano()
		if next <= prev {
			next = prev + 1
		}
		if lastVersion.CompareAndSwap(prev, next) {
			return next
		}
	}
}

// Snapshot is an immutable fitted feature space: vocabulary with IDF
// weights plus the vectors of the fitted corpus. Snapshots are built once
// and then only read, so they are safe for concurrent use.
type Snapshot struct {
	idf      map[string]float64
	vectors  map[int64]Vector
	ids      []int64
	ngramMax int
	version  int64
	fittedAt time.Time
}

// Fit builds a snapshot from the given documents. Document order is
// preserved in IDs (callers pass newest first). Documents with empty text
// after cleaning get empty vectors but still occupy a corpus slot.
//
// An empty input yields a valid empty snapshot; callers detect that via
// Len and fall back rather than treating it as an error.
func (v *Vectorizer) Fit(docs []Document) *Snapshot {
	now := time.Now()
	snap := &Snapshot{
		idf:      make(map[string]float64),
		vectors:  make(map[int64]Vector, len(docs)),
		ids:      make([]int64, 0, len(docs)),
		ngramMax: v.cfg.NgramMax,
		version:  nextVersion(now),
		fittedAt: now,
	}
	if len(docs) == 0 {
		return snap
	}

	// Pass 1: per-document term counts, document frequencies, and corpus
	// frequencies for the max-features cut.
	docCounts := make([]map[string]int, len(docs))
	df := make(map[string]int)
	corpusTF := make(map[string]int64)
	for i, d := range docs {
		counts := TermCounts(d.Text, v.cfg.NgramMax)
		docCounts[i] = counts
		for t, c := range counts {
			df[t]++
			corpusTF[t] += int64(c)
		}
	}

	// Document-frequency pruning. The hard floor keeps tiny corpora
	// usable: the ratio cap never drops below the min-count cutoff.
	n := len(docs)
	maxDF := int(v.cfg.MaxDocRatio * float64(n))
	if maxDF < v.cfg.MinDocCount {
		maxDF = v.cfg.MinDocCount
	}
	vocab := make([]string, 0, len(df))
	for t, d := range df {
		if d < v.cfg.MinDocCount || d > maxDF {
			continue
		}
		vocab = append(vocab, t)
	}

	// Max-features cut: keep the highest corpus-frequency terms, ties
	// broken lexicographically for determinism.
	if len(vocab) > v.cfg.MaxFeatures {
		sort.Slice(vocab, func(i, j int) bool {
			ti, tj := vocab[i], vocab[j]
			if corpusTF[ti] != corpusTF[tj] {
				return corpusTF[ti] > corpusTF[tj]
			}
			return ti < tj
		})
		vocab = vocab[:v.cfg.MaxFeatures]
	}

	for _, t := range vocab {
		snap.idf[t] = math.Log(float64(1+n)/float64(1+df[t])) + 1
	}

	// Pass 2: weighted, normalized document vectors.
	for i, d := range docs {
		vec := make(Vector)
		for t, c := range docCounts[i] {
			idf, ok := snap.idf[t]
			if !ok {
				continue
			}
			vec[t] = (1 + math.Log(float64(c))) * idf
		}
		vec.Normalize()
		snap.vectors[d.ID] = vec
		snap.ids = append(snap.ids, d.ID)
	}

	return snap
}

// Transform projects arbitrary text into the snapshot's feature space.
// Terms outside the vocabulary are dropped. The result is L2-normalized.
func (s *Snapshot) Transform(text string) Vector {
	vec := make(Vector)
	if len(s.idf) == 0 {
		return vec
	}
	for t, c := range TermCounts(text, s.ngramMax) {
		idf, ok := s.idf[t]
		if !ok {
			continue
		}
		vec[t] = (1 + math.Log(float64(c))) * idf
	}
	vec.Normalize()
	return vec
}

// Vector returns the fitted vector for a document ID.
func (s *Snapshot) Vector(id int64) (Vector, bool) {
	v, ok := s.vectors[id]
	return v, ok
}

// IDs returns the fitted document IDs in fit order. Callers must not
// modify the returned slice.
func (s *Snapshot) IDs() []int64 {
	return s.ids
}

// Contains reports whether the document is in the fitted corpus.
func (s *Snapshot) Contains(id int64) bool {
	_, ok := s.vectors[id]
	return ok
}

// Len returns the number of fitted documents.
func (s *Snapshot) Len() int {
	return len(s.ids)
}

// VocabSize returns the vocabulary size.
func (s *Snapshot) VocabSize() int {
	return len(s.idf)
}

// Version returns a monotonically increasing snapshot version.
func (s *Snapshot) Version() int64 {
	return s.version
}

// FittedAt returns when the snapshot was built.
func (s *Snapshot) FittedAt() time.Time {
	return s.fittedAt
}
