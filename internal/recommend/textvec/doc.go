// Feedwise - Personalized News Feed Ranking
// Copyright 2026 Feedwise Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feedwise/feedwise

// Package textvec implements the TF-IDF feature space used for content
// similarity: text cleaning, n-gram tokenization, corpus fitting into
// immutable snapshots, and cosine similarity over sparse vectors.
//
// A Snapshot is fitted once from an article batch and then shared
// read-only; the engine swaps whole snapshots atomically on rebuild so
// readers never observe a half-built vocabulary.
package textvec
