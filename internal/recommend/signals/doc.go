// Feedwise - Personalized News Feed Ranking
// Copyright 2026 Feedwise Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feedwise/feedwise

// Package signals contains the individual feed signals the engine
// blends: content similarity over the shared TF-IDF feature space,
// windowed engagement trending with breaking news detection, and
// publication freshness. The package also owns the corpus snapshot
// holder and the user profile builder that feed the content signal.
package signals
