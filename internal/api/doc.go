// Feedwise - Personalized News Feed Ranking
// Copyright 2026 Feedwise Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feedwise/feedwise

// Package api provides the HTTP surface for the ranking engine: feed
// assembly, similar articles, trending and breaking lists, reading
// insights, and interaction recording. Routing uses Chi with the
// ecosystem middleware (go-chi/cors, httprate) and goccy/go-json for
// response encoding.
package api
