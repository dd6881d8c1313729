// Feedwise - Personalized News Feed Ranking
// Copyright 2026 Feedwise Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feedwise/feedwise

package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/feedwise/feedwise/internal/recommend"
	"github.com/feedwise/feedwise/internal/recommend/analyzer"
)

// handlerTimeout bounds a single request's work in the engine.
const handlerTimeout = 10 * time.Second

// Handler serves the ranking API endpoints.
type Handler struct {
	engine   *recommend.Engine
	analyzer *analyzer.Analyzer
	logger   zerolog.Logger
	started  time.Time
}

// NewHandler creates the API handler. The analyzer may be nil; the
// insights endpoint then reports unavailable.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewHandler(engine *recommend.Engine, insights *analyzer.Analyzer, logger zerolog.Logger) *Handler {
	return &Handler{
		engine:   engine,
		analyzer: insights,
		logger:   logger.With().Str("component", "api").Logger(),
		started:  time.Now(),
	}
}

// Feed handles GET /api/v1/feed.
// Returns a ranked personalized feed for the user.
func (h *Handler) Feed(w http.ResponseWriter, r *http.Request) {
	userID, ok := queryUserID(w, r)
	if !ok {
		return
	}

	mode := recommend.ModePersonalized
	if r.URL.Query().Get("mode") == "explore" {
		mode = recommend.ModeExplore
	}

	req := recommend.FeedRequest{
		UserID:      userID,
		K:           getIntParam(r, "k", 0),
		ExcludeSeen: getBoolParam(r, "exclude_seen", true),
		Mode:        mode,
		RequestID:   r.Header.Get("X-Request-ID"),
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	resp, err := h.engine.Feed(ctx, req)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "FEED_ERROR", "Failed to assemble feed", err)
		return
	}

	respondJSON(w, http.StatusOK, &APIResponse{
		Status: "success",
		Data:   resp,
		Metadata: Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: resp.Metadata.LatencyMS,
		},
	})
}

// Similar handles GET /api/v1/articles/{id}/similar.
// Returns articles similar to the given one, with the requesting user's
// preferred sources boosted when user_id is supplied.
func (h *Handler) Similar(w http.ResponseWriter, r *http.Request) {
	articleID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || articleID <= 0 {
		respondError(w, http.StatusBadRequest, "INVALID_ARTICLE_ID", "Invalid article ID", err)
		return
	}

	k := getIntParam(r, "k", 0)
	userID := int64(getIntParam(r, "user_id", 0))

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	start := time.Now()
	items, err := h.engine.Similar(ctx, articleID, k, userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "SIMILARITY_ERROR", "Failed to find similar articles", err)
		return
	}
	if items == nil {
		items = []recommend.Recommendation{}
	}

	respondJSON(w, http.StatusOK, &APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"article_id": articleID,
			"items":      items,
			"count":      len(items),
		},
		Metadata: Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

// Trending handles GET /api/v1/trending.
// Returns globally trending articles, or a category scope when the
// category parameter is set.
func (h *Handler) Trending(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	k := getIntParam(r, "k", 0)

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	start := time.Now()
	items, err := h.engine.Trending(ctx, category, k)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "TRENDING_ERROR", "Failed to compute trending articles", err)
		return
	}
	if items == nil {
		items = []recommend.Recommendation{}
	}

	respondJSON(w, http.StatusOK, &APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"category": category,
			"items":    items,
			"count":    len(items),
		},
		Metadata: Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

// Breaking handles GET /api/v1/breaking.
// Returns articles with unusually fast early engagement.
func (h *Handler) Breaking(w http.ResponseWriter, r *http.Request) {
	k := getIntParam(r, "k", 0)

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	start := time.Now()
	items, err := h.engine.Breaking(ctx, k)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "BREAKING_ERROR", "Failed to compute breaking articles", err)
		return
	}
	if items == nil {
		items = []recommend.Recommendation{}
	}

	respondJSON(w, http.StatusOK, &APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"items": items,
			"count": len(items),
		},
		Metadata: Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

// Insights handles GET /api/v1/users/{id}/insights.
// Returns the user's reading patterns and achievements.
func (h *Handler) Insights(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || userID <= 0 {
		respondError(w, http.StatusBadRequest, "INVALID_USER_ID", "Invalid user ID", err)
		return
	}

	if h.analyzer == nil {
		respondError(w, http.StatusServiceUnavailable, "INSIGHTS_UNAVAILABLE", "Insights are not configured", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	start := time.Now()
	insights, err := h.analyzer.Insights(ctx, userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INSIGHTS_ERROR", "Failed to compute reading insights", err)
		return
	}

	respondJSON(w, http.StatusOK, &APIResponse{
		Status: "success",
		Data:   insights,
		Metadata: Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

// interactionRequest is the POST /api/v1/interactions body.
type interactionRequest struct {
	UserID       int64     `json:"user_id"`
	ArticleID    int64     `json:"article_id"`
	Action       string    `json:"action"`
	DwellSeconds int       `json:"dwell_seconds,omitempty"`
	Timestamp    time.Time `json:"timestamp,omitempty"`
}

// RecordInteraction handles POST /api/v1/interactions.
// Persists an interaction and schedules the resulting profile refresh.
func (h *Handler) RecordInteraction(w http.ResponseWriter, r *http.Request) {
	var body interactionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body", err)
		return
	}

	action, err := recommend.ParseActionKind(body.Action)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_ACTION", "Unknown interaction action", err)
		return
	}

	in := recommend.Interaction{
		UserID:       body.UserID,
		ArticleID:    body.ArticleID,
		Action:       action,
		Timestamp:    body.Timestamp,
		DwellSeconds: body.DwellSeconds,
	}
	if in.Timestamp.IsZero() {
		in.Timestamp = time.Now()
	}

	if err := h.engine.RecordInteraction(r.Context(), in); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_INTERACTION", "Interaction rejected", err)
		return
	}

	respondJSON(w, http.StatusAccepted, &APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"user_id":    in.UserID,
			"article_id": in.ArticleID,
			"action":     action.String(),
		},
		Metadata: Metadata{
			Timestamp: time.Now(),
		},
	})
}

// Stats handles GET /api/v1/stats.
// Returns engine counters for dashboards and debugging.
func (h *Handler) Stats(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, &APIResponse{
		Status: "success",
		Data:   h.engine.Stats(),
		Metadata: Metadata{
			Timestamp: time.Now(),
		},
	})
}

// Health handles GET /healthz.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, &APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"status":         "ok",
			"uptime_seconds": int64(time.Since(h.started).Seconds()),
		},
		Metadata: Metadata{
			Timestamp: time.Now(),
		},
	})
}

// queryUserID extracts and validates the required user_id parameter.
func queryUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.URL.Query().Get("user_id")
	if raw == "" {
		respondError(w, http.StatusBadRequest, "MISSING_USER_ID", "user_id is required", nil)
		return 0, false
	}
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || userID <= 0 {
		respondError(w, http.StatusBadRequest, "INVALID_USER_ID", "Invalid user ID", err)
		return 0, false
	}
	return userID, true
}
