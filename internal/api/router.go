// Feedwise - Personalized News Feed Ranking
// Copyright 2026 Feedwise Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feedwise/feedwise

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router assembles the HTTP routing tree.
type Router struct {
	handler    *Handler
	middleware *ChiMiddleware
}

// NewRouter creates a router around the handler and middleware factory.
func NewRouter(handler *Handler, middleware *ChiMiddleware) *Router {
	if middleware == nil {
		middleware = NewChiMiddleware(nil)
	}
	return &Router{handler: handler, middleware: middleware}
}

// Setup configures all HTTP routes.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to all routes in order.
	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.middleware.CORS())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(PrometheusMetrics)

		// Read endpoints share the standard rate budget.
		r.Group(func(r chi.Router) {
			r.Use(router.middleware.RateLimit())

			r.Get("/feed", router.handler.Feed)
			r.Get("/articles/{id}/similar", router.handler.Similar)
			r.Get("/trending", router.handler.Trending)
			r.Get("/breaking", router.handler.Breaking)
			r.Get("/users/{id}/insights", router.handler.Insights)
			r.Get("/stats", router.handler.Stats)
		})

		// Interaction writes get a tighter budget.
		r.Group(func(r chi.Router) {
			r.Use(router.middleware.RateLimitWrite())

			r.Post("/interactions", router.handler.RecordInteraction)
		})
	})

	r.Get("/healthz", router.handler.Health)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
