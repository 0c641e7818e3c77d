// Tunegraph - Social and Content Song Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegraph

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/tunegraph/internal/metrics"
	"github.com/tomtom215/tunegraph/internal/middleware"
)

// RouterConfig configures cross-cutting HTTP behavior.
type RouterConfig struct {
	// RateLimitRequests per RateLimitWindow per client IP on /api/v1.
	// Zero disables rate limiting.
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// RequestTimeout bounds handler execution. Zero disables it.
	RequestTimeout time.Duration

	// Tracing wraps the API in an otelhttp server span.
	Tracing bool

	// CORSOrigins lists origins allowed to call /api/v1 from a browser.
	// Empty disables CORS handling.
	CORSOrigins []string
}

// NewRouter builds the HTTP handler for the API, health and metrics
// endpoints.
func NewRouter(h *Handler, health http.Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.AccessLog)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Metrics)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusNotFound, CodeNotFound, "no such route", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusMethodNotAllowed, CodeMethodNotAllow, "method not allowed", nil)
	})

	r.Method(http.MethodGet, "/healthz", health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.Tracing {
			r.Use(middleware.Tracing("tunegraph-api"))
		}
		if len(cfg.CORSOrigins) > 0 {
			r.Use(cors.Handler(cors.Options{
				AllowedOrigins: cfg.CORSOrigins,
				AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
				AllowedHeaders: []string{"Accept", "Content-Type", middleware.RequestIDHeader},
				ExposedHeaders: []string{middleware.RequestIDHeader},
				MaxAge:         300,
			}))
		}
		if cfg.RateLimitRequests > 0 {
			r.Use(rateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))
		}
		if cfg.RequestTimeout > 0 {
			r.Use(chimiddleware.Timeout(cfg.RequestTimeout))
		}
		r.Use(securityHeaders)

		r.Route("/users/{userID}", func(r chi.Router) {
			r.Get("/recommendations", h.Recommendations)
			r.Post("/feedback", h.Feedback)
			r.Get("/clusters", h.Clusters)
		})
	})

	return r
}

func rateLimit(requests int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(requests, window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			metrics.RecordRateLimitHit("/api/v1")
			respondError(w, r, http.StatusTooManyRequests, CodeRateLimited, "too many requests", nil)
		}),
	)
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}
