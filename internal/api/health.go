// Tunegraph - Social and Content Song Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegraph

package api

import (
	"context"
	"net/http"
	"sort"
	"time"
)

// Pinger is a dependency the health endpoint checks, such as the Badger
// store or the Redis cluster cache.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

type healthCheck struct {
	name string
	dep  Pinger
}

// Health checks its dependencies on every request.
type Health struct {
	checks  []healthCheck
	timeout time.Duration
}

// NewHealth returns a health endpoint checking deps by name.
func NewHealth(deps map[string]Pinger) *Health {
	h := &Health{timeout: 2 * time.Second}
	for name, dep := range deps {
		h.checks = append(h.checks, healthCheck{name: name, dep: dep})
	}
	sort.Slice(h.checks, func(i, j int) bool { return h.checks[i].name < h.checks[j].name })
	return h
}

// ServeHTTP reports 200 when every dependency answers, 503 otherwise.
func (h *Health) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	resp := HealthResponse{Status: "ok", Checks: make(map[string]string, len(h.checks))}
	status := http.StatusOK
	for _, c := range h.checks {
		if err := c.dep.Ping(ctx); err != nil {
			resp.Checks[c.name] = err.Error()
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[c.name] = "ok"
	}
	writeJSON(w, r, status, resp)
}
