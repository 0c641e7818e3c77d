// Tunegraph - Social and Content Song Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegraph

// Package middleware holds the net/http middleware shared by the API router:
// request ids wired into the logging context, Prometheus request metrics
// keyed by chi route pattern, and structured access logging.
package middleware
