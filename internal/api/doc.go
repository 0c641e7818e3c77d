// Tunegraph - Social and Content Song Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegraph

/*
Package api exposes the recommendation engine over HTTP using chi.

Routes:

	GET  /api/v1/users/{userID}/recommendations?limit=N
	POST /api/v1/users/{userID}/feedback        {"song_id", "liked", "recommendation_id"}
	GET  /api/v1/users/{userID}/clusters?force=true|false
	GET  /healthz
	GET  /metrics

Every /api/v1 response uses the same envelope:

	{"success": true, "data": {...}, "meta": {"request_id": "...", "timestamp": "..."}}
	{"success": false, "error": {"code": "INVALID_LIMIT", "message": "..."}, "meta": {...}}

Engine sentinel errors map to 400, breaker rejections to 503 and deadline
overruns to 504. Anything else is a 500 whose details stay in the log.
*/
package api
