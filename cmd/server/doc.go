// Tunegraph - Social and Content Song Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegraph

// Command server runs the Tunegraph recommendation API.
//
// Startup order:
//
//  1. Configuration (koanf: defaults, config.yaml, TUNEGRAPH_* env)
//  2. Logging and tracing
//  3. Badger store, optional Redis or in-memory cluster cache, circuit breakers
//  4. Recommendation engine with HNSW retrieval and MMR reranking
//  5. Supervisor tree: value-log GC and cache sweeps in the data layer,
//     the HTTP server in the API layer
//
// SIGINT or SIGTERM cancels the tree; the HTTP server drains for
// server.shutdown_timeout before the store is closed.
//
// Local run against seeded data:
//
//	go run ./cmd/seed -data ./data -fixture ./cmd/seed/testdata/catalog.yaml
//	TUNEGRAPH_DATA_PATH=./data go run ./cmd/server
//	curl localhost:8420/api/v1/users/alice/recommendations?limit=5
package main
