// Tunegraph - Social and Content Song Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegraph

/*
Package cache provides thread-safe in-memory caching with TTL support.

# Overview

The cache provides:
  - Thread-safe concurrent access (sync.Mutex)
  - Time-to-live (TTL) expiration, checked lazily on Get
  - An optional capacity bound that evicts the entry closest to expiry
  - Hit, miss and eviction statistics
  - An injectable clock for deterministic tests

ClusterStore adapts the cache to recommend.ClusterCache for single-node
deployments (storage backend "memory"). Multi-node deployments use the
Badger or Redis backends in the storage package instead.

# Usage

	clusters := cache.NewClusterStore(48*time.Hour, 10000)
	engine, err := recommend.NewEngine(cfg, recommend.Components{
	    // ...
	    Cache: clusters,
	}, logger)

# Thread Safety

All types are safe for concurrent use.
*/
package cache
