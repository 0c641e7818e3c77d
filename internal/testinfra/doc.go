// Tunegraph - Social and Content Song Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegraph

// Package testinfra starts throwaway service containers for integration
// tests with testcontainers-go.
//
// Everything here is behind the integration build tag:
//
//	go test -tags integration ./internal/recommend/storage/...
//
// Tests call SkipIfNoDocker first, so a tagged run on a machine without
// Docker skips instead of failing.
//
//	func TestRedisRoundTrip(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    addr := testinfra.StartRedis(t)
//	    client := redis.NewClient(&redis.Options{Addr: addr})
//	    ...
//	}
package testinfra
