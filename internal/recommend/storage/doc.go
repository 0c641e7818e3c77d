// Tunegraph - Social and Content Song Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegraph

// Package storage persists the recommendation engine's collaborators.
//
// # Overview
//
// Store is a BadgerDB-backed implementation of every collaborator
// interface the engine consumes:
//   - recommend.FeatureStore: catalog songs with feature vectors, lyrics
//     embeddings and display metadata
//   - recommend.SocialGraph: liked songs and friendships
//   - recommend.FeedbackStore: one feedback record per (user, song)
//   - recommend.RecommendationLog: surfaced recommendations for attribution
//   - recommend.ClusterCache: cluster analyses per user
//
// RedisClusterCache is an alternative cluster cache shared between server
// replicas. Guarded and GuardedClusterCache wrap any implementation with a
// circuit breaker so a failing backend is short-circuited instead of
// retried on every request.
//
// # Storage Format
//
// Values are CBOR encoded. Keys are NUL separated so that ids may contain
// any printable character:
//
//	song\x00{song_id}                  -> songRecord
//	like\x00{user_id}\x00{song_id}     -> likeRecord
//	friend\x00{user_id}\x00{friend_id} -> (empty)
//	feedback\x00{user_id}\x00{song_id} -> recommend.Feedback
//	rec\x00{record_id}                 -> recommend.RecommendationRecord
//	recuser\x00{user_id}\x00{rec_id}   -> (empty)
//	clusters\x00{user_id}              -> recommend.ClusterCacheEntry
//
// # Observability
//
// Every operation opens a tracing span and records latency and errors in
// the store_operation_* metrics, labeled by backend and operation.
//
// # Thread Safety
//
// All types are safe for concurrent use.
package storage
