// Tunegraph - Social and Content Song Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegraph

// Package recommend implements the hybrid song recommendation engine.
//
// # Architecture
//
// A request runs two stages and fuses their scores:
//
//   - Collaborative: songs liked by the user's friends, scored by how many
//     friends like them relative to the most liked candidate.
//   - Content: the user's liked songs are clustered into interest
//     centroids; each centroid retrieves similar catalog songs through an
//     approximate neighbor index (see retrieval) and the lists are
//     diversified (see reranking) and interleaved.
//
// The final score is CollaborativeWeight*collab + ContentWeight*content,
// each adjusted by explicit feedback, clamped to [0,1].
//
// # Degradation
//
// Every collaborator call is wrapped in a Signal. A failed call is logged,
// counted and treated as empty, so a broken friend graph still yields
// content recommendations and vice versa. Only an unidentified user or a
// negative limit is an error.
//
// # Cluster Analytics
//
// ClusterAnalytics runs the detailed clustering policy and a 2-D projection
// over the liked songs. Results are cached per user and considered fresh
// for Cache.TTL, checked at read time.
//
// # Usage
//
//	engine, err := recommend.NewEngine(recommend.DefaultConfig(), recommend.Components{
//	    Features:  store,
//	    Social:    store,
//	    Feedback:  store,
//	    Log:       store,
//	    Cache:     store,
//	    Retriever: retrieval.New(cfg.Retrieval, logger),
//	    Reranker:  reranking.NewMMR(cfg.Diversity),
//	}, logger)
//
//	resp, err := engine.GenerateRecommendations(ctx, "user-1", 20)
//
// # Thread Safety
//
// The engine is safe for concurrent use. CPU-heavy work (clustering,
// neighbor search, projection) runs on a bounded worker pool.
package recommend
