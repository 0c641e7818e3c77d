// Tunegraph - Social and Content Song Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegraph

// Package reranking implements post-processing for recommendation diversity.
//
// Rerankers run on each per-centroid candidate list after retrieval and
// before the lists are interleaved:
//
//	Retrieval -> per-centroid lists -> Reranker -> interleave -> fusion
//
// # MMR Algorithm
//
// Maximal Marginal Relevance iteratively selects candidates that are both
// relevant and dissimilar to those already selected:
//
//	MMR = argmax[lambda * adjusted(i) - (1-lambda) * max_similarity(i, selected)]
//
// Where:
//   - adjusted(i): the candidate score times 1.2 if the user liked it, 0.5 if
//     they disliked it, clamped to [0,1]
//   - max_similarity: the largest cosine similarity between the candidate's
//     feature vector and any selected candidate (0 before the first pick)
//
// Lambda starts at 0.7. A user with more dislikes than likes gets
// lambda - 0.2 (not below 0.3); more likes than dislikes gives lambda + 0.1
// (not above 0.9). Equal scores keep the order of the input list.
//
// Each round only compares candidates against the most recent pick, keeping
// a running maximum per candidate, so a rerank costs O(k * n) similarity
// evaluations.
//
// The friend coverage pass applied to collaborative candidates is a
// separate mechanism in package recommend and does not use this package.
//
// # Thread Safety
//
// MMR is stateless after construction and safe for concurrent use.
package reranking
