// Tunegraph - Social and Content Song Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegraph

package recommend

import (
	"context"
	"time"
)

// The interfaces below are the contracts the pipeline consumes. They are
// implemented by the storage package (Badger and Redis) and by in-memory
// fakes in tests. Missing entries are not errors: a song without a vector
// is simply absent from the returned map.

// FeatureStore supplies song vectors and metadata.
type FeatureStore interface {
	// SongIDs lists the full catalog.
	SongIDs(ctx context.Context) ([]SongID, error)

	// FeatureVectors returns the audio feature vectors of ids.
	FeatureVectors(ctx context.Context, ids []SongID) (map[SongID]Vector, error)

	// LyricsEmbeddings returns the lyrics embeddings of ids.
	LyricsEmbeddings(ctx context.Context, ids []SongID) (map[SongID]Vector, error)

	// SongDetails returns display metadata for ids.
	SongDetails(ctx context.Context, ids []SongID) ([]SongMetadata, error)
}

// SocialGraph supplies liked songs and friendships.
type SocialGraph interface {
	// LikedSongs returns the songs a user has liked.
	LikedSongs(ctx context.Context, user UserID) ([]SongID, error)

	// Friends returns the user's friends.
	Friends(ctx context.Context, user UserID) ([]UserID, error)

	// AddLikedSong records a like. Repeating it is a no-op.
	AddLikedSong(ctx context.Context, user UserID, song SongID, at time.Time) error
}

// FeedbackStore persists explicit feedback, last write wins.
type FeedbackStore interface {
	// Feedback returns the most recent judgment per song for a user.
	Feedback(ctx context.Context, user UserID) (FeedbackMap, error)

	// PutFeedback inserts or replaces the record for (user, song).
	PutFeedback(ctx context.Context, fb Feedback) error
}

// RecommendationLog records surfaced recommendations for attribution.
type RecommendationLog interface {
	// ReplaceRecommendations swaps the user's current records. The delete
	// and the insert need not be atomic.
	ReplaceRecommendations(ctx context.Context, user UserID, records []RecommendationRecord) error

	// Recommendation looks up a record by id.
	Recommendation(ctx context.Context, id string) (RecommendationRecord, error)
}

// ClusterCache stores cluster analyses per user. Freshness is decided by
// the engine at read time.
type ClusterCache interface {
	LoadClusters(ctx context.Context, user UserID) (ClusterCacheEntry, bool, error)
	SaveClusters(ctx context.Context, entry ClusterCacheEntry) error
}

// Components wires the engine to its collaborators. Log, Cache and
// Reranker are optional.
type Components struct {
	Features  FeatureStore
	Social    SocialGraph
	Feedback  FeedbackStore
	Log       RecommendationLog
	Cache     ClusterCache
	Retriever Retriever
	Reranker  Reranker
}
