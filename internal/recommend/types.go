// Tunegraph - Social and Content Song Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegraph

package recommend

import (
	"context"
	"time"
)

// SongID identifies a song in the catalog.
type SongID string

// UserID identifies a listener.
type UserID string

// Source labels attached to recommendations.
const (
	// SourceFriends marks songs surfaced by the collaborative (friends) stage.
	SourceFriends = "friends"
	// SourceSimilarMusic marks songs surfaced by the content (cluster) stage.
	SourceSimilarMusic = "similar_music"
)

// ScalarFieldCount is the number of scalar descriptors stored at the tail
// of every feature vector.
const ScalarFieldCount = 11

// ScalarFeatures holds the scalar descriptors of a song in their raw units.
// Tempo is in BPM and Loudness in dB (typically -60..0); the remaining
// continuous fields are already in [0,1].
type ScalarFeatures struct {
	Tempo            float64 `json:"tempo"`
	Acousticness     float64 `json:"acousticness"`
	Danceability     float64 `json:"danceability"`
	Energy           float64 `json:"energy"`
	Loudness         float64 `json:"loudness"`
	Liveness         float64 `json:"liveness"`
	Valence          float64 `json:"valence"`
	Speechiness      float64 `json:"speechiness"`
	Instrumentalness float64 `json:"instrumentalness"`
	Mode             int     `json:"mode"`
	Key              int     `json:"key"`
}

// ScalarsFromVector reads the scalar tail of a feature vector.
// Mode and key are rounded to the nearest integer so that centroids
// (which hold averaged values) can be compared with songs.
func ScalarsFromVector(v Vector) (ScalarFeatures, bool) {
	if len(v) < ScalarFieldCount {
		return ScalarFeatures{}, false
	}
	t := v[len(v)-ScalarFieldCount:]
	return ScalarFeatures{
		Tempo:            t[0],
		Acousticness:     t[1],
		Danceability:     t[2],
		Energy:           t[3],
		Loudness:         t[4],
		Liveness:         t[5],
		Valence:          t[6],
		Speechiness:      t[7],
		Instrumentalness: t[8],
		Mode:             roundInt(t[9]),
		Key:              roundInt(t[10]),
	}, true
}

// AppendScalars returns descriptors followed by the scalar tail, the layout
// the feature store uses for feature vectors.
func AppendScalars(descriptors []float64, s ScalarFeatures) Vector {
	v := make(Vector, 0, len(descriptors)+ScalarFieldCount)
	v = append(v, descriptors...)
	return append(v,
		s.Tempo, s.Acousticness, s.Danceability, s.Energy, s.Loudness,
		s.Liveness, s.Valence, s.Speechiness, s.Instrumentalness,
		float64(s.Mode), float64(s.Key))
}

// SongMetadata is the display metadata of a catalog song.
type SongMetadata struct {
	ID         SongID   `json:"id"`
	Title      string   `json:"title"`
	Artists    []string `json:"artists"`
	Album      string   `json:"album,omitempty"`
	Popularity int      `json:"popularity"`
	Genres     []string `json:"genres,omitempty"`
}

// Song is a catalog song as seen by the recommendation pipeline.
type Song struct {
	ID       SongID
	Features Vector
	// Lyrics is nil when the song has no lyrics embedding.
	Lyrics Vector
}

// FeedbackMap holds the most recent explicit judgment per song.
type FeedbackMap map[SongID]bool

// Counts returns the number of positive and negative judgments.
func (m FeedbackMap) Counts() (positive, negative int) {
	for _, liked := range m {
		if liked {
			positive++
		} else {
			negative++
		}
	}
	return positive, negative
}

// Feedback is an explicit like/dislike signal. At most one logical record
// exists per (user, song).
type Feedback struct {
	UserID    UserID    `json:"user_id"`
	SongID    SongID    `json:"song_id"`
	Liked     bool      `json:"liked"`
	Source    string    `json:"source,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RecommendationRecord is logged whenever a recommendation is surfaced so
// later feedback can be attributed to the stage that produced it.
type RecommendationRecord struct {
	ID        string    `json:"id"`
	UserID    UserID    `json:"user_id"`
	SongID    SongID    `json:"song_id"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

// ScoredSong is a song with a similarity or relevance score in [0,1].
type ScoredSong struct {
	ID    SongID  `json:"id"`
	Score float64 `json:"score"`
}

// ScoreBreakdown shows the contribution of each stage to a final score.
type ScoreBreakdown struct {
	Collaborative float64 `json:"collaborative"`
	Content       float64 `json:"content"`
}

// Recommendation is one entry of the final ranked list.
type Recommendation struct {
	SongID           SongID         `json:"song_id"`
	Score            float64        `json:"score"`
	Sources          []string       `json:"sources"`
	Breakdown        ScoreBreakdown `json:"breakdown"`
	RecommendationID string         `json:"recommendation_id,omitempty"`
	Details          *SongMetadata  `json:"details,omitempty"`
}

// Response contains the ranked recommendations for a user.
type Response struct {
	UserID   UserID           `json:"user_id"`
	Items    []Recommendation `json:"items"`
	Metadata ResponseMetadata `json:"metadata"`
}

// ResponseMetadata describes how a response was produced.
type ResponseMetadata struct {
	RequestID     string                  `json:"request_id"`
	GeneratedAt   time.Time               `json:"generated_at"`
	LatencyMS     int64                   `json:"latency_ms"`
	Signals       map[string]SignalStatus `json:"signals"`
	Centroids     int                     `json:"centroids"`
	RetrievalPath string                  `json:"retrieval_path,omitempty"`
	Quarantined   int                     `json:"quarantined"`

	CollaborativeCandidates int `json:"collaborative_candidates"`
	ContentCandidates       int `json:"content_candidates"`
}

// ClusterAnalytics is the explanatory view of a user's taste clusters.
type ClusterAnalytics struct {
	UserID      UserID             `json:"user_id"`
	NumClusters int                `json:"num_clusters"`
	Clusters    []ClusterSummary   `json:"clusters"`
	Diagnostics ClusterDiagnostics `json:"diagnostics"`
	ComputedAt  time.Time          `json:"computed_at"`
	CacheHit    bool               `json:"cache_hit"`
}

// ClusterSummary describes one taste cluster.
type ClusterSummary struct {
	Index        int              `json:"index"`
	Size         int              `json:"size"`
	Genres       map[string]int   `json:"genres"`
	AudioProfile *ScalarProfile   `json:"audio_profile,omitempty"`
	Points       []ProjectedPoint `json:"points"`
}

// ProjectedPoint is a liked song placed in the 2-D visualization plane.
type ProjectedPoint struct {
	SongID SongID  `json:"song_id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// ClusterDiagnostics exposes the k-means model selection details.
type ClusterDiagnostics struct {
	ChosenK        int       `json:"chosen_k"`
	MaxK           int       `json:"max_k"`
	Distortions    []float64 `json:"distortions"`
	Inertia        float64   `json:"inertia"`
	Iterations     int       `json:"iterations"`
	Dispersion     float64   `json:"dispersion"`
	Merged         int       `json:"merged"`
	Fallback       bool      `json:"fallback"`
	FallbackReason string    `json:"fallback_reason,omitempty"`
	Projection     string    `json:"projection"`
	Points         int       `json:"points"`
	Quarantined    int       `json:"quarantined"`
}

// ClusterCacheEntry is a stored cluster analysis with the time it was computed.
type ClusterCacheEntry struct {
	UserID     UserID           `json:"user_id"`
	Analytics  ClusterAnalytics `json:"analytics"`
	ComputedAt time.Time        `json:"computed_at"`
}

// RetrievalRequest asks a Retriever to rank a candidate pool against
// each interest centroid.
type RetrievalRequest struct {
	Centroids []Vector
	// Pool holds the non-excluded songs with conforming feature vectors.
	Pool     []Song
	Profile  TasteProfile
	Feedback FeedbackMap
	Limit    int
}

// RetrievalResult holds one ranked list per centroid, in centroid order.
type RetrievalResult struct {
	Lists [][]ScoredSong
	// Paths records which path ("index" or "scan") served each centroid.
	Paths []string
}

// Retriever ranks catalog songs against interest centroids.
type Retriever interface {
	// Retrieve uses the neighbor index and falls back to Scan per centroid.
	Retrieve(ctx context.Context, req RetrievalRequest) (RetrievalResult, error)

	// Scan ranks every pool song with the weighted manual scan.
	Scan(ctx context.Context, req RetrievalRequest) (RetrievalResult, error)
}

// RerankRequest is the input of a diversity reranker.
type RerankRequest struct {
	Candidates []ScoredSong
	Vectors    map[SongID]Vector
	Feedback   FeedbackMap
	TopN       int
}

// Reranker reorders a candidate list for diversity.
type Reranker interface {
	// Name returns the reranker identifier.
	Name() string

	// Rerank selects up to TopN candidates.
	Rerank(ctx context.Context, req RerankRequest) []ScoredSong
}
