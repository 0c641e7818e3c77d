// Tunegraph - Social and Content Song Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegraph

package recommend

import (
	"fmt"
	"time"

	"github.com/tomtom215/tunegraph/internal/recommend/clustering"
)

// Config contains all tunables of the recommendation pipeline. The engine
// copies it at construction time; later changes to the caller's value have
// no effect.
type Config struct {
	// Fusion weights the collaborative and content stages.
	Fusion FusionConfig `json:"fusion"`

	// Feedback contains the multipliers applied during fusion.
	Feedback FeedbackConfig `json:"feedback"`

	// Retrieval contains parameters for candidate retrieval.
	Retrieval RetrievalConfig `json:"retrieval"`

	// Diversity contains parameters for MMR reranking.
	Diversity DiversityConfig `json:"diversity"`

	// Clustering holds the fast and detailed clustering policies.
	Clustering ClusteringConfig `json:"clustering"`

	// Space declares the expected vector dimensions.
	Space VectorSpace `json:"space"`

	// Limits contains operational limits and timeouts.
	Limits LimitsConfig `json:"limits"`

	// Cache contains cluster analytics caching parameters.
	Cache CacheConfig `json:"cache"`
}

// FusionConfig weights each stage's contribution to the final score.
type FusionConfig struct {
	// CollaborativeWeight scales count/maxCount of friend likes.
	// Default: 0.7.
	CollaborativeWeight float64 `json:"collaborative_weight"`

	// ContentWeight scales the similarity of content candidates.
	// Default: 0.3.
	ContentWeight float64 `json:"content_weight"`
}

// FeedbackConfig contains the fusion-stage feedback multipliers.
type FeedbackConfig struct {
	// LikedMultiplier applies to songs the user liked before.
	// Default: 1.3.
	LikedMultiplier float64 `json:"liked_multiplier"`

	// DislikedMultiplier applies to songs the user disliked before.
	// Default: 0.3.
	DislikedMultiplier float64 `json:"disliked_multiplier"`
}

// RetrievalConfig contains parameters for candidate retrieval.
type RetrievalConfig struct {
	// LikedBoost is added to the similarity of previously liked songs.
	// Default: 0.2.
	LikedBoost float64 `json:"liked_boost"`

	// DislikedPenalty is subtracted from previously disliked songs.
	// Default: 0.3.
	DislikedPenalty float64 `json:"disliked_penalty"`

	// Scan weights when both lyrics sides are available.
	// Defaults: 0.5, 0.3, 0.2.
	VectorWeight  float64 `json:"vector_weight"`
	FeatureWeight float64 `json:"feature_weight"`
	LyricsWeight  float64 `json:"lyrics_weight"`

	// Scan weights without lyrics.
	// Defaults: 0.6, 0.4.
	VectorWeightNoLyrics  float64 `json:"vector_weight_no_lyrics"`
	FeatureWeightNoLyrics float64 `json:"feature_weight_no_lyrics"`

	// Features weights the scalar descriptors in the scan.
	Features FeatureWeights `json:"features"`

	// IndexM is the HNSW neighbor count per node.
	// Default: 16.
	IndexM int `json:"index_m"`

	// IndexEfSearch is the HNSW search beam width.
	// Default: 64.
	IndexEfSearch int `json:"index_ef_search"`
}

// DiversityConfig contains parameters for MMR reranking.
type DiversityConfig struct {
	// MMRLambda balances relevance vs. diversity.
	// 1.0 = pure relevance, 0.0 = pure diversity.
	// Default: 0.7.
	MMRLambda float64 `json:"mmr_lambda"`

	// LambdaFloor and NegativeShift apply when negative feedback dominates.
	// Defaults: 0.3, 0.2.
	LambdaFloor   float64 `json:"lambda_floor"`
	NegativeShift float64 `json:"negative_shift"`

	// LambdaCeiling and PositiveShift apply when positive feedback dominates.
	// Defaults: 0.9, 0.1.
	LambdaCeiling float64 `json:"lambda_ceiling"`
	PositiveShift float64 `json:"positive_shift"`

	// Feedback multipliers on candidate relevance.
	// Defaults: 1.2, 0.5.
	LikedMultiplier    float64 `json:"liked_multiplier"`
	DislikedMultiplier float64 `json:"disliked_multiplier"`

	// FriendDiversity enables the per-friend coverage pass over
	// collaborative candidates.
	// Default: true.
	FriendDiversity bool `json:"friend_diversity"`
}

// ClusteringConfig holds the two clustering presets.
type ClusteringConfig struct {
	Fast     clustering.Policy `json:"fast"`
	Detailed clustering.Policy `json:"detailed"`
}

// LimitsConfig contains operational limits.
type LimitsConfig struct {
	// DefaultLimit is used when a request does not specify a limit.
	// Default: 20.
	DefaultLimit int `json:"default_limit"`

	// MaxLimit is the maximum number of recommendations per request.
	// Default: 100.
	MaxLimit int `json:"max_limit"`

	// MaxCollaborativeCandidates bounds the friend candidate set.
	// Default: 500.
	MaxCollaborativeCandidates int `json:"max_collaborative_candidates"`

	// Workers is the size of the CPU worker pool.
	// Default: 4.
	Workers int `json:"workers"`

	// ClusteringTimeout bounds interest clustering.
	// Default: 5s.
	ClusteringTimeout time.Duration `json:"clustering_timeout"`

	// SearchTimeout bounds index construction and neighbor search.
	// Default: 5s.
	SearchTimeout time.Duration `json:"search_timeout"`

	// ProjectionTimeout bounds the 2-D projection of cluster analytics.
	// Default: 30s.
	ProjectionTimeout time.Duration `json:"projection_timeout"`
}

// CacheConfig contains cluster analytics caching parameters.
type CacheConfig struct {
	// TTL is how long a cached analysis stays fresh, checked on read.
	// Default: 24h.
	TTL time.Duration `json:"ttl"`
}

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() *Config {
	return &Config{
		Fusion: FusionConfig{
			CollaborativeWeight: 0.7,
			ContentWeight:       0.3,
		},
		Feedback: FeedbackConfig{
			LikedMultiplier:    1.3,
			DislikedMultiplier: 0.3,
		},
		Retrieval: RetrievalConfig{
			LikedBoost:            0.2,
			DislikedPenalty:       0.3,
			VectorWeight:          0.5,
			FeatureWeight:         0.3,
			LyricsWeight:          0.2,
			VectorWeightNoLyrics:  0.6,
			FeatureWeightNoLyrics: 0.4,
			Features:              DefaultFeatureWeights(),
			IndexM:                16,
			IndexEfSearch:         64,
		},
		Diversity: DiversityConfig{
			MMRLambda:          0.7,
			LambdaFloor:        0.3,
			NegativeShift:      0.2,
			LambdaCeiling:      0.9,
			PositiveShift:      0.1,
			LikedMultiplier:    1.2,
			DislikedMultiplier: 0.5,
			FriendDiversity:    true,
		},
		Clustering: ClusteringConfig{
			Fast:     clustering.FastPolicy(),
			Detailed: clustering.DetailedPolicy(),
		},
		Limits: LimitsConfig{
			DefaultLimit:               20,
			MaxLimit:                   100,
			MaxCollaborativeCandidates: 500,
			Workers:                    4,
			ClusteringTimeout:          5 * time.Second,
			SearchTimeout:              5 * time.Second,
			ProjectionTimeout:          30 * time.Second,
		},
		Cache: CacheConfig{
			TTL: 24 * time.Hour,
		},
	}
}

// Validate checks the configuration for errors.
//
//nolint:gocyclo // validation needs to check many fields
func (c *Config) Validate() error {
	if c.Fusion.CollaborativeWeight < 0 || c.Fusion.ContentWeight < 0 {
		return fmt.Errorf("fusion weights must be non-negative, got %f/%f",
			c.Fusion.CollaborativeWeight, c.Fusion.ContentWeight)
	}
	if c.Feedback.LikedMultiplier < 0 || c.Feedback.DislikedMultiplier < 0 {
		return fmt.Errorf("feedback multipliers must be non-negative, got %f/%f",
			c.Feedback.LikedMultiplier, c.Feedback.DislikedMultiplier)
	}
	if c.Retrieval.LikedBoost < 0 || c.Retrieval.DislikedPenalty < 0 {
		return fmt.Errorf("retrieval feedback adjustments must be non-negative, got %f/%f",
			c.Retrieval.LikedBoost, c.Retrieval.DislikedPenalty)
	}
	if c.Retrieval.IndexM < 2 {
		return fmt.Errorf("retrieval.index_m must be at least 2, got %d", c.Retrieval.IndexM)
	}
	if c.Retrieval.IndexEfSearch < 1 {
		return fmt.Errorf("retrieval.index_ef_search must be positive, got %d", c.Retrieval.IndexEfSearch)
	}
	if err := c.validateDiversity(); err != nil {
		return err
	}
	if err := c.Clustering.Fast.Validate(); err != nil {
		return fmt.Errorf("clustering.fast: %w", err)
	}
	if err := c.Clustering.Detailed.Validate(); err != nil {
		return fmt.Errorf("clustering.detailed: %w", err)
	}
	if err := c.Space.Validate(); err != nil {
		return fmt.Errorf("space: %w", err)
	}
	if c.Limits.DefaultLimit < 1 {
		return fmt.Errorf("limits.default_limit must be positive, got %d", c.Limits.DefaultLimit)
	}
	if c.Limits.MaxLimit < c.Limits.DefaultLimit {
		return fmt.Errorf("limits.max_limit (%d) must be >= default_limit (%d)", c.Limits.MaxLimit, c.Limits.DefaultLimit)
	}
	if c.Limits.MaxCollaborativeCandidates < 1 {
		return fmt.Errorf("limits.max_collaborative_candidates must be positive, got %d", c.Limits.MaxCollaborativeCandidates)
	}
	if c.Limits.Workers < 1 {
		return fmt.Errorf("limits.workers must be positive, got %d", c.Limits.Workers)
	}
	if c.Limits.ClusteringTimeout <= 0 || c.Limits.SearchTimeout <= 0 || c.Limits.ProjectionTimeout <= 0 {
		return fmt.Errorf("limits timeouts must be positive")
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive, got %v", c.Cache.TTL)
	}
	return nil
}

func (c *Config) validateDiversity() error {
	d := c.Diversity
	if d.MMRLambda < 0 || d.MMRLambda > 1 {
		return fmt.Errorf("diversity.mmr_lambda must be in [0, 1], got %f", d.MMRLambda)
	}
	if d.LambdaFloor < 0 || d.LambdaCeiling > 1 || d.LambdaFloor > d.LambdaCeiling {
		return fmt.Errorf("diversity lambda bounds must satisfy 0 <= floor <= ceiling <= 1, got %f/%f",
			d.LambdaFloor, d.LambdaCeiling)
	}
	if d.NegativeShift < 0 || d.PositiveShift < 0 {
		return fmt.Errorf("diversity lambda shifts must be non-negative, got %f/%f", d.NegativeShift, d.PositiveShift)
	}
	if d.LikedMultiplier < 0 || d.DislikedMultiplier < 0 {
		return fmt.Errorf("diversity feedback multipliers must be non-negative, got %f/%f",
			d.LikedMultiplier, d.DislikedMultiplier)
	}
	return nil
}
