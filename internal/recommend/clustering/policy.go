// Tunegraph - Social and Content Song Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegraph

package clustering

import "fmt"

// Policy parameterizes model-order selection and post-processing.
// FastPolicy and DetailedPolicy are the two presets in use; both run the
// same k-means core.
type Policy struct {
	// Name labels the policy in logs and metrics.
	Name string `json:"name"`

	// MaxClusters is the hard upper bound on k.
	MaxClusters int `json:"max_clusters"`

	// MinClusterSize is the smallest population a cluster may keep.
	MinClusterSize int `json:"min_cluster_size"`

	// MinClusterFraction raises the population floor to a share of n.
	MinClusterFraction float64 `json:"min_cluster_fraction"`

	// VarianceAdaptive derives the candidate k range from dataset size
	// (n / MinClusterSize) and per-dimension dispersion.
	VarianceAdaptive bool `json:"variance_adaptive"`

	// MergeSmallClusters merges undersized clusters into their nearest
	// neighbor instead of discarding them.
	MergeSmallClusters bool `json:"merge_small_clusters"`

	// DefaultK is used for datasets too small for the elbow search.
	DefaultK int `json:"default_k"`

	// ElbowThreshold is the normalized improvement below which adding a
	// cluster is considered not worth it.
	ElbowThreshold float64 `json:"elbow_threshold"`

	// ElbowMinPoints is the dataset size from which the elbow search runs.
	ElbowMinPoints int `json:"elbow_min_points"`

	// MaxIterations bounds Lloyd iterations per fit.
	MaxIterations int `json:"max_iterations"`

	// Restarts is the number of k-means++ initializations per k.
	Restarts int `json:"restarts"`

	// Seed makes fits deterministic. Zero selects a fixed default.
	Seed int64 `json:"seed"`
}

// FastPolicy is used when generating recommendations: at most five
// interests, noise clusters discarded.
func FastPolicy() Policy {
	return Policy{
		Name:               "fast",
		MaxClusters:        5,
		MinClusterSize:     2,
		MinClusterFraction: 0.10,
		DefaultK:           3,
		ElbowThreshold:     0.5,
		ElbowMinPoints:     10,
		MaxIterations:      100,
		Restarts:           3,
	}
}

// DetailedPolicy is used for cluster analytics: the k range follows size
// and dispersion, and small clusters are merged rather than dropped.
func DetailedPolicy() Policy {
	return Policy{
		Name:               "detailed",
		MaxClusters:        8,
		MinClusterSize:     15,
		VarianceAdaptive:   true,
		MergeSmallClusters: true,
		DefaultK:           3,
		ElbowThreshold:     0.5,
		ElbowMinPoints:     10,
		MaxIterations:      300,
		Restarts:           5,
	}
}

// Validate checks the policy values.
//
//nolint:gocritic // hugeParam: value receiver keeps policies immutable
func (p Policy) Validate() error {
	if p.MaxClusters < 1 {
		return fmt.Errorf("max_clusters must be at least 1, got %d", p.MaxClusters)
	}
	if p.MinClusterSize < 1 {
		return fmt.Errorf("min_cluster_size must be at least 1, got %d", p.MinClusterSize)
	}
	if p.MinClusterFraction < 0 || p.MinClusterFraction >= 1 {
		return fmt.Errorf("min_cluster_fraction must be in [0, 1), got %f", p.MinClusterFraction)
	}
	if p.DefaultK < 1 {
		return fmt.Errorf("default_k must be at least 1, got %d", p.DefaultK)
	}
	if p.ElbowThreshold <= 0 || p.ElbowThreshold >= 1 {
		return fmt.Errorf("elbow_threshold must be in (0, 1), got %f", p.ElbowThreshold)
	}
	if p.ElbowMinPoints < 3 {
		return fmt.Errorf("elbow_min_points must be at least 3, got %d", p.ElbowMinPoints)
	}
	if p.MaxIterations < 1 {
		return fmt.Errorf("max_iterations must be at least 1, got %d", p.MaxIterations)
	}
	if p.Restarts < 1 {
		return fmt.Errorf("restarts must be at least 1, got %d", p.Restarts)
	}
	return nil
}

// minPopulation is the smallest cluster size kept for n points.
//
//nolint:gocritic // hugeParam: value receiver keeps policies immutable
func (p Policy) minPopulation(n int) int {
	floor := int(p.MinClusterFraction * float64(n))
	if floor > p.MinClusterSize {
		return floor
	}
	return p.MinClusterSize
}
