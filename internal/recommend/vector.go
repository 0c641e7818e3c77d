// Tunegraph - Social and Content Song Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegraph

package recommend

import (
	"fmt"
	"math"
	"sort"
)

// Vector is a dense numeric vector (feature vector or lyrics embedding).
type Vector []float64

// Finite reports whether the vector is non-empty and holds no NaN or Inf.
func (v Vector) Finite() bool {
	if len(v) == 0 {
		return false
	}
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// Norm returns the Euclidean norm.
func (v Vector) Norm() float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// Clone returns a copy of v.
func (v Vector) Clone() Vector {
	if v == nil {
		return nil
	}
	out := make(Vector, len(v))
	copy(out, v)
	return out
}

// VectorSpace declares the dimensions every vector of a deployment must
// have. A zero dimension means "infer": the majority dimension of each
// ingested batch wins.
type VectorSpace struct {
	FeatureDim int `json:"feature_dim"`
	LyricsDim  int `json:"lyrics_dim"`
}

// Validate checks the declared dimensions.
func (s VectorSpace) Validate() error {
	if s.FeatureDim < 0 || (s.FeatureDim > 0 && s.FeatureDim < ScalarFieldCount) {
		return fmt.Errorf("feature_dim must be 0 or at least %d, got %d", ScalarFieldCount, s.FeatureDim)
	}
	if s.LyricsDim < 0 {
		return fmt.Errorf("lyrics_dim must be non-negative, got %d", s.LyricsDim)
	}
	return nil
}

// Conformed is the outcome of validating a batch of vectors.
type Conformed struct {
	Vectors map[SongID]Vector
	Dim     int
	// Quarantined lists ids whose vectors were rejected, sorted.
	Quarantined []SongID
}

// ConformFeatures validates feature vectors at ingestion.
func (s VectorSpace) ConformFeatures(in map[SongID]Vector) Conformed {
	return conform(in, s.FeatureDim)
}

// ConformLyrics validates lyrics embeddings at ingestion. Empty
// embeddings count as absent rather than quarantined.
func (s VectorSpace) ConformLyrics(in map[SongID]Vector) Conformed {
	present := make(map[SongID]Vector, len(in))
	for id, v := range in {
		if len(v) > 0 {
			present[id] = v
		}
	}
	return conform(present, s.LyricsDim)
}

func conform(in map[SongID]Vector, dim int) Conformed {
	if dim == 0 {
		dim = MajorityDimension(in)
	}
	out := Conformed{Vectors: make(map[SongID]Vector, len(in)), Dim: dim}
	for id, v := range in {
		if len(v) != dim || !v.Finite() {
			out.Quarantined = append(out.Quarantined, id)
			continue
		}
		out.Vectors[id] = v
	}
	sort.Slice(out.Quarantined, func(i, j int) bool { return out.Quarantined[i] < out.Quarantined[j] })
	return out
}

// MajorityDimension returns the most common non-zero length among the
// vectors. Ties go to the smaller dimension; 0 when there are no vectors.
func MajorityDimension(vectors map[SongID]Vector) int {
	counts := make(map[int]int)
	for _, v := range vectors {
		if len(v) > 0 {
			counts[len(v)]++
		}
	}
	best, bestCount := 0, 0
	for dim, n := range counts {
		if n > bestCount || (n == bestCount && dim < best) {
			best, bestCount = dim, n
		}
	}
	return best
}

// meanVector returns the element-wise mean of vectors sharing one length.
func meanVector(vectors []Vector) Vector {
	if len(vectors) == 0 {
		return nil
	}
	dim := len(vectors[0])
	mean := make(Vector, dim)
	for _, v := range vectors {
		for i := range mean {
			mean[i] += v[i]
		}
	}
	n := float64(len(vectors))
	for i := range mean {
		mean[i] /= n
	}
	return mean
}
