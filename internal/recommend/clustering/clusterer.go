// Tunegraph - Social and Content Song Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegraph

package clustering

import (
	"context"
	"math"
	"math/rand"
	"sort"
)

const defaultSeed = 42

// Fallback reasons reported in Diagnostics.
const (
	ReasonNoPoints      = "no_points"
	ReasonTooFewPoints  = "too_few_points"
	ReasonDegenerate    = "degenerate_input"
	ReasonAllDiscarded  = "all_clusters_discarded"
	ReasonFitFailed     = "fit_failed"
	ReasonSingleCluster = "single_cluster"
)

// Diagnostics describes how a Result was produced.
type Diagnostics struct {
	// ChosenK is the k used for the final fit, before pruning.
	ChosenK int
	// MaxK is the largest k considered.
	MaxK int
	// Distortions[i] is the distortion of the best fit with k = i+1.
	Distortions []float64
	Inertia     float64
	Iterations  int
	// Dispersion is the mean per-dimension dispersion in [0,1).
	Dispersion float64
	Discarded  int
	Merged     int

	Fallback       bool
	FallbackReason string
}

// Result holds the surviving centroids. Labels maps each input point to
// an index in Centroids, or -1 when its cluster was discarded as noise.
type Result struct {
	Centroids   [][]float64
	Labels      []int
	Sizes       []int
	Diagnostics Diagnostics
}

// Clusterer fits interest centroids under a Policy. It is stateless and
// safe for concurrent use.
type Clusterer struct {
	policy Policy
}

// New creates a Clusterer for the given policy.
//
//nolint:gocritic // hugeParam: policy copied on purpose
func New(policy Policy) *Clusterer {
	return &Clusterer{policy: policy}
}

// Policy returns the clusterer's policy.
func (c *Clusterer) Policy() Policy {
	return c.policy
}

// Fit decomposes points into interest centroids. It never fails: numerical
// problems, cancellation and degenerate input yield the single mean.
func (c *Clusterer) Fit(ctx context.Context, points [][]float64) Result {
	p := c.policy
	n := len(points)

	if n == 0 {
		return Result{Diagnostics: Diagnostics{Fallback: true, FallbackReason: ReasonNoPoints}}
	}
	if !wellFormed(points) {
		return meanResult(sanitize(points), n, ReasonDegenerate)
	}
	if n < 3 {
		return meanResult(points, n, ReasonTooFewPoints)
	}

	seed := p.Seed
	if seed == 0 {
		seed = defaultSeed
	}
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // deterministic clustering, not security

	diag := Diagnostics{MaxK: p.MaxClusters}
	if p.VarianceAdaptive {
		diag.MaxK, diag.Dispersion = adaptiveMaxK(points, p)
	} else {
		diag.Dispersion = dispersion(points)
	}

	var (
		fitted model
		err    error
	)

	if n >= p.ElbowMinPoints {
		kmax := minInt(diag.MaxK, n/2)
		if kmax < 1 {
			kmax = 1
		}
		models := make([]model, 0, kmax)
		for k := 1; k <= kmax; k++ {
			m, fitErr := fitKMeans(ctx, points, k, p.MaxIterations, p.Restarts, rng)
			if fitErr != nil {
				return meanResult(points, n, ReasonFitFailed)
			}
			models = append(models, m)
			diag.Distortions = append(diag.Distortions, distortion(points, m.centroids))
		}
		diag.ChosenK = clampInt(elbowK(diag.Distortions, p.ElbowThreshold), 1, p.MaxClusters)
		if diag.ChosenK > len(models) {
			diag.ChosenK = len(models)
		}
		fitted = models[diag.ChosenK-1]
	} else {
		diag.ChosenK = clampInt(p.DefaultK, 1, n/3)
		diag.ChosenK = clampInt(diag.ChosenK, 1, diag.MaxK)
		fitted, err = fitKMeans(ctx, points, diag.ChosenK, p.MaxIterations, p.Restarts, rng)
		if err != nil {
			return meanResult(points, n, ReasonFitFailed)
		}
		diag.Distortions = []float64{distortion(points, fitted.centroids)}
	}

	diag.Inertia = fitted.inertia
	diag.Iterations = fitted.iterations

	minSize := p.minPopulation(n)
	var res Result
	if p.MergeSmallClusters {
		res = mergeSmall(points, fitted, minSize)
		diag.Merged = len(fitted.centroids) - len(res.Centroids)
	} else {
		res = discardSmall(fitted, minSize)
		diag.Discarded = len(fitted.centroids) - len(res.Centroids)
		if len(res.Centroids) == 0 {
			out := meanResult(points, n, ReasonAllDiscarded)
			out.Diagnostics.ChosenK = diag.ChosenK
			out.Diagnostics.MaxK = diag.MaxK
			out.Diagnostics.Distortions = diag.Distortions
			out.Diagnostics.Discarded = diag.Discarded
			return out
		}
	}

	for _, centroid := range res.Centroids {
		if !finite(centroid) {
			return meanResult(points, n, ReasonFitFailed)
		}
	}

	res.Diagnostics = diag
	return res
}

// elbowK picks the smallest k whose improvement to k+1, normalized by the
// improvement from 1 to 2 clusters, is below threshold.
func elbowK(distortions []float64, threshold float64) int {
	if len(distortions) < 2 {
		return 1
	}
	first := distortions[0] - distortions[1]
	if first <= 1e-12 {
		return 1
	}
	for k := 1; k < len(distortions); k++ {
		delta := distortions[k-1] - distortions[k]
		if delta/first < threshold {
			return k
		}
	}
	return len(distortions)
}

// adaptiveMaxK bounds k by dataset size and dispersion: tightly packed
// tastes permit two clusters, widely spread ones up to MaxClusters.
//
//nolint:gocritic // hugeParam: policy copied on purpose
func adaptiveMaxK(points [][]float64, p Policy) (int, float64) {
	disp := dispersion(points)
	byDispersion := 2 + int(math.Round(disp*float64(p.MaxClusters-2)))
	bySize := len(points) / p.MinClusterSize
	k := minInt(minInt(byDispersion, bySize), p.MaxClusters)
	if k < 1 {
		k = 1
	}
	return k, disp
}

// dispersion averages std/(|mean|+std) over dimensions, a scale-free
// measure in [0,1).
func dispersion(points [][]float64) float64 {
	mean := Mean(points)
	if len(mean) == 0 {
		return 0
	}
	var total float64
	for d := range mean {
		var variance float64
		for _, p := range points {
			diff := p[d] - mean[d]
			variance += diff * diff
		}
		std := math.Sqrt(variance / float64(len(points)))
		if denom := math.Abs(mean[d]) + std; denom > 0 {
			total += std / denom
		}
	}
	return total / float64(len(mean))
}

// discardSmall drops clusters below minSize and relabels the survivors.
func discardSmall(m model, minSize int) Result {
	sizes := clusterSizes(m.labels, len(m.centroids))
	remap := make([]int, len(m.centroids))
	res := Result{}
	for c, size := range sizes {
		if size < minSize {
			remap[c] = -1
			continue
		}
		remap[c] = len(res.Centroids)
		res.Centroids = append(res.Centroids, m.centroids[c])
		res.Sizes = append(res.Sizes, size)
	}
	res.Labels = make([]int, len(m.labels))
	for i, l := range m.labels {
		res.Labels[i] = remap[l]
	}
	return res
}

// mergeSmall repeatedly folds the smallest undersized cluster into the
// cluster with the nearest centroid until every cluster reaches minSize or
// one cluster remains.
func mergeSmall(points [][]float64, m model, minSize int) Result {
	centroids := make([][]float64, len(m.centroids))
	for i, c := range m.centroids {
		centroids[i] = clone(c)
	}
	labels := append([]int(nil), m.labels...)

	for len(centroids) > 1 {
		sizes := clusterSizes(labels, len(centroids))
		smallest := -1
		for c, size := range sizes {
			if size < minSize && (smallest < 0 || size < sizes[smallest]) {
				smallest = c
			}
		}
		if smallest < 0 {
			break
		}

		target, targetDist := -1, math.Inf(1)
		for c := range centroids {
			if c == smallest {
				continue
			}
			if d := squaredDistance(centroids[smallest], centroids[c]); d < targetDist {
				target, targetDist = c, d
			}
		}

		members := make([][]float64, 0, sizes[smallest]+sizes[target])
		for i, l := range labels {
			if l == smallest {
				labels[i] = target
			}
			if labels[i] == target {
				members = append(members, points[i])
			}
		}
		if len(members) > 0 {
			centroids[target] = Mean(members)
		}

		centroids = append(centroids[:smallest], centroids[smallest+1:]...)
		for i, l := range labels {
			if l > smallest {
				labels[i] = l - 1
			}
		}
	}

	return Result{
		Centroids: centroids,
		Labels:    labels,
		Sizes:     clusterSizes(labels, len(centroids)),
	}
}

func clusterSizes(labels []int, k int) []int {
	sizes := make([]int, k)
	for _, l := range labels {
		if l >= 0 {
			sizes[l]++
		}
	}
	return sizes
}

func meanResult(points [][]float64, n int, reason string) Result {
	res := Result{
		Labels: make([]int, n),
		Diagnostics: Diagnostics{
			ChosenK:        1,
			MaxK:           1,
			Fallback:       true,
			FallbackReason: reason,
		},
	}
	mean := Mean(points)
	if mean == nil || !finite(mean) {
		for i := range res.Labels {
			res.Labels[i] = -1
		}
		res.Diagnostics.ChosenK = 0
		return res
	}
	res.Centroids = [][]float64{mean}
	res.Sizes = []int{len(points)}
	if len(points) != n {
		// Some points were dropped by sanitize; they have no cluster.
		for i := range res.Labels {
			res.Labels[i] = -1
		}
	}
	return res
}

// wellFormed reports whether every point is finite and shares one length.
func wellFormed(points [][]float64) bool {
	dim := len(points[0])
	if dim == 0 {
		return false
	}
	for _, p := range points {
		if len(p) != dim || !finite(p) {
			return false
		}
	}
	return true
}

// sanitize keeps finite points of the most common length.
func sanitize(points [][]float64) [][]float64 {
	counts := make(map[int]int)
	for _, p := range points {
		if len(p) > 0 && finite(p) {
			counts[len(p)]++
		}
	}
	dims := make([]int, 0, len(counts))
	for d := range counts {
		dims = append(dims, d)
	}
	sort.Ints(dims)
	best, bestCount := 0, 0
	for _, d := range dims {
		if counts[d] > bestCount {
			best, bestCount = d, counts[d]
		}
	}

	out := make([][]float64, 0, bestCount)
	for _, p := range points {
		if len(p) == best && finite(p) {
			out = append(out, p)
		}
	}
	return out
}

func finite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

func clampInt(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
