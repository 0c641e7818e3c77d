// Tunegraph - Social and Content Song Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegraph

package clustering

import (
	"context"
	"errors"
	"math"
	"math/rand"
)

var errNonFinite = errors.New("non-finite value in k-means model")

// model is one fitted k-means solution.
type model struct {
	centroids  [][]float64
	labels     []int
	inertia    float64
	iterations int
}

// fitKMeans runs k-means++ seeded Lloyd iterations, keeping the restart
// with the lowest inertia.
func fitKMeans(ctx context.Context, points [][]float64, k, maxIter, restarts int, rng *rand.Rand) (model, error) {
	if k > len(points) {
		k = len(points)
	}

	best := model{inertia: math.Inf(1)}
	for r := 0; r < restarts; r++ {
		m, err := lloyd(ctx, points, seedCentroids(points, k, rng), maxIter)
		if err != nil {
			return model{}, err
		}
		if m.inertia < best.inertia {
			best = m
		}
	}

	if math.IsInf(best.inertia, 0) || math.IsNaN(best.inertia) {
		return model{}, errNonFinite
	}
	return best, nil
}

// seedCentroids picks k initial centroids with the k-means++ rule.
func seedCentroids(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, clone(points[rng.Intn(len(points))]))

	dist := make([]float64, len(points))
	for len(centroids) < k {
		var total float64
		for i, p := range points {
			dist[i] = math.Inf(1)
			for _, c := range centroids {
				if d := squaredDistance(p, c); d < dist[i] {
					dist[i] = d
				}
			}
			total += dist[i]
		}

		// All points coincide with a centroid already.
		if total == 0 {
			centroids = append(centroids, clone(points[rng.Intn(len(points))]))
			continue
		}

		target := rng.Float64() * total
		chosen := len(points) - 1
		for i, d := range dist {
			target -= d
			if target <= 0 {
				chosen = i
				break
			}
		}
		centroids = append(centroids, clone(points[chosen]))
	}
	return centroids
}

func lloyd(ctx context.Context, points [][]float64, centroids [][]float64, maxIter int) (model, error) {
	labels := make([]int, len(points))
	for i := range labels {
		labels[i] = -1
	}

	iter := 0
	for ; iter < maxIter; iter++ {
		if err := ctx.Err(); err != nil {
			return model{}, err
		}

		changed := false
		for i, p := range points {
			if l := nearest(p, centroids); l != labels[i] {
				labels[i] = l
				changed = true
			}
		}
		if !changed {
			break
		}
		updateCentroids(points, labels, centroids)
	}

	var inertia float64
	for i, p := range points {
		inertia += squaredDistance(p, centroids[labels[i]])
	}

	return model{centroids: centroids, labels: labels, inertia: inertia, iterations: iter}, nil
}

// updateCentroids recomputes each centroid as the mean of its members.
// Empty clusters keep their previous centroid.
func updateCentroids(points [][]float64, labels []int, centroids [][]float64) {
	dim := len(points[0])
	sums := make([][]float64, len(centroids))
	counts := make([]int, len(centroids))
	for c := range sums {
		sums[c] = make([]float64, dim)
	}

	for i, p := range points {
		l := labels[i]
		counts[l]++
		for d, x := range p {
			sums[l][d] += x
		}
	}

	for c := range centroids {
		if counts[c] == 0 {
			continue
		}
		for d := range sums[c] {
			centroids[c][d] = sums[c][d] / float64(counts[c])
		}
	}
}

// nearest returns the index of the closest centroid, the lowest on ties.
func nearest(p []float64, centroids [][]float64) int {
	best, bestDist := 0, math.Inf(1)
	for c, centroid := range centroids {
		if d := squaredDistance(p, centroid); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// distortion is the mean Euclidean distance to the nearest centroid.
func distortion(points [][]float64, centroids [][]float64) float64 {
	if len(points) == 0 {
		return 0
	}
	var sum float64
	for _, p := range points {
		sum += math.Sqrt(squaredDistance(p, centroids[nearest(p, centroids)]))
	}
	return sum / float64(len(points))
}

func squaredDistance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// Mean returns the element-wise mean of points, nil for no points.
func Mean(points [][]float64) []float64 {
	if len(points) == 0 {
		return nil
	}
	mean := make([]float64, len(points[0]))
	for _, p := range points {
		for i := range mean {
			mean[i] += p[i]
		}
	}
	for i := range mean {
		mean[i] /= float64(len(points))
	}
	return mean
}

func clone(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
