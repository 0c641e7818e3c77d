// Tunegraph - Social and Content Song Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegraph

// Package projection maps high-dimensional feature vectors onto a plane
// for cluster visualization.
//
// Two methods are available:
//   - PCA: the two leading principal components (gonum stat.PC)
//   - t-SNE: t-distributed stochastic neighbor embedding (go-tsne)
//
// Project2D picks t-SNE for three or more points and PCA otherwise.
package projection

import (
	"context"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Method names reported alongside projections.
const (
	MethodPCA  = "pca"
	MethodTSNE = "tsne"
)

// Point is a 2-D coordinate.
type Point struct {
	X, Y float64
}

// Project2D projects points onto two dimensions. It returns the method
// used. t-SNE honors ctx; on cancellation the PCA layout is returned with
// the context error.
func Project2D(ctx context.Context, points [][]float64) ([]Point, string, error) {
	if len(points) < 3 {
		return PCA(points), MethodPCA, nil
	}
	out, err := TSNE(ctx, points, DefaultTSNEOptions(len(points)))
	if err != nil {
		return PCA(points), MethodPCA, err
	}
	return out, MethodTSNE, nil
}

// relativeVariance is the share of the leading variance below which a
// component is treated as noise and projected to zero.
const relativeVariance = 1e-12

// PCA projects points onto their two leading principal components.
// A single point maps to the origin, as does any set with no variance.
func PCA(points [][]float64) []Point {
	n := len(points)
	out := make([]Point, n)
	if n < 2 || len(points[0]) == 0 {
		return out
	}

	data := toDense(points)
	var pc stat.PC
	if !pc.PrincipalComponents(data, nil) {
		return out
	}
	vars := pc.VarsTo(nil)
	if len(vars) == 0 || vars[0] <= 0 {
		return out
	}
	var vecs mat.Dense
	pc.VectorsTo(&vecs)

	_, dims := data.Dims()
	mean := make([]float64, dims)
	for d := range mean {
		mean[d] = stat.Mean(mat.Col(nil, d, data), nil)
	}

	_, k := vecs.Dims()
	for axis := 0; axis < 2 && axis < k; axis++ {
		if vars[axis] < relativeVariance*vars[0] {
			continue
		}
		component := mat.Col(nil, axis, &vecs)
		for i, row := range points {
			var v float64
			for d := range component {
				v += (row[d] - mean[d]) * component[d]
			}
			if axis == 0 {
				out[i].X = v
			} else {
				out[i].Y = v
			}
		}
	}
	orient(out)
	return out
}

func toDense(points [][]float64) *mat.Dense {
	dims := len(points[0])
	data := make([]float64, 0, len(points)*dims)
	for _, p := range points {
		data = append(data, p...)
	}
	return mat.NewDense(len(points), dims, data)
}

// orient flips each axis so the coordinate with the largest magnitude is
// positive, making layouts reproducible.
func orient(points []Point) {
	var maxX, maxY float64
	for _, p := range points {
		if math.Abs(p.X) > math.Abs(maxX) {
			maxX = p.X
		}
		if math.Abs(p.Y) > math.Abs(maxY) {
			maxY = p.Y
		}
	}
	for i := range points {
		if maxX < 0 {
			points[i].X = -points[i].X
		}
		if maxY < 0 {
			points[i].Y = -points[i].Y
		}
	}
}
