// Tunegraph - Social and Content Song Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegraph

package projection

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/danaugrs/go-tsne/tsne"
	"gonum.org/v1/gonum/mat"
)

// TSNEOptions controls the t-SNE optimization.
type TSNEOptions struct {
	Perplexity   float64
	Iterations   int
	LearningRate float64
}

// DefaultTSNEOptions returns options suited to n points: perplexity
// min(30, (n-1)/3), at least 1.
func DefaultTSNEOptions(n int) TSNEOptions {
	perplexity := math.Min(30, float64(n-1)/3)
	if perplexity < 1 {
		perplexity = 1
	}
	return TSNEOptions{
		Perplexity:   perplexity,
		Iterations:   300,
		LearningRate: 100,
	}
}

var (
	errTooFewPoints = errors.New("t-SNE needs at least 3 points")
	errDiverged     = errors.New("t-SNE diverged")
)

// TSNE embeds points in two dimensions. ctx is checked between gradient
// steps.
func TSNE(ctx context.Context, points [][]float64, opts TSNEOptions) (out []Point, err error) {
	if len(points) < 3 {
		return nil, errTooFewPoints
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("t-SNE: %v", r)
		}
	}()

	model := tsne.NewTSNE(2, opts.Perplexity, opts.LearningRate, opts.Iterations, false)
	embedding := model.EmbedData(toDense(points), func(int, float64, mat.Matrix) bool {
		return ctx.Err() != nil
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out = make([]Point, len(points))
	for i := range out {
		out[i] = Point{X: embedding.At(i, 0), Y: embedding.At(i, 1)}
		if !finite(out[i].X) || !finite(out[i].Y) {
			return nil, errDiverged
		}
	}
	return out, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
