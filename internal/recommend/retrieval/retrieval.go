// Tunegraph - Social and Content Song Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegraph

// Package retrieval ranks candidate songs against interest centroids.
//
// The primary path builds an HNSW neighbor index (cosine distance) over the
// candidate pool once per request and queries it with each centroid. A
// centroid whose query returns nothing, fails or panics is served by the
// weighted scan instead, which scores every pool song on full-vector
// cosine, scalar feature similarity and, when available, lyrics.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/coder/hnsw"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/tunegraph/internal/metrics"
	"github.com/tomtom215/tunegraph/internal/recommend"
)

// Paths reported per centroid.
const (
	PathIndex = "index"
	PathScan  = "scan"
)

var (
	errEmptyIndex   = errors.New("neighbor index is empty")
	errNoNeighbors  = errors.New("neighbor search returned nothing")
	errIndexPanic   = errors.New("neighbor index panicked")
	errZeroCentroid = errors.New("centroid has zero norm")
)

// Retriever implements recommend.Retriever.
type Retriever struct {
	cfg    recommend.RetrievalConfig
	logger zerolog.Logger
}

// New creates a retriever.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(cfg recommend.RetrievalConfig, logger zerolog.Logger) *Retriever {
	return &Retriever{
		cfg:    cfg,
		logger: logger.With().Str("component", "retrieval").Logger(),
	}
}

// Retrieve serves each centroid from the neighbor index, falling back to
// the weighted scan per centroid.
func (r *Retriever) Retrieve(ctx context.Context, req recommend.RetrievalRequest) (recommend.RetrievalResult, error) {
	result := recommend.RetrievalResult{
		Lists: make([][]recommend.ScoredSong, len(req.Centroids)),
		Paths: make([]string, len(req.Centroids)),
	}
	if len(req.Centroids) == 0 || req.Limit <= 0 {
		return result, nil
	}

	idx, buildErr := buildIndex(req.Pool, r.cfg)
	if buildErr != nil {
		r.logger.Debug().Err(buildErr).Int("pool", len(req.Pool)).Msg("neighbor index unavailable, scanning")
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, centroid := range req.Centroids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if idx != nil {
				list, err := idx.search(centroid, req.Limit, req.Feedback, r.cfg)
				if err == nil {
					result.Lists[i], result.Paths[i] = list, PathIndex
					metrics.RecordRetrievalPath(PathIndex)
					return nil
				}
				r.logger.Debug().Err(err).Int("centroid", i).Msg("neighbor search unusable, scanning")
			}
			result.Lists[i] = r.scan(centroid, req)
			result.Paths[i] = PathScan
			metrics.RecordRetrievalPath(PathScan)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return recommend.RetrievalResult{}, fmt.Errorf("retrieve: %w", err)
	}
	return result, nil
}

// Scan ranks the pool with the weighted scan for every centroid.
func (r *Retriever) Scan(ctx context.Context, req recommend.RetrievalRequest) (recommend.RetrievalResult, error) {
	result := recommend.RetrievalResult{
		Lists: make([][]recommend.ScoredSong, len(req.Centroids)),
		Paths: make([]string, len(req.Centroids)),
	}
	if req.Limit <= 0 {
		return result, nil
	}
	for i, centroid := range req.Centroids {
		if err := ctx.Err(); err != nil {
			return recommend.RetrievalResult{}, fmt.Errorf("scan: %w", err)
		}
		result.Lists[i] = r.scan(centroid, req)
		result.Paths[i] = PathScan
		metrics.RecordRetrievalPath(PathScan)
	}
	return result, nil
}

// scan scores every pool song against centroid. Lyrics contribute only
// when the user has a lyrics profile and the song an embedding of the same
// dimension.
//
//nolint:gocritic // hugeParam: request passed by value to match the interface
func (r *Retriever) scan(centroid recommend.Vector, req recommend.RetrievalRequest) []recommend.ScoredSong {
	centroidScalars, haveScalars := recommend.ScalarsFromVector(centroid)
	userLyrics := req.Profile.AverageLyrics

	out := make([]recommend.ScoredSong, 0, len(req.Pool))
	for i := range req.Pool {
		song := &req.Pool[i]

		vectorSim := recommend.CosineSimilarity(centroid, song.Features)
		featureSim := 0.0
		if songScalars, ok := recommend.ScalarsFromVector(song.Features); ok && haveScalars {
			featureSim = r.cfg.Features.Similarity(centroidScalars, songScalars)
		}

		var score float64
		if len(userLyrics) > 0 && len(song.Lyrics) == len(userLyrics) {
			lyricsSim := recommend.CosineSimilarity(userLyrics, song.Lyrics)
			score = r.cfg.VectorWeight*vectorSim + r.cfg.FeatureWeight*featureSim + r.cfg.LyricsWeight*lyricsSim
		} else {
			score = r.cfg.VectorWeightNoLyrics*vectorSim + r.cfg.FeatureWeightNoLyrics*featureSim
		}

		out = append(out, recommend.ScoredSong{ID: song.ID, Score: recommend.Clamp01(score)})
	}

	rank(out)
	if len(out) > req.Limit {
		out = out[:req.Limit]
	}
	return out
}

// rank sorts by score descending, then id.
func rank(list []recommend.ScoredSong) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].Score != list[j].Score {
			return list[i].Score > list[j].Score
		}
		return list[i].ID < list[j].ID
	})
}

// feedbackAdjust applies the retrieval-stage feedback boost or penalty.
func feedbackAdjust(sim float64, fb recommend.FeedbackMap, id recommend.SongID, cfg recommend.RetrievalConfig) float64 {
	liked, ok := fb[id]
	switch {
	case !ok:
	case liked:
		sim += cfg.LikedBoost
	default:
		sim -= cfg.DislikedPenalty
	}
	return recommend.Clamp01(sim)
}

// index wraps an HNSW graph keyed by pool position.
type index struct {
	graph *hnsw.Graph[int]
	songs []recommend.Song
}

// buildIndex indexes every pool song with a non-zero feature vector.
func buildIndex(pool []recommend.Song, cfg recommend.RetrievalConfig) (idx *index, err error) {
	defer func() {
		if p := recover(); p != nil {
			idx, err = nil, fmt.Errorf("%w: %v", errIndexPanic, p)
		}
	}()

	g := hnsw.NewGraph[int]()
	g.Distance = hnsw.CosineDistance
	if cfg.IndexM > 0 {
		g.M = cfg.IndexM
	}
	if cfg.IndexEfSearch > 0 {
		g.EfSearch = cfg.IndexEfSearch
	}

	nodes := make([]hnsw.Node[int], 0, len(pool))
	for i := range pool {
		if pool[i].Features.Norm() == 0 {
			continue
		}
		nodes = append(nodes, hnsw.MakeNode(i, toFloat32(pool[i].Features)))
	}
	if len(nodes) == 0 {
		return nil, errEmptyIndex
	}
	g.Add(nodes...)

	return &index{graph: g, songs: pool}, nil
}

// search queries the index. The similarity is recomputed exactly from the
// stored vectors so scores do not carry float32 rounding.
func (x *index) search(centroid recommend.Vector, limit int, fb recommend.FeedbackMap, cfg recommend.RetrievalConfig) (list []recommend.ScoredSong, err error) {
	if centroid.Norm() == 0 {
		return nil, errZeroCentroid
	}

	defer func() {
		if p := recover(); p != nil {
			list, err = nil, fmt.Errorf("%w: %v", errIndexPanic, p)
		}
	}()

	k := limit
	if n := x.graph.Len(); k > n {
		k = n
	}
	neighbors := x.graph.Search(toFloat32(centroid), k)
	if len(neighbors) == 0 {
		return nil, errNoNeighbors
	}

	list = make([]recommend.ScoredSong, 0, len(neighbors))
	for _, n := range neighbors {
		if n.Key < 0 || n.Key >= len(x.songs) {
			continue
		}
		song := &x.songs[n.Key]
		sim := recommend.CosineSimilarity(centroid, song.Features)
		list = append(list, recommend.ScoredSong{ID: song.ID, Score: feedbackAdjust(sim, fb, song.ID, cfg)})
	}
	if len(list) == 0 {
		return nil, errNoNeighbors
	}

	rank(list)
	return list, nil
}

func toFloat32(v recommend.Vector) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}

var _ recommend.Retriever = (*Retriever)(nil)
