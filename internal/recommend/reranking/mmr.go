// Tunegraph - Social and Content Song Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegraph

package reranking

import (
	"context"

	"github.com/tomtom215/tunegraph/internal/recommend"
)

// maxRerankSize bounds TopN; it is also bounded by the candidate count.
const maxRerankSize = 10000

// MMR implements Maximal Marginal Relevance reranking over feature vectors.
//
//	MMR = argmax[lambda * adjusted(i) - (1-lambda) * max(cos(i, s)) for s in selected]
//
// adjusted(i) is the candidate score scaled by the user's feedback on it.
// lambda shifts with the balance of the user's feedback: mostly negative
// feedback lowers it (more diversity), mostly positive feedback raises it.
//
// Reference:
// Carbonell, J., & Goldstein, J. (1998). "The Use of MMR, Diversity-Based
// Reranking for Reordering Documents and Producing Summaries." SIGIR 1998.
type MMR struct {
	cfg recommend.DiversityConfig
}

// NewMMR creates a new MMR reranker.
func NewMMR(cfg recommend.DiversityConfig) *MMR {
	return &MMR{cfg: cfg}
}

// Name returns the reranker identifier.
func (m *MMR) Name() string {
	return "mmr"
}

// Lambda returns the relevance weight used for a user with feedback fb.
func (m *MMR) Lambda(fb recommend.FeedbackMap) float64 {
	lambda := m.cfg.MMRLambda
	positive, negative := fb.Counts()
	switch {
	case negative > positive:
		lambda = min(lambda, max(lambda-m.cfg.NegativeShift, m.cfg.LambdaFloor))
	case positive > negative:
		lambda = max(lambda, min(lambda+m.cfg.PositiveShift, m.cfg.LambdaCeiling))
	}
	return recommend.Clamp01(lambda)
}

type candidate struct {
	song     recommend.ScoredSong
	vector   recommend.Vector
	adjusted float64
}

// Rerank greedily selects up to TopN candidates. Candidates without a
// vector are dropped. The returned songs keep their original scores.
func (m *MMR) Rerank(ctx context.Context, req recommend.RerankRequest) []recommend.ScoredSong {
	k := req.TopN
	if k <= 0 || len(req.Candidates) == 0 {
		return nil
	}
	if k > maxRerankSize {
		k = maxRerankSize
	}

	pool := make([]candidate, 0, len(req.Candidates))
	seen := make(map[recommend.SongID]struct{}, len(req.Candidates))
	for _, c := range req.Candidates {
		if _, dup := seen[c.ID]; dup {
			continue
		}
		v, ok := req.Vectors[c.ID]
		if !ok || len(v) == 0 {
			continue
		}
		seen[c.ID] = struct{}{}
		pool = append(pool, candidate{song: c, vector: v, adjusted: m.adjust(c, req.Feedback)})
	}

	if k > len(pool) {
		k = len(pool)
	}
	lambda := m.Lambda(req.Feedback)

	// penalty[i] is the max similarity of pool[i] to any selected candidate.
	penalty := make([]float64, len(pool))
	taken := make([]bool, len(pool))
	selected := make([]recommend.ScoredSong, 0, k)
	var last recommend.Vector

	for len(selected) < k {
		if ctx.Err() != nil {
			break
		}

		bestIdx := -1
		best := 0.0
		for i := range pool {
			if taken[i] {
				continue
			}
			if last != nil {
				if sim := recommend.CosineSimilarity(pool[i].vector, last); sim > penalty[i] {
					penalty[i] = sim
				}
			}
			score := lambda*pool[i].adjusted - (1-lambda)*penalty[i]
			// Equal MMR scores go to the higher adjusted score, then to
			// the earlier candidate.
			if bestIdx < 0 || score > best || (score == best && pool[i].adjusted > pool[bestIdx].adjusted) {
				bestIdx, best = i, score
			}
		}
		if bestIdx < 0 {
			break
		}

		taken[bestIdx] = true
		last = pool[bestIdx].vector
		selected = append(selected, pool[bestIdx].song)
	}

	return selected
}

// adjust scales the candidate score by the user's feedback on it.
func (m *MMR) adjust(c recommend.ScoredSong, fb recommend.FeedbackMap) float64 {
	liked, ok := fb[c.ID]
	switch {
	case !ok:
		return recommend.Clamp01(c.Score)
	case liked:
		return recommend.Clamp01(c.Score * m.cfg.LikedMultiplier)
	default:
		return recommend.Clamp01(c.Score * m.cfg.DislikedMultiplier)
	}
}

var _ recommend.Reranker = (*MMR)(nil)
