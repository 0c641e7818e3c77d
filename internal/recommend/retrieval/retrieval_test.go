// Tunegraph - Social and Content Song Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegraph

package retrieval

import (
	"context"
	"math"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tomtom215/tunegraph/internal/recommend"
)

const tolerance = 1e-9

func newTestRetriever() *Retriever {
	return New(recommend.DefaultConfig().Retrieval, zerolog.Nop())
}

func scalars(tempo, loudness, level float64, mode, key int) recommend.ScalarFeatures {
	return recommend.ScalarFeatures{
		Tempo:            tempo,
		Acousticness:     level,
		Danceability:     level,
		Energy:           level,
		Loudness:         loudness,
		Liveness:         level,
		Valence:          level,
		Speechiness:      level,
		Instrumentalness: level,
		Mode:             mode,
		Key:              key,
	}
}

func song(id string, descriptors []float64, s recommend.ScalarFeatures) recommend.Song {
	return recommend.Song{ID: recommend.SongID(id), Features: recommend.AppendScalars(descriptors, s)}
}

func TestScan_IdenticalSongRanksFirst(t *testing.T) {
	near := song("near", []float64{0.5, 0.5}, scalars(120, -8, 0.6, 1, 5))
	far := song("far", []float64{0.1, 0.9}, scalars(70, -40, 0.1, 0, 2))
	mid := song("mid", []float64{0.5, 0.4}, scalars(125, -10, 0.5, 1, 7))

	req := recommend.RetrievalRequest{
		Centroids: []recommend.Vector{near.Features},
		Pool:      []recommend.Song{far, mid, near},
		Limit:     2,
	}

	res, err := newTestRetriever().Scan(context.Background(), req)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(res.Lists) != 1 || len(res.Lists[0]) != 2 {
		t.Fatalf("lists = %v, want one list of 2", res.Lists)
	}
	list := res.Lists[0]
	if list[0].ID != "near" {
		t.Errorf("first = %s, want near", list[0].ID)
	}
	if math.Abs(list[0].Score-1) > tolerance {
		t.Errorf("identical song score = %v, want 1", list[0].Score)
	}
	if list[1].ID != "mid" {
		t.Errorf("second = %s, want mid", list[1].ID)
	}
	if res.Paths[0] != PathScan {
		t.Errorf("path = %q, want %q", res.Paths[0], PathScan)
	}
}

func TestScan_LyricsWeighting(t *testing.T) {
	base := scalars(100, -12, 0.4, 0, 3)
	withLyrics := song("orthogonal_lyrics", []float64{1, 2}, base)
	withLyrics.Lyrics = recommend.Vector{0, 1}
	wrongDim := song("wrong_dim_lyrics", []float64{1, 2}, base)
	wrongDim.Lyrics = recommend.Vector{1, 0, 0}

	req := recommend.RetrievalRequest{
		Centroids: []recommend.Vector{withLyrics.Features},
		Pool:      []recommend.Song{withLyrics, wrongDim},
		Profile:   recommend.TasteProfile{AverageLyrics: recommend.Vector{1, 0}},
		Limit:     10,
	}

	res, err := newTestRetriever().Scan(context.Background(), req)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	list := res.Lists[0]
	if len(list) != 2 {
		t.Fatalf("len = %d, want 2", len(list))
	}

	// 0.6*1 + 0.4*1 without lyrics; 0.5*1 + 0.3*1 + 0.2*0 with them.
	if list[0].ID != "wrong_dim_lyrics" || math.Abs(list[0].Score-1) > tolerance {
		t.Errorf("first = %+v, want wrong_dim_lyrics at 1", list[0])
	}
	if list[1].ID != "orthogonal_lyrics" || math.Abs(list[1].Score-0.8) > tolerance {
		t.Errorf("second = %+v, want orthogonal_lyrics at 0.8", list[1])
	}
}

func TestRetrieve_UsesIndex(t *testing.T) {
	s := scalars(0, 0, 0, 0, 0)
	x := song("x", []float64{1000, 0, 0}, s)
	y := song("y", []float64{900, 100, 0}, s)
	z := song("z", []float64{0, 0, 1000}, s)

	req := recommend.RetrievalRequest{
		Centroids: []recommend.Vector{x.Features, z.Features},
		Pool:      []recommend.Song{x, y, z},
		Limit:     2,
	}

	res, err := newTestRetriever().Retrieve(context.Background(), req)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(res.Lists) != 2 {
		t.Fatalf("lists = %d, want 2", len(res.Lists))
	}
	for i, p := range res.Paths {
		if p != PathIndex {
			t.Errorf("path[%d] = %q, want %q", i, p, PathIndex)
		}
	}
	if res.Lists[0][0].ID != "x" {
		t.Errorf("centroid 0 first = %s, want x", res.Lists[0][0].ID)
	}
	if res.Lists[1][0].ID != "z" {
		t.Errorf("centroid 1 first = %s, want z", res.Lists[1][0].ID)
	}
	if math.Abs(res.Lists[0][0].Score-1) > tolerance {
		t.Errorf("exact match score = %v, want 1", res.Lists[0][0].Score)
	}
	for i, list := range res.Lists {
		if len(list) > req.Limit {
			t.Errorf("list %d has %d items, limit %d", i, len(list), req.Limit)
		}
	}
}

func TestRetrieve_FallsBackToScan(t *testing.T) {
	s := scalars(120, -10, 0.5, 1, 1)
	a := song("a", []float64{1, 0}, s)

	tests := []struct {
		name string
		req  recommend.RetrievalRequest
		want int
	}{
		{
			name: "empty pool",
			req: recommend.RetrievalRequest{
				Centroids: []recommend.Vector{a.Features},
				Limit:     5,
			},
			want: 0,
		},
		{
			name: "zero centroid",
			req: recommend.RetrievalRequest{
				Centroids: []recommend.Vector{make(recommend.Vector, len(a.Features))},
				Pool:      []recommend.Song{a},
				Limit:     5,
			},
			want: 1,
		},
		{
			name: "only zero vectors in pool",
			req: recommend.RetrievalRequest{
				Centroids: []recommend.Vector{a.Features},
				Pool:      []recommend.Song{{ID: "silent", Features: make(recommend.Vector, len(a.Features))}},
				Limit:     5,
			},
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := newTestRetriever().Retrieve(context.Background(), tt.req)
			if err != nil {
				t.Fatalf("Retrieve() error = %v", err)
			}
			if res.Paths[0] != PathScan {
				t.Errorf("path = %q, want %q", res.Paths[0], PathScan)
			}
			if len(res.Lists[0]) != tt.want {
				t.Errorf("len = %d, want %d", len(res.Lists[0]), tt.want)
			}
		})
	}
}

func TestRetrieve_ZeroLimit(t *testing.T) {
	a := song("a", []float64{1, 0}, scalars(120, -10, 0.5, 1, 1))
	res, err := newTestRetriever().Retrieve(context.Background(), recommend.RetrievalRequest{
		Centroids: []recommend.Vector{a.Features},
		Pool:      []recommend.Song{a},
	})
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(res.Lists) != 1 || len(res.Lists[0]) != 0 {
		t.Errorf("lists = %v, want one empty list", res.Lists)
	}
}

func TestScan_CancelledContext(t *testing.T) {
	a := song("a", []float64{1, 0}, scalars(120, -10, 0.5, 1, 1))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestRetriever().Scan(ctx, recommend.RetrievalRequest{
		Centroids: []recommend.Vector{a.Features},
		Pool:      []recommend.Song{a},
		Limit:     1,
	})
	if err == nil {
		t.Error("Scan() error = nil, want context error")
	}
}

func TestFeedbackAdjust(t *testing.T) {
	cfg := recommend.DefaultConfig().Retrieval
	fb := recommend.FeedbackMap{"liked": true, "disliked": false}

	tests := []struct {
		name string
		sim  float64
		id   recommend.SongID
		want float64
	}{
		{"no feedback", 0.5, "other", 0.5},
		{"liked boost", 0.5, "liked", 0.7},
		{"liked clamps at one", 0.9, "liked", 1},
		{"disliked penalty", 0.5, "disliked", 0.2},
		{"disliked clamps at zero", 0.1, "disliked", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := feedbackAdjust(tt.sim, fb, tt.id, cfg)
			if math.Abs(got-tt.want) > tolerance {
				t.Errorf("feedbackAdjust() = %v, want %v", got, tt.want)
			}
		})
	}
}
