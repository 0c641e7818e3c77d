// Tunegraph - Social and Content Song Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegraph

package reranking

import (
	"context"
	"math"
	"testing"

	"github.com/tomtom215/tunegraph/internal/recommend"
)

func diversityConfig(lambda float64) recommend.DiversityConfig {
	cfg := recommend.DefaultConfig().Diversity
	cfg.MMRLambda = lambda
	return cfg
}

// nearDuplicates returns X and Y with cosine similarity 0.98 and Z
// orthogonal to both.
func nearDuplicates() ([]recommend.ScoredSong, map[recommend.SongID]recommend.Vector) {
	candidates := []recommend.ScoredSong{
		{ID: "X", Score: 0.9},
		{ID: "Y", Score: 0.85},
		{ID: "Z", Score: 0.2},
	}
	vectors := map[recommend.SongID]recommend.Vector{
		"X": {1, 0, 0},
		"Y": {0.98, math.Sqrt(1 - 0.98*0.98), 0},
		"Z": {0, 0, 1},
	}
	return candidates, vectors
}

func ids(songs []recommend.ScoredSong) []recommend.SongID {
	out := make([]recommend.SongID, len(songs))
	for i, s := range songs {
		out[i] = s.ID
	}
	return out
}

func equalIDs(a, b []recommend.SongID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestMMR_Name(t *testing.T) {
	if got := NewMMR(diversityConfig(0.7)).Name(); got != "mmr" {
		t.Errorf("Name() = %q, want %q", got, "mmr")
	}
}

func TestMMR_Lambda(t *testing.T) {
	tests := []struct {
		name   string
		lambda float64
		fb     recommend.FeedbackMap
		want   float64
	}{
		{"no feedback", 0.7, nil, 0.7},
		{"balanced feedback", 0.7, recommend.FeedbackMap{"a": true, "b": false}, 0.7},
		{"mostly negative", 0.7, recommend.FeedbackMap{"a": false, "b": false, "c": true}, 0.5},
		{"negative floors at 0.3", 0.4, recommend.FeedbackMap{"a": false}, 0.3},
		{"negative never raises a low lambda", 0.2, recommend.FeedbackMap{"a": false}, 0.2},
		{"mostly positive", 0.7, recommend.FeedbackMap{"a": true}, 0.8},
		{"positive caps at 0.9", 0.85, recommend.FeedbackMap{"a": true}, 0.9},
		{"positive never lowers a high lambda", 0.95, recommend.FeedbackMap{"a": true}, 0.95},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewMMR(diversityConfig(tt.lambda)).Lambda(tt.fb)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Lambda() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMMR_NearDuplicates(t *testing.T) {
	candidates, vectors := nearDuplicates()

	tests := []struct {
		name     string
		feedback recommend.FeedbackMap
		want     []recommend.SongID
	}{
		{
			// 0.7*0.85 - 0.3*0.98 = 0.301 beats Z's 0.7*0.2 = 0.14, so the
			// formula selects [X Y] here even though [X Z] is the commonly
			// quoted outcome for this triple.
			name: "default lambda keeps the strong duplicate",
			want: []recommend.SongID{"X", "Y"},
		},
		{
			// Mostly negative feedback lowers lambda to 0.5:
			// Y = 0.425 - 0.49 < Z = 0.1.
			name:     "negative feedback suppresses the duplicate",
			feedback: recommend.FeedbackMap{"other1": false, "other2": false},
			want:     []recommend.SongID{"X", "Z"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewMMR(diversityConfig(0.7)).Rerank(context.Background(), recommend.RerankRequest{
				Candidates: candidates,
				Vectors:    vectors,
				Feedback:   tt.feedback,
				TopN:       2,
			})
			if !equalIDs(ids(got), tt.want) {
				t.Errorf("Rerank() = %v, want %v", ids(got), tt.want)
			}
		})
	}
}

func TestMMR_PureDiversity(t *testing.T) {
	candidates, vectors := nearDuplicates()

	got := NewMMR(diversityConfig(0)).Rerank(context.Background(), recommend.RerankRequest{
		Candidates: candidates,
		Vectors:    vectors,
		TopN:       3,
	})

	want := []recommend.SongID{"X", "Z", "Y"}
	if !equalIDs(ids(got), want) {
		t.Errorf("Rerank() = %v, want %v", ids(got), want)
	}
}

func TestMMR_PureRelevanceUsesAdjustedScores(t *testing.T) {
	candidates := []recommend.ScoredSong{
		{ID: "B", Score: 0.55},
		{ID: "A", Score: 0.5},
		{ID: "C", Score: 0.3},
	}
	vectors := map[recommend.SongID]recommend.Vector{
		"A": {1, 0}, "B": {1, 0}, "C": {1, 0},
	}
	// One like and one dislike keep lambda at 1.
	fb := recommend.FeedbackMap{"A": true, "C": false}

	got := NewMMR(diversityConfig(1)).Rerank(context.Background(), recommend.RerankRequest{
		Candidates: candidates,
		Vectors:    vectors,
		Feedback:   fb,
		TopN:       3,
	})

	want := []recommend.SongID{"A", "B", "C"}
	if !equalIDs(ids(got), want) {
		t.Fatalf("Rerank() = %v, want %v", ids(got), want)
	}
	if got[0].Score != 0.5 {
		t.Errorf("score = %v, want original 0.5", got[0].Score)
	}
}

func TestMMR_OutputBounds(t *testing.T) {
	candidates := []recommend.ScoredSong{
		{ID: "a", Score: 0.9},
		{ID: "novector", Score: 0.95},
		{ID: "b", Score: 0.8},
		{ID: "a", Score: 0.7},
		{ID: "c", Score: 0.6},
	}
	vectors := map[recommend.SongID]recommend.Vector{
		"a": {1, 0},
		"b": {0, 1},
		"c": {1, 1},
	}

	tests := []struct {
		name    string
		topN    int
		wantLen int
	}{
		{"zero", 0, 0},
		{"fewer than pool", 2, 2},
		{"more than pool", 10, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewMMR(diversityConfig(0.7)).Rerank(context.Background(), recommend.RerankRequest{
				Candidates: candidates,
				Vectors:    vectors,
				TopN:       tt.topN,
			})
			if len(got) != tt.wantLen {
				t.Fatalf("len = %d, want %d", len(got), tt.wantLen)
			}
			seen := make(map[recommend.SongID]bool)
			for _, s := range got {
				if s.ID == "novector" {
					t.Error("candidate without a vector was returned")
				}
				if seen[s.ID] {
					t.Errorf("duplicate %s", s.ID)
				}
				seen[s.ID] = true
			}
		})
	}
}

func TestMMR_TiesKeepInputOrder(t *testing.T) {
	candidates := []recommend.ScoredSong{
		{ID: "first", Score: 0.5},
		{ID: "second", Score: 0.5},
	}
	vectors := map[recommend.SongID]recommend.Vector{
		"first":  {1, 0},
		"second": {1, 0},
	}

	got := NewMMR(diversityConfig(0.7)).Rerank(context.Background(), recommend.RerankRequest{
		Candidates: candidates,
		Vectors:    vectors,
		TopN:       1,
	})
	if len(got) != 1 || got[0].ID != "first" {
		t.Errorf("Rerank() = %v, want [first]", ids(got))
	}
}

func TestMMR_EqualAdjustedScoresKeepInputOrder(t *testing.T) {
	// A's liked boost lifts 0.25 to 0.3, tying B. Input order decides.
	candidates := []recommend.ScoredSong{
		{ID: "A", Score: 0.25},
		{ID: "B", Score: 0.3},
	}
	vectors := map[recommend.SongID]recommend.Vector{
		"A": {1, 0},
		"B": {0, 1},
	}

	tests := []struct {
		name     string
		feedback recommend.FeedbackMap
		want     []recommend.SongID
	}{
		{"liked boost ties", recommend.FeedbackMap{"A": true, "other": false}, []recommend.SongID{"A", "B"}},
		{"no feedback keeps higher score first", nil, []recommend.SongID{"B", "A"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewMMR(diversityConfig(1)).Rerank(context.Background(), recommend.RerankRequest{
				Candidates: candidates,
				Vectors:    vectors,
				Feedback:   tt.feedback,
				TopN:       2,
			})
			if !equalIDs(ids(got), tt.want) {
				t.Errorf("Rerank() = %v, want %v", ids(got), tt.want)
			}
		})
	}
}

func TestMMR_PureDiversityStartsFromTopAdjusted(t *testing.T) {
	candidates := []recommend.ScoredSong{
		{ID: "low", Score: 0.1},
		{ID: "high", Score: 0.9},
	}
	vectors := map[recommend.SongID]recommend.Vector{
		"low":  {1, 0},
		"high": {0, 1},
	}

	got := NewMMR(diversityConfig(0)).Rerank(context.Background(), recommend.RerankRequest{
		Candidates: candidates,
		Vectors:    vectors,
		TopN:       1,
	})
	if len(got) != 1 || got[0].ID != "high" {
		t.Errorf("Rerank() = %v, want [high]", ids(got))
	}
}

func BenchmarkMMR_Rerank(b *testing.B) {
	candidates := make([]recommend.ScoredSong, 200)
	vectors := make(map[recommend.SongID]recommend.Vector, 200)
	for i := range candidates {
		id := recommend.SongID(rune('a'+i%26)) + recommend.SongID(rune('A'+i/26))
		candidates[i] = recommend.ScoredSong{ID: id, Score: 1 - float64(i)/200}
		vectors[id] = recommend.Vector{float64(i % 7), float64(i % 11), float64(i % 13), 1}
	}
	m := NewMMR(diversityConfig(0.7))
	req := recommend.RerankRequest{Candidates: candidates, Vectors: vectors, TopN: 20}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.Rerank(context.Background(), req)
	}
}
