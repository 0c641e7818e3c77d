// Tunegraph - Social and Content Song Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegraph

package recommend

import "testing"

func TestCollaborativeCounts(t *testing.T) {
	likes := friendLikes{
		"f1": {"s1", "s2", "s2"},
		"f2": {"s1", "liked"},
		"f3": {"s1", "s3"},
	}
	exclude := map[SongID]struct{}{"liked": {}}

	counts := collaborativeCounts(likes, exclude)

	want := map[SongID]int{"s1": 3, "s2": 1, "s3": 1}
	if len(counts) != len(want) {
		t.Fatalf("counts = %v, want %v", counts, want)
	}
	for id, n := range want {
		if counts[id] != n {
			t.Errorf("counts[%s] = %d, want %d", id, counts[id], n)
		}
	}
}

func TestCollaborativeScores(t *testing.T) {
	scores := collaborativeScores(map[SongID]int{"a": 4, "b": 2, "c": 1}, 0.7)

	tests := []struct {
		id   SongID
		want float64
	}{
		{"a", 0.7},
		{"b", 0.35},
		{"c", 0.175},
	}
	for _, tt := range tests {
		if !approx(scores[tt.id], tt.want) {
			t.Errorf("score[%s] = %v, want %v", tt.id, scores[tt.id], tt.want)
		}
	}

	if got := collaborativeScores(nil, 0.7); len(got) != 0 {
		t.Errorf("empty counts gave %v", got)
	}
}

func TestDiversifyFriends(t *testing.T) {
	// f1 and f2 agree on the popular songs; f3 only likes a niche song.
	likes := friendLikes{
		"f1": {"hit1", "hit2"},
		"f2": {"hit1", "hit2"},
		"f3": {"niche"},
	}
	counts := collaborativeCounts(likes, nil)

	t.Run("within cap unchanged", func(t *testing.T) {
		got := diversifyFriends(likes, counts, 10)
		if len(got) != 3 {
			t.Errorf("len = %d, want 3", len(got))
		}
	})

	t.Run("every friend represented", func(t *testing.T) {
		got := diversifyFriends(likes, counts, 2)
		if len(got) != 2 {
			t.Fatalf("len = %d, want 2", len(got))
		}
		if _, ok := got["niche"]; !ok {
			t.Errorf("niche song dropped: %v", got)
		}
		if _, ok := got["hit1"]; !ok {
			t.Errorf("top song dropped: %v", got)
		}
		if got["hit1"] != 2 {
			t.Errorf("count changed: hit1 = %d, want 2", got["hit1"])
		}
	})
}

func TestInterleave(t *testing.T) {
	lists := [][]ScoredSong{
		{{ID: "a", Score: 0.9}, {ID: "b", Score: 0.8}, {ID: "c", Score: 0.7}},
		{{ID: "a", Score: 0.95}, {ID: "d", Score: 0.6}},
		{{ID: "e", Score: 0.5}},
	}

	tests := []struct {
		name  string
		limit int
		want  []SongID
	}{
		{"round robin skipping duplicates", 10, []SongID{"a", "d", "e", "b", "c"}},
		{"limit stops early", 3, []SongID{"a", "d", "e"}},
		{"limit of one", 1, []SongID{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := interleave(lists, tt.limit)
			if len(got) != len(tt.want) {
				t.Fatalf("interleave() = %v, want %v", got, tt.want)
			}
			seen := make(map[SongID]bool)
			for i, s := range got {
				if s.ID != tt.want[i] {
					t.Errorf("position %d = %s, want %s", i, s.ID, tt.want[i])
				}
				if seen[s.ID] {
					t.Errorf("duplicate %s", s.ID)
				}
				seen[s.ID] = true
			}
		})
	}

	if got := interleave(nil, 5); len(got) != 0 {
		t.Errorf("interleave(nil) = %v, want empty", got)
	}
}

func TestFuse(t *testing.T) {
	cfg := DefaultConfig()
	in := fusionInput{
		collaborative: map[SongID]float64{"both": 0.7, "friends_only": 0.35, "disliked": 0.7},
		content: []ScoredSong{
			{ID: "both", Score: 0.5},
			{ID: "content_only", Score: 0.9},
			{ID: "liked_before", Score: 0.5},
		},
		contentWeight: cfg.Fusion.ContentWeight,
		feedback:      FeedbackMap{"liked_before": true, "disliked": false},
		multipliers:   cfg.Feedback,
		exclude:       map[SongID]struct{}{"disliked": {}},
		limit:         10,
	}

	got := fuse(in)

	byID := make(map[SongID]Recommendation)
	for _, r := range got {
		byID[r.SongID] = r
	}
	if _, ok := byID["disliked"]; ok {
		t.Error("excluded song was returned")
	}

	tests := []struct {
		id      SongID
		score   float64
		sources []string
	}{
		{"both", 0.7 + 0.3*0.5, []string{SourceFriends, SourceSimilarMusic}},
		{"friends_only", 0.35, []string{SourceFriends}},
		{"content_only", 0.27, []string{SourceSimilarMusic}},
		{"liked_before", 0.3 * 0.5 * 1.3, []string{SourceSimilarMusic}},
	}
	for _, tt := range tests {
		r, ok := byID[tt.id]
		if !ok {
			t.Errorf("%s missing", tt.id)
			continue
		}
		if !approx(r.Score, tt.score) {
			t.Errorf("%s score = %v, want %v", tt.id, r.Score, tt.score)
		}
		if len(r.Sources) != len(tt.sources) {
			t.Errorf("%s sources = %v, want %v", tt.id, r.Sources, tt.sources)
			continue
		}
		for i := range tt.sources {
			if r.Sources[i] != tt.sources[i] {
				t.Errorf("%s sources = %v, want %v", tt.id, r.Sources, tt.sources)
			}
		}
	}

	for i := 1; i < len(got); i++ {
		if got[i-1].Score < got[i].Score {
			t.Errorf("not sorted at %d: %v < %v", i, got[i-1].Score, got[i].Score)
		}
	}
}

func TestFuse_ClampsAndLimits(t *testing.T) {
	in := fusionInput{
		collaborative: map[SongID]float64{"a": 0.7, "b": 0.7, "c": 0.1},
		content:       []ScoredSong{{ID: "a", Score: 1}},
		contentWeight: 0.3,
		feedback:      FeedbackMap{"a": true},
		multipliers:   FeedbackConfig{LikedMultiplier: 1.3, DislikedMultiplier: 0.3},
		limit:         2,
	}

	got := fuse(in)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].SongID != "a" || got[0].Score != 1 {
		t.Errorf("first = %s at %v, want a clamped to 1", got[0].SongID, got[0].Score)
	}
	if got[1].SongID != "b" {
		t.Errorf("second = %s, want b", got[1].SongID)
	}
}

func TestFuse_TiesBrokenByID(t *testing.T) {
	in := fusionInput{
		collaborative: map[SongID]float64{"z": 0.5, "m": 0.5, "a": 0.5},
		multipliers:   FeedbackConfig{LikedMultiplier: 1.3, DislikedMultiplier: 0.3},
		limit:         3,
	}
	got := fuse(in)
	want := []SongID{"a", "m", "z"}
	for i := range want {
		if got[i].SongID != want[i] {
			t.Errorf("position %d = %s, want %s", i, got[i].SongID, want[i])
		}
	}
}

func TestSummarizePaths(t *testing.T) {
	tests := []struct {
		paths []string
		want  string
	}{
		{nil, ""},
		{[]string{"index", "index"}, "index"},
		{[]string{"scan"}, "scan"},
		{[]string{"scan", "index"}, "mixed:index+scan"},
	}
	for _, tt := range tests {
		if got := summarizePaths(tt.paths); got != tt.want {
			t.Errorf("summarizePaths(%v) = %q, want %q", tt.paths, got, tt.want)
		}
	}
}

func TestExclusionSet(t *testing.T) {
	got := exclusionSet([]SongID{"l1", "l2"}, FeedbackMap{"d1": false, "p1": true})
	for _, id := range []SongID{"l1", "l2", "d1"} {
		if _, ok := got[id]; !ok {
			t.Errorf("%s not excluded", id)
		}
	}
	if _, ok := got["p1"]; ok {
		t.Error("positively rated song was excluded")
	}
}
