// Tunegraph - Social and Content Song Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegraph

package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/tunegraph/internal/recommend"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(&Config{Path: t.TempDir()})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testSong(id string, features, lyrics recommend.Vector, genres ...string) SongRecord {
	return SongRecord{
		Metadata: recommend.SongMetadata{
			ID:      recommend.SongID(id),
			Title:   "Song " + id,
			Artists: []string{"Artist " + id},
			Genres:  genres,
		},
		Features: features,
		Lyrics:   lyrics,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"path", Config{Path: "/tmp/x"}, false},
		{"in memory", Config{InMemory: true}, false},
		{"no path", Config{}, true},
		{"negative ratio", Config{InMemory: true, GCRatio: -0.1}, true},
		{"ratio of one", Config{InMemory: true, GCRatio: 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestStore_Catalog(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	songs := []SongRecord{
		testSong("b", recommend.Vector{1, 2}, nil, "rock"),
		testSong("a", recommend.Vector{3, 4}, recommend.Vector{0.5, 0.5}, "jazz"),
		testSong("c/with:sep", recommend.Vector{5, 6}, nil),
	}
	for _, song := range songs {
		if err := s.PutSong(ctx, song); err != nil {
			t.Fatalf("PutSong(%s) error = %v", song.Metadata.ID, err)
		}
	}

	ids, err := s.SongIDs(ctx)
	if err != nil {
		t.Fatalf("SongIDs() error = %v", err)
	}
	want := []recommend.SongID{"a", "b", "c/with:sep"}
	if len(ids) != len(want) {
		t.Fatalf("SongIDs() = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("SongIDs()[%d] = %s, want %s", i, ids[i], want[i])
		}
	}

	vectors, err := s.FeatureVectors(ctx, []recommend.SongID{"a", "missing", "a", "b"})
	if err != nil {
		t.Fatalf("FeatureVectors() error = %v", err)
	}
	if len(vectors) != 2 {
		t.Errorf("FeatureVectors() returned %d vectors, want 2", len(vectors))
	}
	if got := vectors["a"]; len(got) != 2 || got[0] != 3 || got[1] != 4 {
		t.Errorf("FeatureVectors()[a] = %v, want [3 4]", got)
	}

	lyrics, err := s.LyricsEmbeddings(ctx, []recommend.SongID{"a", "b"})
	if err != nil {
		t.Fatalf("LyricsEmbeddings() error = %v", err)
	}
	if len(lyrics) != 1 || lyrics["a"] == nil {
		t.Errorf("LyricsEmbeddings() = %v, want only a", lyrics)
	}

	details, err := s.SongDetails(ctx, []recommend.SongID{"b", "missing", "a"})
	if err != nil {
		t.Fatalf("SongDetails() error = %v", err)
	}
	if len(details) != 2 || details[0].ID != "b" || details[1].ID != "a" {
		t.Fatalf("SongDetails() = %+v, want b then a", details)
	}
	if len(details[0].Genres) != 1 || details[0].Genres[0] != "rock" {
		t.Errorf("genres = %v, want [rock]", details[0].Genres)
	}

	// Replacing a song overwrites its vector.
	if err := s.PutSong(ctx, testSong("a", recommend.Vector{9, 9}, nil)); err != nil {
		t.Fatalf("PutSong() error = %v", err)
	}
	rec, err := s.Song(ctx, "a")
	if err != nil {
		t.Fatalf("Song() error = %v", err)
	}
	if rec.Features[0] != 9 || rec.Lyrics != nil {
		t.Errorf("Song() = %+v, want replaced record", rec)
	}

	if _, err := s.Song(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Song(missing) error = %v, want ErrNotFound", err)
	}
}

func TestStore_InvalidIDs(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name string
		fn   func() error
	}{
		{"empty song id", func() error { return s.PutSong(ctx, testSong("", recommend.Vector{1}, nil)) }},
		{"nul in song id", func() error { return s.PutSong(ctx, testSong("a\x00b", recommend.Vector{1}, nil)) }},
		{"empty user like", func() error { return s.AddLikedSong(ctx, "", "a", time.Now()) }},
		{"empty friend", func() error { return s.AddFriendship(ctx, "alice", "") }},
		{"feedback without song", func() error { return s.PutFeedback(ctx, recommend.Feedback{UserID: "alice"}) }},
		{"cluster entry without user", func() error { return s.SaveClusters(ctx, recommend.ClusterCacheEntry{}) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fn(); !errors.Is(err, ErrInvalidID) {
				t.Errorf("error = %v, want ErrInvalidID", err)
			}
		})
	}
}

func TestStore_LikedSongs(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	steps := []struct {
		user recommend.UserID
		song recommend.SongID
		at   time.Time
	}{
		{"alice", "s2", base.Add(2 * time.Hour)},
		{"alice", "s1", base.Add(time.Hour)},
		{"alice", "s3", base.Add(3 * time.Hour)},
		{"alice", "s1", base.Add(10 * time.Hour)}, // repeat keeps the first time
		{"al", "s9", base},
	}
	for _, step := range steps {
		if err := s.AddLikedSong(ctx, step.user, step.song, step.at); err != nil {
			t.Fatalf("AddLikedSong() error = %v", err)
		}
	}

	got, err := s.LikedSongs(ctx, "alice")
	if err != nil {
		t.Fatalf("LikedSongs() error = %v", err)
	}
	want := []recommend.SongID{"s1", "s2", "s3"}
	if len(got) != len(want) {
		t.Fatalf("LikedSongs() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("LikedSongs()[%d] = %s, want %s", i, got[i], want[i])
		}
	}

	if err := s.RemoveLikedSong(ctx, "alice", "s2"); err != nil {
		t.Fatalf("RemoveLikedSong() error = %v", err)
	}
	got, _ = s.LikedSongs(ctx, "alice")
	if len(got) != 2 {
		t.Errorf("after removal LikedSongs() = %v, want 2 songs", got)
	}

	none, err := s.LikedSongs(ctx, "nobody")
	if err != nil || len(none) != 0 {
		t.Errorf("LikedSongs(nobody) = %v, %v; want empty, nil", none, err)
	}
}

func TestStore_Friends(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, pair := range [][2]recommend.UserID{{"alice", "bob"}, {"carol", "alice"}, {"alice", "alice"}} {
		if err := s.AddFriendship(ctx, pair[0], pair[1]); err != nil {
			t.Fatalf("AddFriendship(%v) error = %v", pair, err)
		}
	}

	tests := []struct {
		user recommend.UserID
		want []recommend.UserID
	}{
		{"alice", []recommend.UserID{"bob", "carol"}},
		{"bob", []recommend.UserID{"alice"}},
		{"carol", []recommend.UserID{"alice"}},
		{"dave", nil},
	}

	for _, tt := range tests {
		t.Run(string(tt.user), func(t *testing.T) {
			got, err := s.Friends(ctx, tt.user)
			if err != nil {
				t.Fatalf("Friends() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Friends() = %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("Friends()[%d] = %s, want %s", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestStore_Feedback(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	at := time.Date(2026, 2, 3, 4, 5, 6, 7, time.UTC)

	writes := []recommend.Feedback{
		{UserID: "alice", SongID: "s1", Liked: true, Source: "friends", UpdatedAt: at},
		{UserID: "alice", SongID: "s2", Liked: false, UpdatedAt: at},
		{UserID: "alice", SongID: "s1", Liked: false, Source: "similar_music", UpdatedAt: at.Add(time.Minute)},
		{UserID: "bob", SongID: "s1", Liked: true, UpdatedAt: at},
	}
	for _, fb := range writes {
		if err := s.PutFeedback(ctx, fb); err != nil {
			t.Fatalf("PutFeedback() error = %v", err)
		}
	}

	fb, err := s.Feedback(ctx, "alice")
	if err != nil {
		t.Fatalf("Feedback() error = %v", err)
	}
	if len(fb) != 2 || fb["s1"] || fb["s2"] {
		t.Errorf("Feedback() = %v, want s1 and s2 disliked", fb)
	}

	records, err := s.FeedbackRecords(ctx, "alice")
	if err != nil {
		t.Fatalf("FeedbackRecords() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("FeedbackRecords() = %d records, want 2", len(records))
	}
	if records[0].SongID != "s1" || records[0].Source != "similar_music" {
		t.Errorf("records[0] = %+v, want latest s1 record", records[0])
	}
	if !records[0].UpdatedAt.Equal(at.Add(time.Minute)) {
		t.Errorf("UpdatedAt = %v, want %v", records[0].UpdatedAt, at.Add(time.Minute))
	}
}

func TestStore_RecommendationLog(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := []recommend.RecommendationRecord{
		{ID: "r1", SongID: "s1", Source: "friends"},
		{ID: "r2", SongID: "s2", Source: "similar_music"},
	}
	if err := s.ReplaceRecommendations(ctx, "alice", first); err != nil {
		t.Fatalf("ReplaceRecommendations() error = %v", err)
	}
	if err := s.ReplaceRecommendations(ctx, "bob", []recommend.RecommendationRecord{{ID: "b1", SongID: "s1"}}); err != nil {
		t.Fatalf("ReplaceRecommendations(bob) error = %v", err)
	}

	rec, err := s.Recommendation(ctx, "r1")
	if err != nil {
		t.Fatalf("Recommendation() error = %v", err)
	}
	if rec.UserID != "alice" || rec.SongID != "s1" || rec.Source != "friends" {
		t.Errorf("Recommendation() = %+v", rec)
	}

	second := []recommend.RecommendationRecord{{ID: "r3", SongID: "s3", Source: "friends,similar_music"}}
	if err := s.ReplaceRecommendations(ctx, "alice", second); err != nil {
		t.Fatalf("ReplaceRecommendations() error = %v", err)
	}

	for _, id := range []string{"r1", "r2"} {
		if _, err := s.Recommendation(ctx, id); !errors.Is(err, ErrNotFound) {
			t.Errorf("Recommendation(%s) error = %v, want ErrNotFound", id, err)
		}
	}
	if _, err := s.Recommendation(ctx, "r3"); err != nil {
		t.Errorf("Recommendation(r3) error = %v", err)
	}
	if _, err := s.Recommendation(ctx, "b1"); err != nil {
		t.Errorf("another user's record was removed: %v", err)
	}
}

func TestStore_ClusterCache(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, found, err := s.LoadClusters(ctx, "alice"); err != nil || found {
		t.Fatalf("LoadClusters() = found %v, err %v; want miss", found, err)
	}

	computed := time.Date(2026, 5, 6, 7, 8, 9, 123456789, time.UTC)
	entry := recommend.ClusterCacheEntry{
		UserID:     "alice",
		ComputedAt: computed,
		Analytics: recommend.ClusterAnalytics{
			UserID:      "alice",
			NumClusters: 1,
			Clusters: []recommend.ClusterSummary{{
				Index:  0,
				Size:   2,
				Genres: map[string]int{"rock": 2},
				Points: []recommend.ProjectedPoint{{SongID: "s1", X: 1, Y: -1}, {SongID: "s2", X: 0.5, Y: 0.25}},
			}},
			Diagnostics: recommend.ClusterDiagnostics{ChosenK: 1, Points: 2, Projection: "pca"},
		},
	}
	if err := s.SaveClusters(ctx, entry); err != nil {
		t.Fatalf("SaveClusters() error = %v", err)
	}

	got, found, err := s.LoadClusters(ctx, "alice")
	if err != nil || !found {
		t.Fatalf("LoadClusters() = found %v, err %v; want hit", found, err)
	}
	if !got.ComputedAt.Equal(computed) {
		t.Errorf("ComputedAt = %v, want %v", got.ComputedAt, computed)
	}
	if got.Analytics.NumClusters != 1 || got.Analytics.Clusters[0].Genres["rock"] != 2 {
		t.Errorf("Analytics = %+v", got.Analytics)
	}
	if p := got.Analytics.Clusters[0].Points[1]; p.SongID != "s2" || p.X != 0.5 || p.Y != 0.25 {
		t.Errorf("point = %+v", p)
	}
}

func TestStore_ClosedAndCancelled(t *testing.T) {
	s := openTestStore(t)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.SongIDs(cancelled); !errors.Is(err, context.Canceled) {
		t.Errorf("SongIDs(cancelled) error = %v, want context.Canceled", err)
	}

	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if _, err := s.SongIDs(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("SongIDs() after close error = %v, want ErrClosed", err)
	}
	if _, err := s.RunValueLogGC(); !errors.Is(err, ErrClosed) {
		t.Errorf("RunValueLogGC() after close error = %v, want ErrClosed", err)
	}
}

func TestStore_RunValueLogGC(t *testing.T) {
	s := openTestStore(t)

	result, err := s.RunValueLogGC()
	if err != nil {
		t.Fatalf("RunValueLogGC() error = %v", err)
	}
	if result != GCNothing && result != GCRewritten {
		t.Errorf("RunValueLogGC() = %q", result)
	}

	mem, err := Open(&Config{InMemory: true})
	if err != nil {
		t.Fatalf("Open(in memory) error = %v", err)
	}
	defer mem.Close()
	if result, err := mem.RunValueLogGC(); err != nil || result != GCNothing {
		t.Errorf("in-memory RunValueLogGC() = %q, %v; want nothing", result, err)
	}
}

func TestStore_Components(t *testing.T) {
	s := openTestStore(t)
	c := s.Components()
	if c.Features == nil || c.Social == nil || c.Feedback == nil || c.Log == nil || c.Cache == nil {
		t.Errorf("Components() = %+v, want every store slot set", c)
	}
	if c.Retriever != nil || c.Reranker != nil {
		t.Error("Components() should leave retriever and reranker to the caller")
	}
}
