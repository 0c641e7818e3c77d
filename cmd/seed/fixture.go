// Tunegraph - Social and Content Song Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegraph

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/tunegraph/internal/recommend"
	"github.com/tomtom215/tunegraph/internal/recommend/storage"
)

// Fixture is a catalog and social graph loaded from YAML.
type Fixture struct {
	Songs       []FixtureSong       `koanf:"songs"`
	Likes       map[string][]string `koanf:"likes"`
	Friendships [][]string          `koanf:"friendships"`
}

// FixtureSong is one catalog entry. Descriptors are the leading feature
// dimensions; the scalar audio features are appended after them.
type FixtureSong struct {
	ID          string       `koanf:"id"`
	Title       string       `koanf:"title"`
	Artists     []string     `koanf:"artists"`
	Album       string       `koanf:"album"`
	Popularity  int          `koanf:"popularity"`
	Genres      []string     `koanf:"genres"`
	Descriptors []float64    `koanf:"descriptors"`
	Audio       FixtureAudio `koanf:"audio"`
	Lyrics      []float64    `koanf:"lyrics"`
}

// FixtureAudio mirrors recommend.ScalarFeatures.
type FixtureAudio struct {
	Tempo            float64 `koanf:"tempo"`
	Acousticness     float64 `koanf:"acousticness"`
	Danceability     float64 `koanf:"danceability"`
	Energy           float64 `koanf:"energy"`
	Loudness         float64 `koanf:"loudness"`
	Liveness         float64 `koanf:"liveness"`
	Valence          float64 `koanf:"valence"`
	Speechiness      float64 `koanf:"speechiness"`
	Instrumentalness float64 `koanf:"instrumentalness"`
	Mode             int     `koanf:"mode"`
	Key              int     `koanf:"key"`
}

// LoadFixture reads a YAML fixture.
func LoadFixture(path string) (*Fixture, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load fixture %s: %w", path, err)
	}
	var f Fixture
	if err := k.Unmarshal("", &f); err != nil {
		return nil, fmt.Errorf("decode fixture %s: %w", path, err)
	}
	if err := f.validate(); err != nil {
		return nil, fmt.Errorf("fixture %s: %w", path, err)
	}
	return &f, nil
}

func (f *Fixture) validate() error {
	known := make(map[string]bool, len(f.Songs))
	for i, s := range f.Songs {
		if s.ID == "" {
			return fmt.Errorf("song %d has no id", i)
		}
		if known[s.ID] {
			return fmt.Errorf("duplicate song id %q", s.ID)
		}
		known[s.ID] = true
	}
	for user, songs := range f.Likes {
		for _, id := range songs {
			if !known[id] {
				return fmt.Errorf("user %q likes unknown song %q", user, id)
			}
		}
	}
	for i, pair := range f.Friendships {
		if len(pair) != 2 {
			return fmt.Errorf("friendship %d must name exactly two users", i)
		}
	}
	return nil
}

// Summary counts what a fixture wrote.
type Summary struct {
	Songs       int
	Likes       int
	Friendships int
}

// Apply writes the fixture into store. Likes are timestamped in list order
// starting at base so LikedSongs returns them as written.
func (f *Fixture) Apply(ctx context.Context, store *storage.Store, base time.Time) (Summary, error) {
	var sum Summary
	for _, s := range f.Songs {
		rec := storage.SongRecord{
			Metadata: recommend.SongMetadata{
				ID:         recommend.SongID(s.ID),
				Title:      s.Title,
				Artists:    s.Artists,
				Album:      s.Album,
				Popularity: s.Popularity,
				Genres:     s.Genres,
			},
			Features: recommend.AppendScalars(s.Descriptors, recommend.ScalarFeatures(s.Audio)),
			Lyrics:   s.Lyrics,
		}
		if err := store.PutSong(ctx, rec); err != nil {
			return sum, fmt.Errorf("put song %s: %w", s.ID, err)
		}
		sum.Songs++
	}

	for user, songs := range f.Likes {
		for i, id := range songs {
			at := base.Add(time.Duration(i) * time.Second)
			if err := store.AddLikedSong(ctx, recommend.UserID(user), recommend.SongID(id), at); err != nil {
				return sum, fmt.Errorf("like %s/%s: %w", user, id, err)
			}
			sum.Likes++
		}
	}

	for _, pair := range f.Friendships {
		if err := store.AddFriendship(ctx, recommend.UserID(pair[0]), recommend.UserID(pair[1])); err != nil {
			return sum, fmt.Errorf("friendship %s/%s: %w", pair[0], pair[1], err)
		}
		sum.Friendships++
	}
	return sum, nil
}
