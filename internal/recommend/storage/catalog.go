// Tunegraph - Social and Content Song Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegraph

package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/tunegraph/internal/recommend"
)

// SongRecord is a catalog entry as stored.
type SongRecord struct {
	Metadata recommend.SongMetadata `json:"metadata"`
	Features recommend.Vector       `json:"features"`
	Lyrics   recommend.Vector       `json:"lyrics,omitempty"`
}

// PutSong inserts or replaces a catalog song.
func (s *Store) PutSong(ctx context.Context, song SongRecord) error {
	if err := validID(string(song.Metadata.ID)); err != nil {
		return err
	}
	return s.observe(ctx, "put_song", func() error {
		return s.db.Update(func(txn *badger.Txn) error {
			return s.set(txn, key(prefixSong, string(song.Metadata.ID)), song)
		})
	})
}

// Song returns one catalog song.
func (s *Store) Song(ctx context.Context, id recommend.SongID) (SongRecord, error) {
	var rec SongRecord
	err := s.observe(ctx, "song", func() error {
		return s.db.View(func(txn *badger.Txn) error {
			return s.get(txn, key(prefixSong, string(id)), &rec)
		})
	})
	return rec, err
}

// SongIDs lists the catalog in key order.
func (s *Store) SongIDs(ctx context.Context) ([]recommend.SongID, error) {
	var ids []recommend.SongID
	err := s.observe(ctx, "song_ids", func() error {
		return s.db.View(func(txn *badger.Txn) error {
			for _, id := range keySuffixes(txn, []byte(prefixSong)) {
				ids = append(ids, recommend.SongID(id))
			}
			return nil
		})
	})
	return ids, err
}

// FeatureVectors returns the feature vectors of the songs that exist.
func (s *Store) FeatureVectors(ctx context.Context, ids []recommend.SongID) (map[recommend.SongID]recommend.Vector, error) {
	out := make(map[recommend.SongID]recommend.Vector, len(ids))
	err := s.observe(ctx, "feature_vectors", func() error {
		return s.eachSong(ids, func(rec *SongRecord) {
			if len(rec.Features) > 0 {
				out[rec.Metadata.ID] = rec.Features
			}
		})
	})
	return out, err
}

// LyricsEmbeddings returns the lyrics embeddings of the songs that have one.
func (s *Store) LyricsEmbeddings(ctx context.Context, ids []recommend.SongID) (map[recommend.SongID]recommend.Vector, error) {
	out := make(map[recommend.SongID]recommend.Vector, len(ids))
	err := s.observe(ctx, "lyrics_embeddings", func() error {
		return s.eachSong(ids, func(rec *SongRecord) {
			if len(rec.Lyrics) > 0 {
				out[rec.Metadata.ID] = rec.Lyrics
			}
		})
	})
	return out, err
}

// SongDetails returns metadata in ids order, skipping unknown songs.
func (s *Store) SongDetails(ctx context.Context, ids []recommend.SongID) ([]recommend.SongMetadata, error) {
	out := make([]recommend.SongMetadata, 0, len(ids))
	err := s.observe(ctx, "song_details", func() error {
		return s.eachSong(ids, func(rec *SongRecord) {
			out = append(out, rec.Metadata)
		})
	})
	return out, err
}

// eachSong decodes every existing song in ids, once per id.
func (s *Store) eachSong(ids []recommend.SongID, fn func(*SongRecord)) error {
	return s.db.View(func(txn *badger.Txn) error {
		seen := make(map[recommend.SongID]struct{}, len(ids))
		for _, id := range ids {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}

			var rec SongRecord
			err := s.get(txn, key(prefixSong, string(id)), &rec)
			if errors.Is(err, ErrNotFound) {
				continue
			}
			if err != nil {
				return fmt.Errorf("song %s: %w", id, err)
			}
			rec.Metadata.ID = id
			fn(&rec)
		}
		return nil
	})
}
