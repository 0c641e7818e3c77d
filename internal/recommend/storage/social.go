// Tunegraph - Social and Content Song Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegraph

package storage

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/tunegraph/internal/recommend"
)

type likeRecord struct {
	LikedAt time.Time `json:"liked_at"`
}

// LikedSongs returns the user's liked songs, oldest like first.
func (s *Store) LikedSongs(ctx context.Context, user recommend.UserID) ([]recommend.SongID, error) {
	type liked struct {
		id recommend.SongID
		at time.Time
	}
	var likes []liked

	err := s.observe(ctx, "liked_songs", func() error {
		return s.db.View(func(txn *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			prefix := key(prefixLike, string(user), "")
			opts.Prefix = prefix
			it := txn.NewIterator(opts)
			defer it.Close()

			for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
				item := it.Item()
				var rec likeRecord
				if err := item.Value(func(val []byte) error { return s.unmarshal(val, &rec) }); err != nil {
					return err
				}
				likes = append(likes, liked{id: recommend.SongID(item.Key()[len(prefix):]), at: rec.LikedAt})
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(likes, func(i, j int) bool { return likes[i].at.Before(likes[j].at) })
	ids := make([]recommend.SongID, len(likes))
	for i := range likes {
		ids[i] = likes[i].id
	}
	return ids, nil
}

// AddLikedSong records a like. An existing like keeps its original time.
func (s *Store) AddLikedSong(ctx context.Context, user recommend.UserID, song recommend.SongID, at time.Time) error {
	if err := validID(string(user), string(song)); err != nil {
		return err
	}
	return s.observe(ctx, "add_liked_song", func() error {
		return s.db.Update(func(txn *badger.Txn) error {
			k := key(prefixLike, string(user), string(song))
			_, err := txn.Get(k)
			if err == nil {
				return nil
			}
			if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
			return s.set(txn, k, likeRecord{LikedAt: at.UTC()})
		})
	})
}

// RemoveLikedSong deletes a like; a missing like is not an error.
func (s *Store) RemoveLikedSong(ctx context.Context, user recommend.UserID, song recommend.SongID) error {
	return s.observe(ctx, "remove_liked_song", func() error {
		return s.db.Update(func(txn *badger.Txn) error {
			return txn.Delete(key(prefixLike, string(user), string(song)))
		})
	})
}

// Friends returns the user's friends in id order.
func (s *Store) Friends(ctx context.Context, user recommend.UserID) ([]recommend.UserID, error) {
	var friends []recommend.UserID
	err := s.observe(ctx, "friends", func() error {
		return s.db.View(func(txn *badger.Txn) error {
			for _, id := range keySuffixes(txn, key(prefixFriend, string(user), "")) {
				friends = append(friends, recommend.UserID(id))
			}
			return nil
		})
	})
	return friends, err
}

// AddFriendship links two users in both directions.
func (s *Store) AddFriendship(ctx context.Context, a, b recommend.UserID) error {
	if err := validID(string(a), string(b)); err != nil {
		return err
	}
	if a == b {
		return nil
	}
	return s.observe(ctx, "add_friendship", func() error {
		return s.db.Update(func(txn *badger.Txn) error {
			if err := txn.Set(key(prefixFriend, string(a), string(b)), nil); err != nil {
				return err
			}
			return txn.Set(key(prefixFriend, string(b), string(a)), nil)
		})
	})
}
