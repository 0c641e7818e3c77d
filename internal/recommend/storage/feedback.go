// Tunegraph - Social and Content Song Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegraph

package storage

import (
	"context"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/tunegraph/internal/recommend"
)

// Feedback returns the latest judgment per song for a user.
func (s *Store) Feedback(ctx context.Context, user recommend.UserID) (recommend.FeedbackMap, error) {
	out := recommend.FeedbackMap{}
	err := s.observe(ctx, "feedback", func() error {
		return s.db.View(func(txn *badger.Txn) error {
			for _, fb := range s.feedbackRecords(txn, user) {
				out[fb.SongID] = fb.Liked
			}
			return nil
		})
	})
	return out, err
}

// FeedbackRecords returns the full feedback records for a user.
func (s *Store) FeedbackRecords(ctx context.Context, user recommend.UserID) ([]recommend.Feedback, error) {
	var out []recommend.Feedback
	err := s.observe(ctx, "feedback_records", func() error {
		return s.db.View(func(txn *badger.Txn) error {
			out = s.feedbackRecords(txn, user)
			return nil
		})
	})
	return out, err
}

// feedbackRecords skips undecodable records rather than failing the read.
func (s *Store) feedbackRecords(txn *badger.Txn, user recommend.UserID) []recommend.Feedback {
	prefix := key(prefixFeedback, string(user), "")
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	var out []recommend.Feedback
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		var fb recommend.Feedback
		if err := it.Item().Value(func(val []byte) error { return s.unmarshal(val, &fb) }); err != nil {
			continue
		}
		fb.UserID = user
		fb.SongID = recommend.SongID(it.Item().Key()[len(prefix):])
		out = append(out, fb)
	}
	return out
}

// PutFeedback upserts the record for (user, song).
func (s *Store) PutFeedback(ctx context.Context, fb recommend.Feedback) error {
	if err := validID(string(fb.UserID), string(fb.SongID)); err != nil {
		return err
	}
	return s.observe(ctx, "put_feedback", func() error {
		return s.db.Update(func(txn *badger.Txn) error {
			return s.set(txn, key(prefixFeedback, string(fb.UserID), string(fb.SongID)), fb)
		})
	})
}

// ReplaceRecommendations deletes the user's previous records and writes
// the new ones. The two steps run in separate transactions.
func (s *Store) ReplaceRecommendations(ctx context.Context, user recommend.UserID, records []recommend.RecommendationRecord) error {
	if err := validID(string(user)); err != nil {
		return err
	}
	for _, r := range records {
		if err := validID(r.ID); err != nil {
			return err
		}
	}

	return s.observe(ctx, "replace_recommendations", func() error {
		if err := s.deleteRecommendations(user); err != nil {
			return fmt.Errorf("delete previous recommendations: %w", err)
		}

		wb := s.db.NewWriteBatch()
		defer wb.Cancel()
		for _, r := range records {
			r.UserID = user
			data, err := s.marshal(r)
			if err != nil {
				return err
			}
			if err := wb.Set(key(prefixRec, r.ID), data); err != nil {
				return err
			}
			if err := wb.Set(key(prefixRecByUser, string(user), r.ID), nil); err != nil {
				return err
			}
		}
		return wb.Flush()
	})
}

func (s *Store) deleteRecommendations(user recommend.UserID) error {
	var ids []string
	if err := s.db.View(func(txn *badger.Txn) error {
		ids = keySuffixes(txn, key(prefixRecByUser, string(user), ""))
		return nil
	}); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, id := range ids {
		if err := wb.Delete(key(prefixRec, id)); err != nil {
			return err
		}
		if err := wb.Delete(key(prefixRecByUser, string(user), id)); err != nil {
			return err
		}
	}
	return wb.Flush()
}

// Recommendation returns a logged record or ErrNotFound.
func (s *Store) Recommendation(ctx context.Context, id string) (recommend.RecommendationRecord, error) {
	var rec recommend.RecommendationRecord
	err := s.observe(ctx, "recommendation", func() error {
		return s.db.View(func(txn *badger.Txn) error {
			return s.get(txn, key(prefixRec, id), &rec)
		})
	})
	return rec, err
}
