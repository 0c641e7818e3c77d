// Tunegraph - Social and Content Song Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegraph

package storage

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/tunegraph/internal/recommend"
)

// LoadClusters returns the stored analysis for user. Freshness is the
// caller's decision.
func (s *Store) LoadClusters(ctx context.Context, user recommend.UserID) (recommend.ClusterCacheEntry, bool, error) {
	var entry recommend.ClusterCacheEntry
	err := s.observe(ctx, "load_clusters", func() error {
		return s.db.View(func(txn *badger.Txn) error {
			return s.get(txn, key(prefixClusters, string(user)), &entry)
		})
	})
	if errors.Is(err, ErrNotFound) {
		return recommend.ClusterCacheEntry{}, false, nil
	}
	if err != nil {
		return recommend.ClusterCacheEntry{}, false, err
	}
	return entry, true, nil
}

// SaveClusters overwrites the stored analysis for entry.UserID.
func (s *Store) SaveClusters(ctx context.Context, entry recommend.ClusterCacheEntry) error {
	if err := validID(string(entry.UserID)); err != nil {
		return err
	}
	return s.observe(ctx, "save_clusters", func() error {
		return s.db.Update(func(txn *badger.Txn) error {
			return s.set(txn, key(prefixClusters, string(entry.UserID)), entry)
		})
	})
}

// Components wires the store into every engine collaborator slot.
func (s *Store) Components() recommend.Components {
	return recommend.Components{
		Features: s,
		Social:   s,
		Feedback: s,
		Log:      s,
		Cache:    s,
	}
}
