// Tunegraph - Social and Content Song Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegraph

package cache

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/tunegraph/internal/recommend"
)

// ClusterStore is a process-local recommend.ClusterCache. Entries are kept
// for retention, which only bounds memory: the engine still decides
// freshness from the entry's ComputedAt.
type ClusterStore struct {
	entries *Cache[recommend.ClusterCacheEntry]
}

// NewClusterStore creates a store keeping at most capacity users.
func NewClusterStore(retention time.Duration, capacity int) *ClusterStore {
	return &ClusterStore{entries: New[recommend.ClusterCacheEntry](retention, capacity)}
}

// SetClock replaces the time source. Intended for tests.
func (s *ClusterStore) SetClock(now func() time.Time) {
	s.entries.SetClock(now)
}

// LoadClusters implements recommend.ClusterCache.
func (s *ClusterStore) LoadClusters(ctx context.Context, user recommend.UserID) (recommend.ClusterCacheEntry, bool, error) {
	if err := ctx.Err(); err != nil {
		return recommend.ClusterCacheEntry{}, false, err
	}
	entry, ok := s.entries.Get(string(user))
	return entry, ok, nil
}

// SaveClusters implements recommend.ClusterCache.
func (s *ClusterStore) SaveClusters(ctx context.Context, entry recommend.ClusterCacheEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if entry.UserID == "" {
		return errors.New("cluster entry has no user")
	}
	s.entries.Set(string(entry.UserID), entry)
	return nil
}

// Stats returns the underlying cache statistics.
func (s *ClusterStore) Stats() Stats {
	return s.entries.GetStats()
}

// Sweep drops entries past retention and returns how many were removed.
func (s *ClusterStore) Sweep() int {
	return s.entries.Cleanup()
}
