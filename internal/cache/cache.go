// Tunegraph - Social and Content Song Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegraph

package cache

import (
	"sync"
	"time"
)

// Entry represents a cached item with expiration
type Entry[V any] struct {
	Data      V
	ExpiresAt time.Time
}

// Stats tracks cache performance metrics
type Stats struct {
	Hits        int64
	Misses      int64
	Evictions   int64
	TotalKeys   int64
	LastCleanup time.Time
}

// Cache is a thread-safe in-memory cache with TTL support and an optional
// capacity bound. Expiry is checked lazily on Get; Cleanup sweeps the rest.
type Cache[V any] struct {
	mu       sync.Mutex
	entries  map[string]Entry[V]
	ttl      time.Duration
	capacity int
	now      func() time.Time
	stats    Stats
}

// New creates a cache whose entries live for ttl. capacity <= 0 means
// unbounded.
//
// Example:
//
//	c := cache.New[*Report](5*time.Minute, 1000)
//	c.Set("key", report)
//	if r, ok := c.Get("key"); ok {
//	    // use r
//	}
func New[V any](ttl time.Duration, capacity int) *Cache[V] {
	return &Cache[V]{
		entries:  make(map[string]Entry[V]),
		ttl:      ttl,
		capacity: capacity,
		now:      time.Now,
	}
}

// SetClock replaces the time source. Intended for tests.
func (c *Cache[V]) SetClock(now func() time.Time) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}

// Get returns the value for key if present and not expired. Expired
// entries are removed and counted as misses.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	entry, exists := c.entries[key]
	if !exists {
		c.stats.Misses++
		return zero, false
	}

	if !c.now().Before(entry.ExpiresAt) {
		delete(c.entries, key)
		c.stats.Misses++
		c.stats.Evictions++
		c.stats.TotalKeys = int64(len(c.entries))
		return zero, false
	}

	c.stats.Hits++
	return entry.Data, true
}

// Set stores value with the default TTL.
func (c *Cache[V]) Set(key string, value V) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores value with a custom TTL. When the cache is full, expired
// entries are swept first and then the entry closest to expiry is evicted.
func (c *Cache[V]) SetWithTTL(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if _, exists := c.entries[key]; !exists && c.capacity > 0 && len(c.entries) >= c.capacity {
		c.sweepLocked(now)
		if len(c.entries) >= c.capacity {
			c.evictOldestLocked()
		}
	}

	c.entries[key] = Entry[V]{Data: value, ExpiresAt: now.Add(ttl)}
	c.stats.TotalKeys = int64(len(c.entries))
}

// Delete removes key.
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		delete(c.entries, key)
		c.stats.Evictions++
		c.stats.TotalKeys = int64(len(c.entries))
	}
}

// Clear removes all entries.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats.Evictions += int64(len(c.entries))
	c.entries = make(map[string]Entry[V])
	c.stats.TotalKeys = 0
}

// Len returns the number of stored entries, including expired ones not
// yet swept.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Cleanup removes all expired entries and returns how many were removed.
func (c *Cache[V]) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sweepLocked(c.now())
}

// GetStats returns a snapshot of cache statistics.
func (c *Cache[V]) GetStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// HitRate returns the cache hit rate as a percentage
func (c *Cache[V]) HitRate() float64 {
	stats := c.GetStats()
	total := stats.Hits + stats.Misses
	if total == 0 {
		return 0.0
	}
	return float64(stats.Hits) / float64(total) * 100.0
}

func (c *Cache[V]) sweepLocked(now time.Time) int {
	removed := 0
	for key, entry := range c.entries {
		if !now.Before(entry.ExpiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	c.stats.Evictions += int64(removed)
	c.stats.TotalKeys = int64(len(c.entries))
	c.stats.LastCleanup = now
	return removed
}

func (c *Cache[V]) evictOldestLocked() {
	var oldestKey string
	var oldest time.Time
	first := true
	for key, entry := range c.entries {
		if first || entry.ExpiresAt.Before(oldest) || (entry.ExpiresAt.Equal(oldest) && key < oldestKey) {
			oldestKey, oldest, first = key, entry.ExpiresAt, false
		}
	}
	if !first {
		delete(c.entries, oldestKey)
		c.stats.Evictions++
	}
}
