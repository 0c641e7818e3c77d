// Tunegraph - Social and Content Song Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegraph

package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/redis/go-redis/v9"

	"github.com/tomtom215/tunegraph/internal/metrics"
	"github.com/tomtom215/tunegraph/internal/recommend"
	"github.com/tomtom215/tunegraph/internal/tracing"
)

const backendRedis = "redis"

// RedisConfig configures the shared cluster cache.
type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`

	// KeyPrefix namespaces cache keys. Default: "tunegraph:clusters:".
	KeyPrefix string `koanf:"key_prefix"`

	// Retention is the Redis-side expiry of an entry. It only bounds
	// memory; freshness is still decided when the entry is read, so it
	// should exceed the engine's cache TTL. Default: 48h.
	Retention time.Duration `koanf:"retention"`
}

// RedisClusterCache stores cluster analyses in Redis so replicas share them.
type RedisClusterCache struct {
	client    redis.UniversalClient
	keyPrefix string
	retention time.Duration
	enc       cbor.EncMode
}

// NewRedisClient builds a client from cfg.
func NewRedisClient(cfg RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// NewRedisClusterCache creates a cache on an existing client.
func NewRedisClusterCache(client redis.UniversalClient, cfg RedisConfig) (*RedisClusterCache, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "tunegraph:clusters:"
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 48 * time.Hour
	}

	enc, err := cbor.EncOptions{Sort: cbor.SortCanonical, Time: cbor.TimeRFC3339Nano}.EncMode()
	if err != nil {
		return nil, fmt.Errorf("cbor encoder: %w", err)
	}

	return &RedisClusterCache{
		client:    client,
		keyPrefix: cfg.KeyPrefix,
		retention: cfg.Retention,
		enc:       enc,
	}, nil
}

// Ping checks connectivity.
func (c *RedisClusterCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// LoadClusters returns the cached analysis for user, if any.
func (c *RedisClusterCache) LoadClusters(ctx context.Context, user recommend.UserID) (entry recommend.ClusterCacheEntry, found bool, err error) {
	start := time.Now()
	ctx, end := tracing.StartStoreSpan(ctx, backendRedis, "load_clusters")
	defer func() {
		end(err)
		metrics.RecordStoreOperation(backendRedis, "load_clusters", time.Since(start), err)
	}()

	data, err := c.client.Get(ctx, c.key(user)).Bytes()
	if errors.Is(err, redis.Nil) {
		return recommend.ClusterCacheEntry{}, false, nil
	}
	if err != nil {
		return recommend.ClusterCacheEntry{}, false, fmt.Errorf("redis get: %w", err)
	}
	if err := cbor.Unmarshal(data, &entry); err != nil {
		return recommend.ClusterCacheEntry{}, false, fmt.Errorf("decode cluster entry: %w", err)
	}
	return entry, true, nil
}

// SaveClusters writes the analysis, replacing any previous entry.
func (c *RedisClusterCache) SaveClusters(ctx context.Context, entry recommend.ClusterCacheEntry) (err error) {
	start := time.Now()
	ctx, end := tracing.StartStoreSpan(ctx, backendRedis, "save_clusters")
	defer func() {
		end(err)
		metrics.RecordStoreOperation(backendRedis, "save_clusters", time.Since(start), err)
	}()

	if entry.UserID == "" {
		return fmt.Errorf("%w: empty user", ErrInvalidID)
	}
	data, err := c.enc.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode cluster entry: %w", err)
	}
	if err := c.client.Set(ctx, c.key(entry.UserID), data, c.retention).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (c *RedisClusterCache) key(user recommend.UserID) string {
	return c.keyPrefix + string(user)
}
