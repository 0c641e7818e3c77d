// Tunegraph - Social and Content Song Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegraph

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/tomtom215/tunegraph/internal/api"
	"github.com/tomtom215/tunegraph/internal/cache"
	"github.com/tomtom215/tunegraph/internal/config"
	"github.com/tomtom215/tunegraph/internal/logging"
	"github.com/tomtom215/tunegraph/internal/recommend"
	"github.com/tomtom215/tunegraph/internal/recommend/reranking"
	"github.com/tomtom215/tunegraph/internal/recommend/retrieval"
	"github.com/tomtom215/tunegraph/internal/recommend/storage"
)

// app holds everything built from configuration that needs closing.
type app struct {
	store        *storage.Store
	redis        *redis.Client
	clusterStore *cache.ClusterStore
	engine       *recommend.Engine
	handler      http.Handler
}

// newApp opens storage, selects the cluster cache backend and builds the
// engine and HTTP handler.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	store, err := storage.Open(&cfg.Storage.Badger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	a := &app{store: store}

	health := map[string]api.Pinger{"badger": store}

	var clusters recommend.ClusterCache
	switch cfg.Storage.ClusterCache {
	case config.ClusterCacheRedis:
		a.redis = storage.NewRedisClient(cfg.Storage.Redis)
		rc, err := storage.NewRedisClusterCache(a.redis, cfg.Storage.Redis)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("redis cluster cache: %w", err)
		}
		if err := rc.Ping(ctx); err != nil {
			logging.Warn().Err(err).Str("addr", cfg.Storage.Redis.Addr).Msg("redis not reachable at startup, cluster analytics will recompute until it is")
		}
		clusters = rc
		health["redis"] = rc
	case config.ClusterCacheMemory:
		a.clusterStore = cache.NewClusterStore(cfg.Cache.Retention, cfg.Cache.Capacity)
		clusters = a.clusterStore
	default:
		clusters = store
	}

	components := recommend.Components{
		Features: store,
		Social:   store,
		Feedback: store,
		Log:      store,
		Cache:    clusters,
	}
	if cfg.Breaker.Enabled {
		guarded := storage.NewGuarded("badger", store, cfg.Breaker)
		components.Features = guarded
		components.Social = guarded
		components.Feedback = guarded
		components.Log = guarded
		components.Cache = storage.NewGuardedClusterCache("cluster-cache", clusters, cfg.Breaker)
	}

	engineCfg := cfg.EngineConfig()
	logger := logging.Logger()
	components.Retriever = retrieval.New(engineCfg.Retrieval, logger)
	components.Reranker = reranking.NewMMR(engineCfg.Diversity)

	a.engine, err = recommend.NewEngine(engineCfg, components, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create engine: %w", err)
	}

	a.handler = api.NewRouter(api.NewHandler(a.engine), api.NewHealth(health), api.RouterConfig{
		RateLimitRequests: cfg.Server.RateLimitRequests,
		RateLimitWindow:   cfg.Server.RateLimitWindow,
		RequestTimeout:    cfg.Server.WriteTimeout,
		Tracing:           cfg.Tracing.Enabled,
		CORSOrigins:       cfg.Server.CORSOrigins,
	})
	return a, nil
}

// Close releases the Redis client and the store.
func (a *app) Close() {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	if err := errors.Join(errs...); err != nil {
		logging.Error().Err(err).Msg("error closing storage")
	}
}
