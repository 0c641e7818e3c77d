// Tunegraph - Social and Content Song Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegraph

package config

import (
	"errors"
	"fmt"

	"github.com/tomtom215/tunegraph/internal/logging"
	"github.com/tomtom215/tunegraph/internal/recommend"
	"github.com/tomtom215/tunegraph/internal/tracing"
)

// Validate checks every section. The recommend section is checked by
// building the engine configuration it maps to.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.LoggingConfig().Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateBreaker(); err != nil {
		return err
	}
	if err := c.validateTracing(); err != nil {
		return err
	}
	if err := c.EngineConfig().Validate(); err != nil {
		return fmt.Errorf("recommend: %w", err)
	}
	if c.Supervisor.FailureThreshold < 0 || c.Supervisor.FailureDecay < 0 ||
		c.Supervisor.FailureBackoff < 0 || c.Supervisor.ShutdownTimeout < 0 {
		return errors.New("supervisor: values must be non-negative")
	}
	return nil
}

func (c *Config) validateServer() error {
	s := c.Server
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("server: port must be between 1 and 65535, got %d", s.Port)
	}
	if s.ReadTimeout <= 0 || s.WriteTimeout <= 0 {
		return errors.New("server: read and write timeouts must be positive")
	}
	if s.RateLimitRequests < 0 {
		return fmt.Errorf("server: rate_limit_requests must be non-negative, got %d", s.RateLimitRequests)
	}
	if s.RateLimitRequests > 0 && s.RateLimitWindow <= 0 {
		return errors.New("server: rate_limit_window must be positive when rate limiting is enabled")
	}
	return nil
}

func (c *Config) validateStorage() error {
	s := c.Storage
	if err := s.Badger.Validate(); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if s.GCInterval < 0 {
		return fmt.Errorf("storage: gc_interval must be non-negative, got %v", s.GCInterval)
	}

	switch s.ClusterCache {
	case ClusterCacheBadger:
	case ClusterCacheMemory:
		if c.Cache.Capacity < 1 {
			return fmt.Errorf("cache: capacity must be at least 1, got %d", c.Cache.Capacity)
		}
		if c.Cache.Retention <= 0 || c.Cache.SweepInterval <= 0 {
			return errors.New("cache: retention and sweep_interval must be positive")
		}
	case ClusterCacheRedis:
		if s.Redis.Addr == "" {
			return errors.New("storage: redis.addr is required for the redis cluster cache")
		}
	default:
		return fmt.Errorf("storage: unknown cluster_cache %q (want badger, memory or redis)", s.ClusterCache)
	}
	return nil
}

func (c *Config) validateBreaker() error {
	b := c.Breaker
	if !b.Enabled {
		return nil
	}
	if b.FailureRatio <= 0 || b.FailureRatio > 1 {
		return fmt.Errorf("breaker: failure_ratio must be in (0, 1], got %f", b.FailureRatio)
	}
	if b.Timeout <= 0 {
		return errors.New("breaker: timeout must be positive")
	}
	return nil
}

func (c *Config) validateTracing() error {
	t := c.Tracing
	if !t.Enabled {
		return nil
	}
	switch t.Exporter {
	case tracing.ExporterOTLPHTTP, tracing.ExporterOTLPGRPC:
	default:
		return fmt.Errorf("tracing: unknown exporter %q", t.Exporter)
	}
	if t.SamplingRate < 0 || t.SamplingRate > 1 {
		return fmt.Errorf("tracing: sampling_rate must be between 0 and 1, got %f", t.SamplingRate)
	}
	return nil
}

// LoggingConfig converts the logging section for logging.Init.
func (c *Config) LoggingConfig() logging.Config {
	return logging.Config{
		Level:     c.Logging.Level,
		Format:    c.Logging.Format,
		Caller:    c.Logging.Caller,
		Timestamp: c.Logging.Timestamp,
	}
}

// EngineConfig overlays the recommend section on the engine defaults.
func (c *Config) EngineConfig() *recommend.Config {
	r := c.Recommend
	cfg := recommend.DefaultConfig()

	cfg.Limits.DefaultLimit = r.DefaultLimit
	cfg.Limits.MaxLimit = r.MaxLimit
	cfg.Limits.MaxCollaborativeCandidates = r.MaxCollaborativeCandidates
	cfg.Limits.Workers = r.Workers
	cfg.Limits.ClusteringTimeout = r.ClusteringTimeout
	cfg.Limits.SearchTimeout = r.SearchTimeout
	cfg.Limits.ProjectionTimeout = r.ProjectionTimeout
	cfg.Cache.TTL = r.ClusterCacheTTL
	cfg.Fusion.CollaborativeWeight = r.CollaborativeWeight
	cfg.Fusion.ContentWeight = r.ContentWeight
	cfg.Diversity.MMRLambda = r.MMRLambda
	cfg.Diversity.FriendDiversity = r.FriendDiversity
	cfg.Space.FeatureDim = r.FeatureDim
	cfg.Space.LyricsDim = r.LyricsDim
	cfg.Retrieval.IndexM = r.IndexM
	cfg.Retrieval.IndexEfSearch = r.IndexEfSearch

	return cfg
}
