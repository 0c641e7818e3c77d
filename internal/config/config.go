// Tunegraph - Social and Content Song Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegraph

package config

import (
	"net"
	"strconv"
	"time"

	"github.com/tomtom215/tunegraph/internal/recommend/storage"
	"github.com/tomtom215/tunegraph/internal/tracing"
)

// Cluster cache backends.
const (
	ClusterCacheBadger = "badger"
	ClusterCacheMemory = "memory"
	ClusterCacheRedis  = "redis"
)

// Config is the complete server configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Logging    LoggingConfig    `koanf:"logging"`
	Storage    StorageConfig    `koanf:"storage"`
	Cache      CacheConfig      `koanf:"cache"`
	Breaker    BreakerConfig    `koanf:"breaker"`
	Tracing    tracing.Config   `koanf:"tracing"`
	Recommend  RecommendConfig  `koanf:"recommend"`
	Supervisor SupervisorConfig `koanf:"supervisor"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// RateLimitRequests per RateLimitWindow per client IP. Zero disables.
	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`

	// CORSOrigins enables CORS on /api/v1 for the listed origins.
	CORSOrigins []string `koanf:"cors_origins"`
}

// LoggingConfig mirrors logging.Config without the output writer.
type LoggingConfig struct {
	Level     string `koanf:"level"`
	Format    string `koanf:"format"`
	Caller    bool   `koanf:"caller"`
	Timestamp bool   `koanf:"timestamp"`
}

// StorageConfig selects where collaborator data lives.
type StorageConfig struct {
	Badger storage.Config `koanf:"badger"`

	// GCInterval is how often the value-log GC service runs.
	GCInterval time.Duration `koanf:"gc_interval"`

	// ClusterCache is badger, memory or redis.
	ClusterCache string `koanf:"cluster_cache"`

	Redis storage.RedisConfig `koanf:"redis"`
}

// CacheConfig sizes the in-process cluster cache used when
// storage.cluster_cache is memory.
type CacheConfig struct {
	Capacity      int           `koanf:"capacity"`
	Retention     time.Duration `koanf:"retention"`
	SweepInterval time.Duration `koanf:"sweep_interval"`
}

// BreakerConfig wraps storage.BreakerConfig so it can sit in its own section.
type BreakerConfig = storage.BreakerConfig

// RecommendConfig carries the engine tunables an operator is expected to
// touch. Everything else keeps the engine defaults.
type RecommendConfig struct {
	DefaultLimit               int           `koanf:"default_limit"`
	MaxLimit                   int           `koanf:"max_limit"`
	MaxCollaborativeCandidates int           `koanf:"max_collaborative_candidates"`
	Workers                    int           `koanf:"workers"`
	ClusteringTimeout          time.Duration `koanf:"clustering_timeout"`
	SearchTimeout              time.Duration `koanf:"search_timeout"`
	ProjectionTimeout          time.Duration `koanf:"projection_timeout"`
	ClusterCacheTTL            time.Duration `koanf:"cluster_cache_ttl"`

	CollaborativeWeight float64 `koanf:"collaborative_weight"`
	ContentWeight       float64 `koanf:"content_weight"`
	MMRLambda           float64 `koanf:"mmr_lambda"`
	FriendDiversity     bool    `koanf:"friend_diversity"`

	// FeatureDim and LyricsDim declare the vector space; zero infers it
	// from the catalog.
	FeatureDim int `koanf:"feature_dim"`
	LyricsDim  int `koanf:"lyrics_dim"`

	IndexM        int `koanf:"index_m"`
	IndexEfSearch int `koanf:"index_ef_search"`
}

// SupervisorConfig holds suture failure handling parameters.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold"`
	FailureDecay     float64       `koanf:"failure_decay"`
	FailureBackoff   time.Duration `koanf:"failure_backoff"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout"`
}

// Addr returns host:port for the HTTP listener.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}
