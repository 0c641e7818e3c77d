// Tunegraph - Social and Content Song Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegraph

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/tunegraph/internal/recommend"
	"github.com/tomtom215/tunegraph/internal/recommend/storage"
	"github.com/tomtom215/tunegraph/internal/tracing"
)

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/tunegraph/config.yaml",
	"/etc/tunegraph/config.yml",
}

const (
	// ConfigPathEnvVar overrides the config file location.
	ConfigPathEnvVar = "CONFIG_PATH"

	// EnvPrefix is required on every configuration environment variable.
	EnvPrefix = "TUNEGRAPH_"
)

// Defaults returns the configuration used before any file or environment
// layer is applied.
func Defaults() *Config {
	engine := recommend.DefaultConfig()
	return &Config{
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              8420,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       2 * time.Minute,
			ShutdownTimeout:   15 * time.Second,
			RateLimitRequests: 120,
			RateLimitWindow:   time.Minute,
		},
		Logging: LoggingConfig{
			Level:     "info",
			Format:    "json",
			Timestamp: true,
		},
		Storage: StorageConfig{
			Badger: storage.Config{
				Path:        "/data/tunegraph",
				Compression: true,
				GCRatio:     0.5,
			},
			GCInterval:   10 * time.Minute,
			ClusterCache: ClusterCacheBadger,
			Redis: storage.RedisConfig{
				Addr:      "127.0.0.1:6379",
				KeyPrefix: "tunegraph:clusters:",
				Retention: 48 * time.Hour,
			},
		},
		Cache: CacheConfig{
			Capacity:      10000,
			Retention:     48 * time.Hour,
			SweepInterval: 5 * time.Minute,
		},
		Breaker: storage.DefaultBreakerConfig(),
		Tracing: tracing.Config{
			ServiceName:  "tunegraph",
			Environment:  "development",
			Exporter:     tracing.ExporterOTLPHTTP,
			Endpoint:     "localhost:4318",
			Insecure:     true,
			SamplingRate: 0.1,
		},
		Recommend: RecommendConfig{
			DefaultLimit:               engine.Limits.DefaultLimit,
			MaxLimit:                   engine.Limits.MaxLimit,
			MaxCollaborativeCandidates: engine.Limits.MaxCollaborativeCandidates,
			Workers:                    engine.Limits.Workers,
			ClusteringTimeout:          engine.Limits.ClusteringTimeout,
			SearchTimeout:              engine.Limits.SearchTimeout,
			ProjectionTimeout:          engine.Limits.ProjectionTimeout,
			ClusterCacheTTL:            engine.Cache.TTL,
			CollaborativeWeight:        engine.Fusion.CollaborativeWeight,
			ContentWeight:              engine.Fusion.ContentWeight,
			MMRLambda:                  engine.Diversity.MMRLambda,
			FriendDiversity:            engine.Diversity.FriendDiversity,
			FeatureDim:                 engine.Space.FeatureDim,
			LyricsDim:                  engine.Space.LyricsDim,
			IndexM:                     engine.Retrieval.IndexM,
			IndexEfSearch:              engine.Retrieval.IndexEfSearch,
		},
		Supervisor: SupervisorConfig{
			FailureThreshold: 5,
			FailureDecay:     30,
			FailureBackoff:   15 * time.Second,
			ShutdownTimeout:  10 * time.Second,
		},
	}
}

// Load builds the configuration from defaults, then the YAML file found by
// findConfigFile, then TUNEGRAPH_* environment variables, and validates it.
func Load() (*Config, error) {
	return LoadFile(findConfigFile())
}

// LoadFile is Load with an explicit config file. An empty path skips the
// file layer.
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// envMappings maps TUNEGRAPH_* variables (prefix stripped, lower case) to
// koanf paths. Anything else is ignored.
var envMappings = map[string]string{
	"http_host":               "server.host",
	"http_port":               "server.port",
	"http_read_timeout":       "server.read_timeout",
	"http_write_timeout":      "server.write_timeout",
	"http_idle_timeout":       "server.idle_timeout",
	"http_shutdown_timeout":   "server.shutdown_timeout",
	"rate_limit_requests":     "server.rate_limit_requests",
	"rate_limit_window":       "server.rate_limit_window",
	"cors_origins":            "server.cors_origins",
	"log_level":               "logging.level",
	"log_format":              "logging.format",
	"log_caller":              "logging.caller",
	"log_timestamp":           "logging.timestamp",
	"data_path":               "storage.badger.path",
	"data_in_memory":          "storage.badger.in_memory",
	"data_sync_writes":        "storage.badger.sync_writes",
	"data_compression":        "storage.badger.compression",
	"data_gc_ratio":           "storage.badger.gc_ratio",
	"data_gc_interval":        "storage.gc_interval",
	"cluster_cache":           "storage.cluster_cache",
	"redis_addr":              "storage.redis.addr",
	"redis_password":          "storage.redis.password",
	"redis_db":                "storage.redis.db",
	"redis_key_prefix":        "storage.redis.key_prefix",
	"redis_retention":         "storage.redis.retention",
	"cache_capacity":          "cache.capacity",
	"cache_retention":         "cache.retention",
	"cache_sweep_interval":    "cache.sweep_interval",
	"breaker_enabled":         "breaker.enabled",
	"breaker_max_requests":    "breaker.max_requests",
	"breaker_interval":        "breaker.interval",
	"breaker_timeout":         "breaker.timeout",
	"breaker_min_requests":    "breaker.min_requests",
	"breaker_failure_ratio":   "breaker.failure_ratio",
	"tracing_enabled":         "tracing.enabled",
	"tracing_service_name":    "tracing.service_name",
	"tracing_service_version": "tracing.service_version",
	"tracing_environment":     "tracing.environment",
	"tracing_exporter":        "tracing.exporter",
	"tracing_endpoint":        "tracing.endpoint",
	"tracing_insecure":        "tracing.insecure",
	"tracing_sampling_rate":   "tracing.sampling_rate",
	"default_limit":           "recommend.default_limit",
	"max_limit":               "recommend.max_limit",
	"max_collaborative":       "recommend.max_collaborative_candidates",
	"workers":                 "recommend.workers",
	"clustering_timeout":      "recommend.clustering_timeout",
	"search_timeout":          "recommend.search_timeout",
	"projection_timeout":      "recommend.projection_timeout",
	"cluster_cache_ttl":       "recommend.cluster_cache_ttl",
	"collaborative_weight":    "recommend.collaborative_weight",
	"content_weight":          "recommend.content_weight",
	"mmr_lambda":              "recommend.mmr_lambda",
	"friend_diversity":        "recommend.friend_diversity",
	"feature_dim":             "recommend.feature_dim",
	"lyrics_dim":              "recommend.lyrics_dim",
	"index_m":                 "recommend.index_m",
	"index_ef_search":         "recommend.index_ef_search",
	"supervisor_threshold":    "supervisor.failure_threshold",
	"supervisor_decay":        "supervisor.failure_decay",
	"supervisor_backoff":      "supervisor.failure_backoff",
	"supervisor_stop_timeout": "supervisor.shutdown_timeout",
}

func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	return envMappings[key]
}
