// Tunegraph - Social and Content Song Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegraph

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/tunegraph/internal/recommend"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaults_Valid(t *testing.T) {
	if err := Defaults().Validate(); err != nil {
		t.Fatalf("Defaults().Validate() = %v, want nil", err)
	}
}

func TestDefaults_MatchEngine(t *testing.T) {
	got := Defaults().EngineConfig()
	want := recommend.DefaultConfig()

	if got.Limits != want.Limits {
		t.Errorf("Limits = %+v, want %+v", got.Limits, want.Limits)
	}
	if got.Fusion != want.Fusion {
		t.Errorf("Fusion = %+v, want %+v", got.Fusion, want.Fusion)
	}
	if got.Diversity != want.Diversity {
		t.Errorf("Diversity = %+v, want %+v", got.Diversity, want.Diversity)
	}
	if got.Cache != want.Cache {
		t.Errorf("Cache = %+v, want %+v", got.Cache, want.Cache)
	}
}

func TestLoadFile_Layers(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
storage:
  badger:
    path: /tmp/tunegraph-test
  cluster_cache: memory
recommend:
  max_limit: 50
  mmr_lambda: 0.6
  cluster_cache_ttl: 12h
`)
	t.Setenv("TUNEGRAPH_HTTP_PORT", "9100")
	t.Setenv("TUNEGRAPH_WORKERS", "8")
	t.Setenv("TUNEGRAPH_LOG_LEVEL", "debug")
	t.Setenv("TUNEGRAPH_UNRELATED", "ignored")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"env overrides file", cfg.Server.Port, 9100},
		{"file over default", cfg.Recommend.MaxLimit, 50},
		{"file float", cfg.Recommend.MMRLambda, 0.6},
		{"file duration", cfg.Recommend.ClusterCacheTTL, 12 * time.Hour},
		{"nested file", cfg.Storage.Badger.Path, "/tmp/tunegraph-test"},
		{"cluster cache", cfg.Storage.ClusterCache, ClusterCacheMemory},
		{"env only", cfg.Recommend.Workers, 8},
		{"env string", cfg.Logging.Level, "debug"},
		{"default kept", cfg.Recommend.DefaultLimit, 20},
		{"default section", cfg.Server.Host, "0.0.0.0"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, tt.got, tt.want)
		}
	}

	engine := cfg.EngineConfig()
	if engine.Limits.MaxLimit != 50 || engine.Limits.Workers != 8 {
		t.Errorf("EngineConfig limits = %+v, want max 50 and 8 workers", engine.Limits)
	}
}

func TestLoadFile_NoFile(t *testing.T) {
	t.Setenv("TUNEGRAPH_DATA_IN_MEMORY", "true")
	t.Setenv("TUNEGRAPH_BREAKER_TIMEOUT", "45s")

	cfg, err := LoadFile("")
	if err != nil {
		t.Fatalf("LoadFile(\"\") error = %v", err)
	}
	if !cfg.Storage.Badger.InMemory {
		t.Error("Storage.Badger.InMemory = false, want true")
	}
	if cfg.Breaker.Timeout != 45*time.Second {
		t.Errorf("Breaker.Timeout = %v, want 45s", cfg.Breaker.Timeout)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"bad port", "server:\n  port: 0\n", "port"},
		{"bad cache backend", "storage:\n  cluster_cache: disk\n", "cluster_cache"},
		{"bad lambda", "recommend:\n  mmr_lambda: 1.5\n", "mmr_lambda"},
		{"bad limits", "recommend:\n  default_limit: 50\n  max_limit: 10\n", "max_limit"},
		{"bad log level", "logging:\n  level: chatty\n", "logging"},
		{"bad yaml", "server: [\n", "config file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFile(writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("LoadFile() error = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("LoadFile() error = %q, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestValidate_Sections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"redis without addr", func(c *Config) {
			c.Storage.ClusterCache = ClusterCacheRedis
			c.Storage.Redis.Addr = ""
		}},
		{"memory cache without capacity", func(c *Config) {
			c.Storage.ClusterCache = ClusterCacheMemory
			c.Cache.Capacity = 0
		}},
		{"breaker ratio", func(c *Config) { c.Breaker.FailureRatio = 2 }},
		{"tracing exporter", func(c *Config) {
			c.Tracing.Enabled = true
			c.Tracing.Exporter = "zipkin"
		}},
		{"storage path", func(c *Config) { c.Storage.Badger.Path = "" }},
		{"rate window", func(c *Config) { c.Server.RateLimitWindow = 0 }},
		{"supervisor", func(c *Config) { c.Supervisor.FailureBackoff = -time.Second }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestFindConfigFile_EnvVar(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9000\n")
	t.Setenv(ConfigPathEnvVar, path)
	if got := findConfigFile(); got != path {
		t.Errorf("findConfigFile() = %q, want %q", got, path)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"TUNEGRAPH_HTTP_PORT", "server.port"},
		{"TUNEGRAPH_REDIS_ADDR", "storage.redis.addr"},
		{"TUNEGRAPH_MAX_COLLABORATIVE", "recommend.max_collaborative_candidates"},
		{"TUNEGRAPH_NOPE", ""},
	}
	for _, tt := range tests {
		if got := envTransformFunc(tt.in); got != tt.want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestServerAddr(t *testing.T) {
	s := ServerConfig{Host: "127.0.0.1", Port: 8420}
	if got := s.Addr(); got != "127.0.0.1:8420" {
		t.Errorf("Addr() = %q, want 127.0.0.1:8420", got)
	}
}
