// Tunegraph - Social and Content Song Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegraph

package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/tunegraph/internal/config"
	"github.com/tomtom215/tunegraph/internal/recommend"
	"github.com/tomtom215/tunegraph/internal/recommend/storage"
)

func testConfig(clusterCache string) *config.Config {
	cfg := config.Defaults()
	cfg.Storage.Badger.InMemory = true
	cfg.Storage.ClusterCache = clusterCache
	cfg.Tracing.Enabled = false
	cfg.Server.RateLimitRequests = 1000
	return cfg
}

func seed(t *testing.T, store *storage.Store) {
	t.Helper()
	ctx := context.Background()
	songs := map[recommend.SongID][]float64{
		"a": {900, 50},
		"b": {880, 70},
		"c": {860, 90},
		"d": {60, 940},
	}
	for id, desc := range songs {
		rec := storage.SongRecord{
			Metadata: recommend.SongMetadata{ID: id, Title: "song " + string(id), Artists: []string{"x"}},
			Features: recommend.AppendScalars(desc, recommend.ScalarFeatures{Tempo: 120, Energy: 0.5}),
			Lyrics:   recommend.Vector{0.5, 0.5},
		}
		if err := store.PutSong(ctx, rec); err != nil {
			t.Fatalf("PutSong(%s) error = %v", id, err)
		}
	}
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	likes := map[recommend.UserID][]recommend.SongID{
		"alice": {"a", "b"},
		"bob":   {"a", "c", "d"},
	}
	for user, ids := range likes {
		for i, id := range ids {
			if err := store.AddLikedSong(ctx, user, id, base.Add(time.Duration(i)*time.Second)); err != nil {
				t.Fatalf("AddLikedSong() error = %v", err)
			}
		}
	}
	if err := store.AddFriendship(ctx, "alice", "bob"); err != nil {
		t.Fatalf("AddFriendship() error = %v", err)
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

func do(t *testing.T, h http.Handler, method, path, body string) (int, envelope) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	return rec.Code, env
}

func TestNewApp_EndToEnd(t *testing.T) {
	for _, backend := range []string{config.ClusterCacheBadger, config.ClusterCacheMemory} {
		t.Run(backend, func(t *testing.T) {
			a, err := newApp(context.Background(), testConfig(backend))
			if err != nil {
				t.Fatalf("newApp() error = %v", err)
			}
			t.Cleanup(a.Close)
			if backend == config.ClusterCacheMemory && a.clusterStore == nil {
				t.Error("memory cluster cache not built")
			}
			seed(t, a.store)

			code, env := do(t, a.handler, http.MethodGet, "/api/v1/users/alice/recommendations?limit=5", "")
			if code != http.StatusOK || !env.Success {
				t.Fatalf("recommendations status = %d success = %v, want 200 true", code, env.Success)
			}
			var resp recommend.Response
			if err := json.Unmarshal(env.Data, &resp); err != nil {
				t.Fatalf("decode recommendations: %v", err)
			}
			if len(resp.Items) == 0 {
				t.Fatal("no recommendations for alice")
			}
			for _, item := range resp.Items {
				if item.SongID == "a" || item.SongID == "b" {
					t.Errorf("recommended already liked song %s", item.SongID)
				}
			}

			body := `{"song_id":"` + string(resp.Items[0].SongID) + `","liked":true,"recommendation_id":"` + resp.Items[0].RecommendationID + `"}`
			if code, _ := do(t, a.handler, http.MethodPost, "/api/v1/users/alice/feedback", body); code != http.StatusOK {
				t.Errorf("feedback status = %d, want 200", code)
			}

			if code, _ := do(t, a.handler, http.MethodGet, "/api/v1/users/alice/clusters", ""); code != http.StatusOK {
				t.Errorf("clusters status = %d, want 200", code)
			}
			if code, _ := do(t, a.handler, http.MethodGet, "/healthz", ""); code != http.StatusOK {
				t.Errorf("healthz status = %d, want 200", code)
			}
		})
	}
}

func TestNewApp_BreakerDisabled(t *testing.T) {
	cfg := testConfig(config.ClusterCacheBadger)
	cfg.Breaker.Enabled = false
	a, err := newApp(context.Background(), cfg)
	if err != nil {
		t.Fatalf("newApp() error = %v", err)
	}
	defer a.Close()
	if code, _ := do(t, a.handler, http.MethodGet, "/api/v1/users/nobody/recommendations", ""); code != http.StatusOK {
		t.Errorf("cold-start status = %d, want 200", code)
	}
}

func TestNewApp_InvalidEngineConfig(t *testing.T) {
	cfg := testConfig(config.ClusterCacheBadger)
	cfg.Recommend.MMRLambda = 2
	if _, err := newApp(context.Background(), cfg); err == nil {
		t.Error("newApp() with lambda 2 succeeded, want error")
	}
}
