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

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/tunegraph/internal/logging"
	"github.com/tomtom215/tunegraph/internal/metrics"
	"github.com/tomtom215/tunegraph/internal/recommend"
)

// BreakerConfig configures a circuit breaker.
type BreakerConfig struct {
	Enabled bool `koanf:"enabled"`

	// MaxRequests is the number of trial requests allowed while half-open.
	MaxRequests uint32 `koanf:"max_requests"`

	// Interval resets the failure counts while closed.
	Interval time.Duration `koanf:"interval"`

	// Timeout is how long the breaker stays open before trying again.
	Timeout time.Duration `koanf:"timeout"`

	// MinRequests is the sample size needed before the breaker may trip.
	MinRequests uint32 `koanf:"min_requests"`

	// FailureRatio trips the breaker once reached.
	FailureRatio float64 `koanf:"failure_ratio"`
}

// DefaultBreakerConfig opens after a 60% failure rate over at least 10
// requests and probes again after 30 seconds.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Enabled:      true,
		MaxRequests:  3,
		Interval:     time.Minute,
		Timeout:      30 * time.Second,
		MinRequests:  10,
		FailureRatio: 0.6,
	}
}

// Breaker is a named circuit breaker that reports to metrics.
type Breaker struct {
	cb   *gobreaker.CircuitBreaker[any]
	name string
}

// NewBreaker creates a breaker. Lookups that miss (ErrNotFound) and
// cancelled requests do not count as failures.
func NewBreaker(name string, cfg BreakerConfig) *Breaker {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= cfg.FailureRatio
			if shouldTrip {
				logging.Warn().
					Str("breaker", name).
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("opening circuit")
			}
			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr, toStr := stateToString(from), stateToString(to)
			logging.Info().Str("breaker", name).Str("from", fromStr).Str("to", toStr).Msg("circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},

		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, ErrNotFound) ||
				errors.Is(err, context.Canceled)
		},
	})

	return &Breaker{cb: cb, name: name}
}

// State returns the breaker state as "closed", "half-open" or "open".
func (b *Breaker) State() string {
	return stateToString(b.cb.State())
}

// IsRejected reports whether err means a breaker refused the call.
func IsRejected(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func (b *Breaker) execute(fn func() (any, error)) (any, error) {
	result, err := b.cb.Execute(fn)
	if err != nil {
		if IsRejected(err) {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
			return nil, err
		}
		if errors.Is(err, ErrNotFound) {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
			return nil, err
		}
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
		return nil, err
	}
	metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
	return result, nil
}

// guard runs fn through b and restores its static result type.
func guard[T any](b *Breaker, fn func() (T, error)) (T, error) {
	var zero T
	result, err := b.execute(func() (any, error) { return fn() })
	if err != nil {
		return zero, err
	}
	if result == nil {
		return zero, nil
	}
	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

func guardErr(b *Breaker, fn func() error) error {
	_, err := b.execute(func() (any, error) { return nil, fn() })
	return err
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Backend is a store serving every required engine collaborator.
type Backend interface {
	recommend.FeatureStore
	recommend.SocialGraph
	recommend.FeedbackStore
	recommend.RecommendationLog
}

// Guarded wraps a Backend so every call goes through one breaker. While
// open, calls fail fast and the engine degrades the affected signals.
type Guarded struct {
	next    Backend
	breaker *Breaker
}

// NewGuarded wraps next with a breaker called name.
func NewGuarded(name string, next Backend, cfg BreakerConfig) *Guarded {
	return &Guarded{next: next, breaker: NewBreaker(name, cfg)}
}

// Breaker exposes the underlying breaker.
func (g *Guarded) Breaker() *Breaker { return g.breaker }

func (g *Guarded) SongIDs(ctx context.Context) ([]recommend.SongID, error) {
	return guard(g.breaker, func() ([]recommend.SongID, error) { return g.next.SongIDs(ctx) })
}

func (g *Guarded) FeatureVectors(ctx context.Context, ids []recommend.SongID) (map[recommend.SongID]recommend.Vector, error) {
	return guard(g.breaker, func() (map[recommend.SongID]recommend.Vector, error) {
		return g.next.FeatureVectors(ctx, ids)
	})
}

func (g *Guarded) LyricsEmbeddings(ctx context.Context, ids []recommend.SongID) (map[recommend.SongID]recommend.Vector, error) {
	return guard(g.breaker, func() (map[recommend.SongID]recommend.Vector, error) {
		return g.next.LyricsEmbeddings(ctx, ids)
	})
}

func (g *Guarded) SongDetails(ctx context.Context, ids []recommend.SongID) ([]recommend.SongMetadata, error) {
	return guard(g.breaker, func() ([]recommend.SongMetadata, error) { return g.next.SongDetails(ctx, ids) })
}

func (g *Guarded) LikedSongs(ctx context.Context, user recommend.UserID) ([]recommend.SongID, error) {
	return guard(g.breaker, func() ([]recommend.SongID, error) { return g.next.LikedSongs(ctx, user) })
}

func (g *Guarded) Friends(ctx context.Context, user recommend.UserID) ([]recommend.UserID, error) {
	return guard(g.breaker, func() ([]recommend.UserID, error) { return g.next.Friends(ctx, user) })
}

func (g *Guarded) AddLikedSong(ctx context.Context, user recommend.UserID, song recommend.SongID, at time.Time) error {
	return guardErr(g.breaker, func() error { return g.next.AddLikedSong(ctx, user, song, at) })
}

func (g *Guarded) Feedback(ctx context.Context, user recommend.UserID) (recommend.FeedbackMap, error) {
	return guard(g.breaker, func() (recommend.FeedbackMap, error) { return g.next.Feedback(ctx, user) })
}

func (g *Guarded) PutFeedback(ctx context.Context, fb recommend.Feedback) error {
	return guardErr(g.breaker, func() error { return g.next.PutFeedback(ctx, fb) })
}

func (g *Guarded) ReplaceRecommendations(ctx context.Context, user recommend.UserID, records []recommend.RecommendationRecord) error {
	return guardErr(g.breaker, func() error { return g.next.ReplaceRecommendations(ctx, user, records) })
}

func (g *Guarded) Recommendation(ctx context.Context, id string) (recommend.RecommendationRecord, error) {
	return guard(g.breaker, func() (recommend.RecommendationRecord, error) { return g.next.Recommendation(ctx, id) })
}

// GuardedClusterCache wraps a cluster cache with its own breaker, so a
// remote cache outage does not trip the main store breaker.
type GuardedClusterCache struct {
	next    recommend.ClusterCache
	breaker *Breaker
}

// NewGuardedClusterCache wraps next with a breaker called name.
func NewGuardedClusterCache(name string, next recommend.ClusterCache, cfg BreakerConfig) *GuardedClusterCache {
	return &GuardedClusterCache{next: next, breaker: NewBreaker(name, cfg)}
}

type loadedClusters struct {
	entry recommend.ClusterCacheEntry
	found bool
}

func (g *GuardedClusterCache) LoadClusters(ctx context.Context, user recommend.UserID) (recommend.ClusterCacheEntry, bool, error) {
	res, err := guard(g.breaker, func() (loadedClusters, error) {
		entry, found, err := g.next.LoadClusters(ctx, user)
		return loadedClusters{entry: entry, found: found}, err
	})
	return res.entry, res.found, err
}

func (g *GuardedClusterCache) SaveClusters(ctx context.Context, entry recommend.ClusterCacheEntry) error {
	return guardErr(g.breaker, func() error { return g.next.SaveClusters(ctx, entry) })
}
