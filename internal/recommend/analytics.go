// Tunegraph - Social and Content Song Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegraph

package recommend

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/tunegraph/internal/metrics"
	"github.com/tomtom215/tunegraph/internal/recommend/clustering"
	"github.com/tomtom215/tunegraph/internal/recommend/projection"
	"github.com/tomtom215/tunegraph/internal/tracing"
)

// Cluster cache outcomes reported to metrics.
const (
	cacheHit     = "hit"
	cacheMiss    = "miss"
	cacheExpired = "expired"
	cacheError   = "error"
	cacheForced  = "forced"
)

// ClusterAnalytics returns the detailed cluster view of a user's liked
// songs. Results are cached per user; freshness (Cache.TTL) is checked at
// read time. force skips the cache read but still writes the result.
// Concurrent calls for one user may both recompute; the last write wins.
func (e *Engine) ClusterAnalytics(ctx context.Context, user UserID, force bool) (analytics *ClusterAnalytics, err error) {
	if user == "" {
		return nil, ErrUnidentifiedUser
	}

	start := time.Now()
	ctx, end := tracing.StartSpan(ctx, "recommend.cluster_analytics")
	defer func() { end(err) }()

	logger := e.logger.With().Str("user_id", string(user)).Bool("force", force).Logger()

	if cached := e.readClusterCache(ctx, logger, user, force); cached != nil {
		e.cacheHits.Add(1)
		return cached, nil
	}
	e.cacheMisses.Add(1)

	result := e.computeClusterAnalytics(ctx, logger, user)
	result.ComputedAt = e.now()

	if e.cache != nil {
		entry := ClusterCacheEntry{UserID: user, Analytics: *result, ComputedAt: result.ComputedAt}
		if err := e.cache.SaveClusters(ctx, entry); err != nil {
			metrics.RecordClusterCache(cacheError)
			logger.Warn().Err(err).Msg("failed to write cluster cache")
		}
	}

	metrics.ObserveRecommendDuration("cluster_analytics", time.Since(start))
	return result, nil
}

// readClusterCache returns a fresh cached analysis or nil. Read failures
// count as misses.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func (e *Engine) readClusterCache(ctx context.Context, logger zerolog.Logger, user UserID, force bool) *ClusterAnalytics {
	if e.cache == nil {
		return nil
	}
	if force {
		metrics.RecordClusterCache(cacheForced)
		return nil
	}

	entry, found, err := e.cache.LoadClusters(ctx, user)
	switch {
	case err != nil:
		metrics.RecordClusterCache(cacheError)
		logger.Warn().Err(err).Msg("failed to read cluster cache, recomputing")
		return nil
	case !found:
		metrics.RecordClusterCache(cacheMiss)
		return nil
	case e.now().Sub(entry.ComputedAt) >= e.config.Cache.TTL:
		metrics.RecordClusterCache(cacheExpired)
		logger.Debug().Time("computed_at", entry.ComputedAt).Msg("cluster cache entry expired")
		return nil
	}

	metrics.RecordClusterCache(cacheHit)
	out := entry.Analytics
	out.ComputedAt = entry.ComputedAt
	out.CacheHit = true
	return &out
}

//nolint:gocritic // logger passed by value is acceptable for zerolog
func (e *Engine) computeClusterAnalytics(ctx context.Context, logger zerolog.Logger, user UserID) *ClusterAnalytics {
	out := &ClusterAnalytics{UserID: user, Clusters: []ClusterSummary{}}

	liked := fetch(ctx, logger, signalLikedSongs,
		func(ctx context.Context) ([]SongID, error) { return e.social.LikedSongs(ctx, user) }, countSongs)
	if !liked.Usable() {
		return out
	}

	features := fetch(ctx, logger, signalLikedFeatures,
		func(ctx context.Context) (map[SongID]Vector, error) {
			return e.features.FeatureVectors(ctx, liked.Value)
		}, countVectors)
	conformed := e.config.Space.ConformFeatures(features.Value)
	out.Diagnostics.Quarantined = len(conformed.Quarantined)
	e.quarantine(logger, nil, "features", conformed.Quarantined)

	songs := assembleSongs(liked.Value, conformed.Vectors, nil)
	if len(songs) == 0 {
		return out
	}

	points := make([][]float64, len(songs))
	for i := range songs {
		points[i] = songs[i].Features
	}

	policy := e.detailed.Policy()
	res, err := RunTask(ctx, e.pool, "cluster_analytics", e.config.Limits.ClusteringTimeout,
		func(ctx context.Context) (clustering.Result, error) { return e.detailed.Fit(ctx, points), nil })
	if err != nil {
		logger.Warn().Err(err).Msg("detailed clustering did not finish, using a single cluster")
		metrics.RecordClusteringFallback(policy.Name, "timeout")
		res = clustering.Result{
			Centroids:   [][]float64{clustering.Mean(points)},
			Labels:      make([]int, len(points)),
			Sizes:       []int{len(points)},
			Diagnostics: clustering.Diagnostics{ChosenK: 1, MaxK: 1, Fallback: true, FallbackReason: "timeout"},
		}
	} else if res.Diagnostics.Fallback {
		metrics.RecordClusteringFallback(policy.Name, res.Diagnostics.FallbackReason)
	}

	coords, method := e.project(ctx, logger, points)

	genres := e.songGenres(ctx, logger, liked.Value)

	out.NumClusters = len(res.Centroids)
	out.Clusters = make([]ClusterSummary, len(res.Centroids))
	members := make([][]Song, len(res.Centroids))
	for c := range out.Clusters {
		out.Clusters[c] = ClusterSummary{Index: c, Genres: map[string]int{}, Points: []ProjectedPoint{}}
	}
	for i, label := range res.Labels {
		if label < 0 || label >= len(out.Clusters) {
			continue
		}
		cluster := &out.Clusters[label]
		cluster.Size++
		members[label] = append(members[label], songs[i])
		cluster.Points = append(cluster.Points, ProjectedPoint{SongID: songs[i].ID, X: coords[i].X, Y: coords[i].Y})
		for _, g := range genres[songs[i].ID] {
			cluster.Genres[g]++
		}
	}
	for c := range out.Clusters {
		out.Clusters[c].AudioProfile = BuildTasteProfile(members[c]).Scalars
	}

	d := res.Diagnostics
	out.Diagnostics = ClusterDiagnostics{
		ChosenK:        d.ChosenK,
		MaxK:           d.MaxK,
		Distortions:    d.Distortions,
		Inertia:        d.Inertia,
		Iterations:     d.Iterations,
		Dispersion:     d.Dispersion,
		Merged:         d.Merged,
		Fallback:       d.Fallback,
		FallbackReason: d.FallbackReason,
		Projection:     method,
		Points:         len(points),
		Quarantined:    out.Diagnostics.Quarantined,
	}
	return out
}

// project runs the 2-D projection on the worker pool, falling back to PCA
// when t-SNE cannot finish in time.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func (e *Engine) project(ctx context.Context, logger zerolog.Logger, points [][]float64) ([]projection.Point, string) {
	type projected struct {
		points []projection.Point
		method string
	}

	res, err := RunTask(ctx, e.pool, "projection", e.config.Limits.ProjectionTimeout,
		func(ctx context.Context) (projected, error) {
			pts, method, err := projection.Project2D(ctx, points)
			return projected{points: pts, method: method}, err
		})
	if err != nil {
		logger.Warn().Err(err).Msg("projection did not finish, using PCA layout")
		return projection.PCA(points), projection.MethodPCA
	}
	return res.points, res.method
}

// songGenres maps liked songs to their genres; failure yields no genres.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func (e *Engine) songGenres(ctx context.Context, logger zerolog.Logger, ids []SongID) map[SongID][]string {
	details := fetch(ctx, logger, signalSongDetails,
		func(ctx context.Context) ([]SongMetadata, error) { return e.features.SongDetails(ctx, ids) }, countDetails)

	out := make(map[SongID][]string, len(details.Value))
	for _, d := range details.Value {
		out[d.ID] = d.Genres
	}
	return out
}
