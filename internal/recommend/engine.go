// Tunegraph - Social and Content Song Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegraph

package recommend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/tunegraph/internal/logging"
	"github.com/tomtom215/tunegraph/internal/metrics"
	"github.com/tomtom215/tunegraph/internal/recommend/clustering"
	"github.com/tomtom215/tunegraph/internal/tracing"
)

// Errors surfaced to callers. Every other failure degrades a signal.
var (
	// ErrUnidentifiedUser is returned when no user id is supplied.
	ErrUnidentifiedUser = errors.New("recommend: unidentified user")

	// ErrInvalidLimit is returned for a negative limit.
	ErrInvalidLimit = errors.New("recommend: invalid limit")

	// ErrMissingSong is returned when feedback names no song.
	ErrMissingSong = errors.New("recommend: missing song id")
)

// Signal names used in response metadata, logs and metrics.
const (
	signalLikedSongs        = "liked_songs"
	signalFeedback          = "feedback"
	signalFriends           = "friends"
	signalFriendLikes       = "friend_likes"
	signalLikedFeatures     = "liked_features"
	signalLikedLyrics       = "liked_lyrics"
	signalCatalog           = "catalog"
	signalCandidateFeatures = "candidate_features"
	signalCandidateLyrics   = "candidate_lyrics"
	signalSongDetails       = "song_details"
)

// Engine runs the recommendation pipeline: profile, clustering, retrieval,
// reranking and fusion. It is safe for concurrent use; the only shared
// mutable state is the cluster cache, keyed by user.
type Engine struct {
	config Config
	logger zerolog.Logger

	features  FeatureStore
	social    SocialGraph
	feedback  FeedbackStore
	recLog    RecommendationLog
	cache     ClusterCache
	retriever Retriever
	reranker  Reranker

	fast     *clustering.Clusterer
	detailed *clustering.Clusterer
	pool     *WorkerPool

	now func() time.Time

	requestCount atomic.Int64
	cacheHits    atomic.Int64
	cacheMisses  atomic.Int64
}

// Stats holds engine counters.
type Stats struct {
	Requests    int64 `json:"requests"`
	CacheHits   int64 `json:"cache_hits"`
	CacheMisses int64 `json:"cache_misses"`
}

// NewEngine creates an engine. cfg is copied; nil selects DefaultConfig.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, c Components, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if c.Features == nil || c.Social == nil || c.Feedback == nil {
		return nil, errors.New("feature, social graph and feedback stores are required")
	}
	if c.Retriever == nil {
		return nil, errors.New("retriever is required")
	}

	e := &Engine{
		config:    *cfg,
		logger:    logger.With().Str("component", "recommend").Logger(),
		features:  c.Features,
		social:    c.Social,
		feedback:  c.Feedback,
		recLog:    c.Log,
		cache:     c.Cache,
		retriever: c.Retriever,
		reranker:  c.Reranker,
		fast:      clustering.New(cfg.Clustering.Fast),
		detailed:  clustering.New(cfg.Clustering.Detailed),
		pool:      NewWorkerPool(cfg.Limits.Workers),
		now:       time.Now,
	}

	e.logger.Info().
		Bool("reranker", c.Reranker != nil).
		Bool("cluster_cache", c.Cache != nil).
		Int("workers", cfg.Limits.Workers).
		Msg("recommendation engine ready")

	return e, nil
}

// SetClock replaces the time source. Intended for tests.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() Config {
	return e.config
}

// Stats returns engine counters.
func (e *Engine) Stats() Stats {
	return Stats{
		Requests:    e.requestCount.Load(),
		CacheHits:   e.cacheHits.Load(),
		CacheMisses: e.cacheMisses.Load(),
	}
}

// GenerateRecommendations returns up to limit songs for user, ranked by the
// fused collaborative and content scores. A limit of 0 selects the default.
// Only an empty user id or a negative limit produce an error.
func (e *Engine) GenerateRecommendations(ctx context.Context, user UserID, limit int) (resp *Response, err error) {
	if user == "" {
		return nil, ErrUnidentifiedUser
	}
	if limit < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}
	if limit == 0 {
		limit = e.config.Limits.DefaultLimit
	}
	if limit > e.config.Limits.MaxLimit {
		limit = e.config.Limits.MaxLimit
	}

	start := time.Now()
	e.requestCount.Add(1)

	ctx, end := tracing.StartSpan(ctx, "recommend.generate")
	defer func() { end(err) }()

	requestID := logging.RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	logger := e.logger.With().
		Str("request_id", requestID).
		Str("user_id", string(user)).
		Int("limit", limit).
		Logger()
	logger.Debug().Msg("processing recommendation request")

	signals := signalSet{}
	meta := ResponseMetadata{RequestID: requestID}

	liked := record(signals, fetch(ctx, logger, signalLikedSongs,
		func(ctx context.Context) ([]SongID, error) { return e.social.LikedSongs(ctx, user) }, countSongs))
	fb := record(signals, fetch(ctx, logger, signalFeedback,
		func(ctx context.Context) (FeedbackMap, error) { return e.feedback.Feedback(ctx, user) }, countFeedback))

	feedback := fb.Value
	if feedback == nil {
		feedback = FeedbackMap{}
	}
	exclude := exclusionSet(liked.Value, feedback)

	collaborative := e.collaborativeStage(ctx, logger, user, exclude, signals)
	content := e.contentStage(ctx, logger, contentInput{
		liked:    liked.Value,
		exclude:  exclude,
		feedback: feedback,
		limit:    limit,
	}, signals, &meta)

	items := fuse(fusionInput{
		collaborative: collaborative,
		content:       content,
		contentWeight: e.config.Fusion.ContentWeight,
		feedback:      feedback,
		multipliers:   e.config.Feedback,
		exclude:       exclude,
		limit:         limit,
	})

	e.enrich(ctx, logger, items, signals)
	e.logRecommendations(ctx, logger, user, items)

	meta.Signals = signals
	meta.CollaborativeCandidates = len(collaborative)
	meta.ContentCandidates = len(content)
	meta.GeneratedAt = e.now()
	meta.LatencyMS = time.Since(start).Milliseconds()
	metrics.ObserveRecommendDuration("generate", time.Since(start))

	logger.Debug().
		Int("collaborative", len(collaborative)).
		Int("content", len(content)).
		Int("returned", len(items)).
		Int64("latency_ms", meta.LatencyMS).
		Msg("recommendation complete")

	return &Response{UserID: user, Items: items, Metadata: meta}, nil
}

// exclusionSet is liked songs plus explicitly disliked songs.
func exclusionSet(liked []SongID, feedback FeedbackMap) map[SongID]struct{} {
	exclude := make(map[SongID]struct{}, len(liked)+len(feedback))
	for _, id := range liked {
		exclude[id] = struct{}{}
	}
	for id, isLiked := range feedback {
		if !isLiked {
			exclude[id] = struct{}{}
		}
	}
	return exclude
}

//nolint:gocritic // logger passed by value is acceptable for zerolog
func (e *Engine) collaborativeStage(ctx context.Context, logger zerolog.Logger, user UserID, exclude map[SongID]struct{}, signals signalSet) map[SongID]float64 {
	ctx, end := tracing.StartSpan(ctx, "recommend.collaborative")
	defer end(nil)

	friends := record(signals, fetch(ctx, logger, signalFriends,
		func(ctx context.Context) ([]UserID, error) { return e.social.Friends(ctx, user) }, countUsers))
	if !friends.Usable() {
		return nil
	}

	likes := make(friendLikes, len(friends.Value))
	failed := 0
	for _, friend := range friends.Value {
		if friend == user {
			continue
		}
		songs, err := e.social.LikedSongs(ctx, friend)
		if err != nil {
			failed++
			logger.Debug().Err(err).Str("friend_id", string(friend)).Msg("skipping friend whose likes could not be read")
			continue
		}
		likes[friend] = songs
	}

	status := SignalOK
	switch {
	case failed > 0 && len(likes) == 0:
		status = SignalFailed
		logger.Warn().Int("friends", len(friends.Value)).Msg("no friend likes could be read, collaborative signal is empty")
	case len(likes) == 0:
		status = SignalEmpty
	}
	signals[signalFriendLikes] = status
	metrics.RecordSignal(signalFriendLikes, string(status))

	counts := collaborativeCounts(likes, exclude)
	maxCandidates := e.config.Limits.MaxCollaborativeCandidates
	if e.config.Diversity.FriendDiversity {
		counts = diversifyFriends(likes, counts, maxCandidates)
	} else if len(counts) > maxCandidates {
		kept := make(map[SongID]int, maxCandidates)
		for _, id := range rankByCount(counts)[:maxCandidates] {
			kept[id] = counts[id]
		}
		counts = kept
	}

	return collaborativeScores(counts, e.config.Fusion.CollaborativeWeight)
}

type contentInput struct {
	liked    []SongID
	exclude  map[SongID]struct{}
	feedback FeedbackMap
	limit    int
}

// contentStage clusters the liked songs, retrieves candidates per centroid,
// reranks each list and interleaves them.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func (e *Engine) contentStage(ctx context.Context, logger zerolog.Logger, in contentInput, signals signalSet, meta *ResponseMetadata) []ScoredSong {
	if len(in.liked) == 0 {
		return nil
	}

	ctx, end := tracing.StartSpan(ctx, "recommend.content")
	defer end(nil)

	likedSongs, space := e.loadLikedSongs(ctx, logger, in.liked, signals, meta)
	if len(likedSongs) == 0 {
		return nil
	}

	profile := BuildTasteProfile(likedSongs)
	centroids := e.interestCentroids(ctx, logger, likedSongs)
	meta.Centroids = len(centroids)
	if len(centroids) == 0 {
		return nil
	}

	pool := e.loadCandidatePool(ctx, logger, in.exclude, space, profile.AverageLyrics != nil, signals, meta)
	if len(pool) == 0 {
		return nil
	}

	req := RetrievalRequest{
		Centroids: centroids,
		Pool:      pool,
		Profile:   profile,
		Feedback:  in.feedback,
		Limit:     in.limit,
	}

	result, err := RunTask(ctx, e.pool, "neighbor_search", e.config.Limits.SearchTimeout,
		func(ctx context.Context) (RetrievalResult, error) { return e.retriever.Retrieve(ctx, req) })
	if err != nil {
		logger.Warn().Err(err).Msg("neighbor search failed, falling back to weighted scan")
		metrics.RecordRetrievalPath("scan_after_failure")
		result, err = RunTask(ctx, e.pool, "weighted_scan", e.config.Limits.SearchTimeout,
			func(ctx context.Context) (RetrievalResult, error) { return e.retriever.Scan(ctx, req) })
		if err != nil {
			logger.Warn().Err(err).Msg("weighted scan failed, content signal is empty")
			return nil
		}
	}
	meta.RetrievalPath = summarizePaths(result.Paths)

	vectors := make(map[SongID]Vector, len(pool))
	for i := range pool {
		vectors[pool[i].ID] = pool[i].Features
	}

	lists := make([][]ScoredSong, len(result.Lists))
	for i, list := range result.Lists {
		if e.reranker == nil {
			lists[i] = list
			continue
		}
		lists[i] = e.reranker.Rerank(ctx, RerankRequest{
			Candidates: list,
			Vectors:    vectors,
			Feedback:   in.feedback,
			TopN:       in.limit,
		})
	}

	return interleave(lists, in.limit)
}

// loadLikedSongs fetches and validates the liked songs' vectors. The
// returned space pins the dimensions candidates must match.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func (e *Engine) loadLikedSongs(ctx context.Context, logger zerolog.Logger, liked []SongID, signals signalSet, meta *ResponseMetadata) ([]Song, VectorSpace) {
	features := record(signals, fetch(ctx, logger, signalLikedFeatures,
		func(ctx context.Context) (map[SongID]Vector, error) { return e.features.FeatureVectors(ctx, liked) }, countVectors))
	conformed := e.config.Space.ConformFeatures(features.Value)
	e.quarantine(logger, meta, "features", conformed.Quarantined)
	if len(conformed.Vectors) == 0 {
		return nil, e.config.Space
	}

	lyrics := record(signals, fetch(ctx, logger, signalLikedLyrics,
		func(ctx context.Context) (map[SongID]Vector, error) { return e.features.LyricsEmbeddings(ctx, liked) }, countVectors))
	lyricsConformed := e.config.Space.ConformLyrics(lyrics.Value)
	e.quarantine(logger, meta, "lyrics", lyricsConformed.Quarantined)

	return assembleSongs(liked, conformed.Vectors, lyricsConformed.Vectors),
		VectorSpace{FeatureDim: conformed.Dim, LyricsDim: lyricsConformed.Dim}
}

// loadCandidatePool fetches every non-excluded catalog song with a vector
// in the liked songs' space.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func (e *Engine) loadCandidatePool(ctx context.Context, logger zerolog.Logger, exclude map[SongID]struct{}, space VectorSpace, wantLyrics bool, signals signalSet, meta *ResponseMetadata) []Song {
	catalog := record(signals, fetch(ctx, logger, signalCatalog, e.features.SongIDs, countSongs))

	ids := make([]SongID, 0, len(catalog.Value))
	for _, id := range catalog.Value {
		if _, ok := exclude[id]; !ok {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	features := record(signals, fetch(ctx, logger, signalCandidateFeatures,
		func(ctx context.Context) (map[SongID]Vector, error) { return e.features.FeatureVectors(ctx, ids) }, countVectors))
	conformed := space.ConformFeatures(features.Value)
	e.quarantine(logger, meta, "features", conformed.Quarantined)

	var lyrics map[SongID]Vector
	if wantLyrics {
		sig := record(signals, fetch(ctx, logger, signalCandidateLyrics,
			func(ctx context.Context) (map[SongID]Vector, error) { return e.features.LyricsEmbeddings(ctx, ids) }, countVectors))
		lyricsConformed := space.ConformLyrics(sig.Value)
		e.quarantine(logger, meta, "lyrics", lyricsConformed.Quarantined)
		lyrics = lyricsConformed.Vectors
	} else {
		record(signals, skipped[map[SongID]Vector](signalCandidateLyrics))
	}

	return assembleSongs(ids, conformed.Vectors, lyrics)
}

// interestCentroids runs fast clustering on the worker pool. A timeout
// degrades to the mean of the liked vectors.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func (e *Engine) interestCentroids(ctx context.Context, logger zerolog.Logger, songs []Song) []Vector {
	points := make([][]float64, len(songs))
	for i := range songs {
		points[i] = songs[i].Features
	}

	policy := e.fast.Policy()
	res, err := RunTask(ctx, e.pool, "clustering", e.config.Limits.ClusteringTimeout,
		func(ctx context.Context) (clustering.Result, error) { return e.fast.Fit(ctx, points), nil })
	if err != nil {
		logger.Warn().Err(err).Msg("interest clustering did not finish, using mean centroid")
		metrics.RecordClusteringFallback(policy.Name, "timeout")
		return []Vector{Vector(clustering.Mean(points))}
	}
	if res.Diagnostics.Fallback {
		metrics.RecordClusteringFallback(policy.Name, res.Diagnostics.FallbackReason)
	}

	centroids := make([]Vector, len(res.Centroids))
	for i, c := range res.Centroids {
		centroids[i] = Vector(c)
	}
	return centroids
}

// enrich attaches display metadata. Failure leaves items without details.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func (e *Engine) enrich(ctx context.Context, logger zerolog.Logger, items []Recommendation, signals signalSet) {
	if len(items) == 0 {
		return
	}
	ids := make([]SongID, len(items))
	for i := range items {
		ids[i] = items[i].SongID
	}

	details := record(signals, fetch(ctx, logger, signalSongDetails,
		func(ctx context.Context) ([]SongMetadata, error) { return e.features.SongDetails(ctx, ids) }, countDetails))

	byID := make(map[SongID]SongMetadata, len(details.Value))
	for _, d := range details.Value {
		byID[d.ID] = d
	}
	for i := range items {
		if d, ok := byID[items[i].SongID]; ok {
			items[i].Details = &d
		}
	}
}

// logRecommendations replaces the user's recommendation records so later
// feedback can be attributed. Failures only cost attribution.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func (e *Engine) logRecommendations(ctx context.Context, logger zerolog.Logger, user UserID, items []Recommendation) {
	if e.recLog == nil || len(items) == 0 {
		return
	}

	now := e.now()
	records := make([]RecommendationRecord, len(items))
	for i := range items {
		records[i] = RecommendationRecord{
			ID:        uuid.NewString(),
			UserID:    user,
			SongID:    items[i].SongID,
			Source:    strings.Join(items[i].Sources, ","),
			CreatedAt: now,
		}
	}

	if err := e.recLog.ReplaceRecommendations(ctx, user, records); err != nil {
		logger.Warn().Err(err).Msg("failed to log recommendations, feedback will not be attributed")
		return
	}
	for i := range items {
		items[i].RecommendationID = records[i].ID
	}
}

// RecordFeedback stores a like or dislike for (user, song). Positive
// feedback also adds the song to the user's liked songs. recommendationID
// is optional; when it names a logged recommendation for the same user and
// song, its source label is stored with the feedback.
func (e *Engine) RecordFeedback(ctx context.Context, user UserID, song SongID, liked bool, recommendationID string) (err error) {
	if user == "" {
		return ErrUnidentifiedUser
	}
	if song == "" {
		return ErrMissingSong
	}

	ctx, end := tracing.StartSpan(ctx, "recommend.feedback")
	defer func() { end(err) }()

	logger := e.logger.With().Str("user_id", string(user)).Str("song_id", string(song)).Logger()

	source := ""
	if recommendationID != "" && e.recLog != nil {
		rec, lookupErr := e.recLog.Recommendation(ctx, recommendationID)
		switch {
		case lookupErr != nil:
			logger.Debug().Err(lookupErr).Str("recommendation_id", recommendationID).Msg("recommendation not found, feedback stored without source")
		case rec.UserID == user && rec.SongID == song:
			source = rec.Source
		}
	}

	now := e.now()
	if err := e.feedback.PutFeedback(ctx, Feedback{
		UserID:    user,
		SongID:    song,
		Liked:     liked,
		Source:    source,
		UpdatedAt: now,
	}); err != nil {
		return fmt.Errorf("store feedback: %w", err)
	}

	if liked {
		if err := e.social.AddLikedSong(ctx, user, song, now); err != nil {
			return fmt.Errorf("add liked song: %w", err)
		}
	}

	metrics.RecordFeedback(liked, source)
	logger.Debug().Bool("liked", liked).Str("source", source).Msg("feedback recorded")
	return nil
}

//nolint:gocritic // logger passed by value is acceptable for zerolog
func (e *Engine) quarantine(logger zerolog.Logger, meta *ResponseMetadata, kind string, ids []SongID) {
	if len(ids) == 0 {
		return
	}
	if meta != nil {
		meta.Quarantined += len(ids)
	}
	metrics.RecordQuarantined(kind, len(ids))
	logger.Debug().Str("kind", kind).Int("count", len(ids)).Msg("quarantined non-conforming vectors")
}

// assembleSongs builds songs in ids order, skipping ids without features.
func assembleSongs(ids []SongID, features, lyrics map[SongID]Vector) []Song {
	songs := make([]Song, 0, len(features))
	seen := make(map[SongID]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		f, ok := features[id]
		if !ok {
			continue
		}
		songs = append(songs, Song{ID: id, Features: f, Lyrics: lyrics[id]})
	}
	return songs
}

// summarizePaths reports "index", "scan" or "mixed".
func summarizePaths(paths []string) string {
	set := make(map[string]struct{}, 2)
	for _, p := range paths {
		set[p] = struct{}{}
	}
	switch len(set) {
	case 0:
		return ""
	case 1:
		return paths[0]
	default:
		names := make([]string, 0, len(set))
		for p := range set {
			names = append(names, p)
		}
		sort.Strings(names)
		return "mixed:" + strings.Join(names, "+")
	}
}

func countSongs(v []SongID) int { return len(v) }
func countUsers(v []UserID) int { return len(v) }
func countFeedback(v FeedbackMap) int { return len(v) }
func countVectors(v map[SongID]Vector) int { return len(v) }
func countDetails(v []SongMetadata) int { return len(v) }
