// Tunegraph - Social and Content Song Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegraph

package recommend_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/tunegraph/internal/recommend"
)

var errUnavailable = errors.New("store unavailable")

// memStore is an in-memory implementation of every collaborator, with
// per-operation failure injection.
type memStore struct {
	mu sync.Mutex

	features map[recommend.SongID]recommend.Vector
	lyrics   map[recommend.SongID]recommend.Vector
	details  map[recommend.SongID]recommend.SongMetadata
	likes    map[recommend.UserID][]recommend.SongID
	friends  map[recommend.UserID][]recommend.UserID
	feedback map[recommend.UserID]map[recommend.SongID]recommend.Feedback
	recs     map[string]recommend.RecommendationRecord
	clusters map[recommend.UserID]recommend.ClusterCacheEntry

	fail map[string]bool

	clusterSaves int
}

func newMemStore() *memStore {
	return &memStore{
		features: make(map[recommend.SongID]recommend.Vector),
		lyrics:   make(map[recommend.SongID]recommend.Vector),
		details:  make(map[recommend.SongID]recommend.SongMetadata),
		likes:    make(map[recommend.UserID][]recommend.SongID),
		friends:  make(map[recommend.UserID][]recommend.UserID),
		feedback: make(map[recommend.UserID]map[recommend.SongID]recommend.Feedback),
		recs:     make(map[string]recommend.RecommendationRecord),
		clusters: make(map[recommend.UserID]recommend.ClusterCacheEntry),
		fail:     make(map[string]bool),
	}
}

func (m *memStore) failing(op string) error {
	if m.fail[op] {
		return errUnavailable
	}
	return nil
}

func (m *memStore) addSong(id recommend.SongID, features recommend.Vector, genres ...string) {
	m.features[id] = features
	m.details[id] = recommend.SongMetadata{ID: id, Title: "Title " + string(id), Genres: genres}
}

func (m *memStore) SongIDs(context.Context) ([]recommend.SongID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failing("SongIDs"); err != nil {
		return nil, err
	}
	ids := make([]recommend.SongID, 0, len(m.features))
	for id := range m.features {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (m *memStore) FeatureVectors(_ context.Context, ids []recommend.SongID) (map[recommend.SongID]recommend.Vector, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failing("FeatureVectors"); err != nil {
		return nil, err
	}
	return pick(m.features, ids), nil
}

func (m *memStore) LyricsEmbeddings(_ context.Context, ids []recommend.SongID) (map[recommend.SongID]recommend.Vector, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failing("LyricsEmbeddings"); err != nil {
		return nil, err
	}
	return pick(m.lyrics, ids), nil
}

func pick(src map[recommend.SongID]recommend.Vector, ids []recommend.SongID) map[recommend.SongID]recommend.Vector {
	out := make(map[recommend.SongID]recommend.Vector, len(ids))
	for _, id := range ids {
		if v, ok := src[id]; ok {
			out[id] = v
		}
	}
	return out
}

func (m *memStore) SongDetails(_ context.Context, ids []recommend.SongID) ([]recommend.SongMetadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failing("SongDetails"); err != nil {
		return nil, err
	}
	out := make([]recommend.SongMetadata, 0, len(ids))
	for _, id := range ids {
		if d, ok := m.details[id]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *memStore) LikedSongs(_ context.Context, user recommend.UserID) ([]recommend.SongID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failing("LikedSongs"); err != nil {
		return nil, err
	}
	return append([]recommend.SongID(nil), m.likes[user]...), nil
}

func (m *memStore) Friends(_ context.Context, user recommend.UserID) ([]recommend.UserID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failing("Friends"); err != nil {
		return nil, err
	}
	return append([]recommend.UserID(nil), m.friends[user]...), nil
}

func (m *memStore) AddLikedSong(_ context.Context, user recommend.UserID, song recommend.SongID, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failing("AddLikedSong"); err != nil {
		return err
	}
	for _, id := range m.likes[user] {
		if id == song {
			return nil
		}
	}
	m.likes[user] = append(m.likes[user], song)
	return nil
}

func (m *memStore) Feedback(_ context.Context, user recommend.UserID) (recommend.FeedbackMap, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failing("Feedback"); err != nil {
		return nil, err
	}
	out := make(recommend.FeedbackMap, len(m.feedback[user]))
	for id, fb := range m.feedback[user] {
		out[id] = fb.Liked
	}
	return out, nil
}

func (m *memStore) PutFeedback(_ context.Context, fb recommend.Feedback) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failing("PutFeedback"); err != nil {
		return err
	}
	if m.feedback[fb.UserID] == nil {
		m.feedback[fb.UserID] = make(map[recommend.SongID]recommend.Feedback)
	}
	m.feedback[fb.UserID][fb.SongID] = fb
	return nil
}

func (m *memStore) ReplaceRecommendations(_ context.Context, user recommend.UserID, records []recommend.RecommendationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failing("ReplaceRecommendations"); err != nil {
		return err
	}
	for id, r := range m.recs {
		if r.UserID == user {
			delete(m.recs, id)
		}
	}
	for _, r := range records {
		m.recs[r.ID] = r
	}
	return nil
}

func (m *memStore) Recommendation(_ context.Context, id string) (recommend.RecommendationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.recs[id]
	if !ok {
		return recommend.RecommendationRecord{}, errors.New("not found")
	}
	return r, nil
}

func (m *memStore) LoadClusters(_ context.Context, user recommend.UserID) (recommend.ClusterCacheEntry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failing("LoadClusters"); err != nil {
		return recommend.ClusterCacheEntry{}, false, err
	}
	e, ok := m.clusters[user]
	return e, ok, nil
}

func (m *memStore) SaveClusters(_ context.Context, entry recommend.ClusterCacheEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failing("SaveClusters"); err != nil {
		return err
	}
	m.clusterSaves++
	m.clusters[entry.UserID] = entry
	return nil
}

func (m *memStore) components() recommend.Components {
	return recommend.Components{
		Features: m,
		Social:   m,
		Feedback: m,
		Log:      m,
		Cache:    m,
	}
}
