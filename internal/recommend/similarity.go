// Tunegraph - Social and Content Song Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegraph

package recommend

import "math"

// CosineSimilarity returns the cosine of the angle between a and b,
// clamped to [0,1]. Mismatched lengths and zero vectors yield 0.
func CosineSimilarity(a, b Vector) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return Clamp01(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

// FeatureWeights weights the scalar descriptors in FeatureSimilarity.
type FeatureWeights struct {
	Tempo            float64 `json:"tempo"`
	Loudness         float64 `json:"loudness"`
	Acousticness     float64 `json:"acousticness"`
	Danceability     float64 `json:"danceability"`
	Energy           float64 `json:"energy"`
	Valence          float64 `json:"valence"`
	Speechiness      float64 `json:"speechiness"`
	Liveness         float64 `json:"liveness"`
	Instrumentalness float64 `json:"instrumentalness"`

	// ModeMatch and KeyMatch are added when the discrete fields agree.
	ModeMatch float64 `json:"mode_match"`
	KeyMatch  float64 `json:"key_match"`

	// TempoWindow is the BPM difference that counts as fully dissimilar.
	TempoWindow float64 `json:"tempo_window"`
	// LoudnessRange is the dB difference that counts as fully dissimilar.
	LoudnessRange float64 `json:"loudness_range"`
}

// DefaultFeatureWeights returns the stock weighting. The continuous
// weights sum to 0.8; mode and key add 0.1 each.
func DefaultFeatureWeights() FeatureWeights {
	return FeatureWeights{
		Tempo:            0.05,
		Loudness:         0.05,
		Acousticness:     0.10,
		Danceability:     0.15,
		Energy:           0.15,
		Valence:          0.15,
		Speechiness:      0.05,
		Liveness:         0.05,
		Instrumentalness: 0.05,
		ModeMatch:        0.1,
		KeyMatch:         0.1,
		TempoWindow:      20,
		LoudnessRange:    60,
	}
}

// Similarity compares two sets of raw scalar descriptors. Each continuous
// field contributes weight*(1 - normalized |difference|).
//
//nolint:gocritic // hugeParam: value receiver keeps the weights immutable
func (w FeatureWeights) Similarity(a, b ScalarFeatures) float64 {
	score := w.Tempo*closeness(a.Tempo, b.Tempo, w.TempoWindow) +
		w.Loudness*closeness(a.Loudness, b.Loudness, w.LoudnessRange) +
		w.Acousticness*closeness(a.Acousticness, b.Acousticness, 1) +
		w.Danceability*closeness(a.Danceability, b.Danceability, 1) +
		w.Energy*closeness(a.Energy, b.Energy, 1) +
		w.Valence*closeness(a.Valence, b.Valence, 1) +
		w.Speechiness*closeness(a.Speechiness, b.Speechiness, 1) +
		w.Liveness*closeness(a.Liveness, b.Liveness, 1) +
		w.Instrumentalness*closeness(a.Instrumentalness, b.Instrumentalness, 1)

	if a.Mode == b.Mode {
		score += w.ModeMatch
	}
	if a.Key == b.Key {
		score += w.KeyMatch
	}

	return Clamp01(score)
}

// FeatureSimilarity compares scalar descriptors with the default weights.
func FeatureSimilarity(a, b ScalarFeatures) float64 {
	return DefaultFeatureWeights().Similarity(a, b)
}

// closeness returns 1 minus the absolute difference normalized by scale,
// never below 0.
func closeness(a, b, scale float64) float64 {
	if scale <= 0 {
		scale = 1
	}
	d := math.Abs(a-b) / scale
	if d > 1 || math.IsNaN(d) {
		d = 1
	}
	return 1 - d
}

// Clamp01 clamps x to [0,1]; NaN becomes 0.
func Clamp01(x float64) float64 {
	switch {
	case math.IsNaN(x), x < 0:
		return 0
	case x > 1:
		return 1
	default:
		return x
	}
}

func roundInt(x float64) int {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return int(math.Round(x))
}
