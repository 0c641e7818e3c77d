// Tunegraph - Social and Content Song Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegraph

package recommend

// ScalarProfile is the normalized audio profile of a set of songs.
// Every continuous field is in [0,1].
type ScalarProfile struct {
	Tempo            float64 `json:"tempo"`
	Acousticness     float64 `json:"acousticness"`
	Danceability     float64 `json:"danceability"`
	Energy           float64 `json:"energy"`
	Loudness         float64 `json:"loudness"`
	Liveness         float64 `json:"liveness"`
	Valence          float64 `json:"valence"`
	Speechiness      float64 `json:"speechiness"`
	Instrumentalness float64 `json:"instrumentalness"`
	Mode             int     `json:"mode"`
	Key              int     `json:"key"`
}

// TasteProfile aggregates a user's liked songs. Each output is nil when the
// input lacks the data to compute it.
type TasteProfile struct {
	AverageFeatures Vector         `json:"average_features,omitempty"`
	Scalars         *ScalarProfile `json:"scalars,omitempty"`
	AverageLyrics   Vector         `json:"average_lyrics,omitempty"`
	SongCount       int            `json:"song_count"`
}

const (
	tempoScale     = 200.0
	loudnessOffset = 60.0
)

// BuildTasteProfile computes the average feature vector, the scalar audio
// profile and the average lyrics embedding of songs. Vectors outside the
// majority dimension are left out of each average.
func BuildTasteProfile(songs []Song) TasteProfile {
	profile := TasteProfile{SongCount: len(songs)}
	if len(songs) == 0 {
		return profile
	}

	features := majoritySubset(songs, func(s Song) Vector { return s.Features })
	profile.AverageFeatures = meanVector(features)
	profile.Scalars = buildScalarProfile(features)

	lyrics := majoritySubset(songs, func(s Song) Vector { return s.Lyrics })
	profile.AverageLyrics = meanVector(lyrics)

	return profile
}

func majoritySubset(songs []Song, pick func(Song) Vector) []Vector {
	byID := make(map[SongID]Vector, len(songs))
	ordered := make([]Vector, 0, len(songs))
	for i := range songs {
		v := pick(songs[i])
		if len(v) == 0 || !v.Finite() {
			continue
		}
		byID[songs[i].ID] = v
		ordered = append(ordered, v)
	}

	dim := MajorityDimension(byID)
	out := ordered[:0]
	for _, v := range ordered {
		if len(v) == dim {
			out = append(out, v)
		}
	}
	return out
}

func buildScalarProfile(features []Vector) *ScalarProfile {
	var (
		sum   ScalarFeatures
		n     int
		modes = make(map[int]int)
		keys  = make(map[int]int)
	)

	for _, v := range features {
		s, ok := ScalarsFromVector(v)
		if !ok {
			continue
		}
		n++
		sum.Tempo += s.Tempo
		sum.Acousticness += s.Acousticness
		sum.Danceability += s.Danceability
		sum.Energy += s.Energy
		sum.Loudness += s.Loudness
		sum.Liveness += s.Liveness
		sum.Valence += s.Valence
		sum.Speechiness += s.Speechiness
		sum.Instrumentalness += s.Instrumentalness
		modes[s.Mode]++
		keys[s.Key]++
	}

	if n == 0 {
		return nil
	}

	count := float64(n)
	return &ScalarProfile{
		Tempo:            Clamp01(sum.Tempo / count / tempoScale),
		Loudness:         Clamp01((sum.Loudness/count + loudnessOffset) / loudnessOffset),
		Acousticness:     Clamp01(sum.Acousticness / count),
		Danceability:     Clamp01(sum.Danceability / count),
		Energy:           Clamp01(sum.Energy / count),
		Liveness:         Clamp01(sum.Liveness / count),
		Valence:          Clamp01(sum.Valence / count),
		Speechiness:      Clamp01(sum.Speechiness / count),
		Instrumentalness: Clamp01(sum.Instrumentalness / count),
		Mode:             majorityVote(modes),
		Key:              majorityVote(keys),
	}
}

// majorityVote returns the most frequent value, the smaller one on ties.
func majorityVote(counts map[int]int) int {
	best, bestCount := 0, -1
	for v, c := range counts {
		if c > bestCount || (c == bestCount && v < best) {
			best, bestCount = v, c
		}
	}
	return best
}
