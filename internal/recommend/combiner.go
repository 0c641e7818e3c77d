// Tunegraph - Social and Content Song Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegraph

package recommend

import "sort"

// friendLikes maps each friend to the songs they liked.
type friendLikes map[UserID][]SongID

// collaborativeCounts counts, per non-excluded song, how many friends
// liked it.
func collaborativeCounts(likes friendLikes, exclude map[SongID]struct{}) map[SongID]int {
	counts := make(map[SongID]int)
	for _, songs := range likes {
		seen := make(map[SongID]struct{}, len(songs))
		for _, id := range songs {
			if _, ok := exclude[id]; ok {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			counts[id]++
		}
	}
	return counts
}

// rankByCount orders songs by count descending, then id.
func rankByCount(counts map[SongID]int) []SongID {
	ids := make([]SongID, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if counts[ids[i]] != counts[ids[j]] {
			return counts[ids[i]] > counts[ids[j]]
		}
		return ids[i] < ids[j]
	})
	return ids
}

// diversifyFriends bounds the collaborative candidate set to maxCandidates.
// Friends are visited in id order; a friend none of whose songs has been
// kept yet contributes their highest-count song. Remaining slots go by
// count. Counts are kept as is; this pass only decides membership. It is
// independent of the MMR pass over content candidates.
func diversifyFriends(likes friendLikes, counts map[SongID]int, maxCandidates int) map[SongID]int {
	if len(counts) <= maxCandidates {
		return counts
	}

	ranked := rankByCount(counts)
	position := make(map[SongID]int, len(ranked))
	for i, id := range ranked {
		position[id] = i
	}

	friends := make([]UserID, 0, len(likes))
	for f := range likes {
		friends = append(friends, f)
	}
	sort.Slice(friends, func(i, j int) bool { return friends[i] < friends[j] })

	kept := make(map[SongID]int, maxCandidates)
	for _, f := range friends {
		if len(kept) >= maxCandidates {
			break
		}
		best, bestPos := SongID(""), len(ranked)
		covered := false
		for _, id := range likes[f] {
			if _, taken := kept[id]; taken {
				covered = true
				break
			}
			if pos, ok := position[id]; ok && pos < bestPos {
				best, bestPos = id, pos
			}
		}
		if !covered && best != "" {
			kept[best] = counts[best]
		}
	}

	for _, id := range ranked {
		if len(kept) >= maxCandidates {
			break
		}
		if _, ok := kept[id]; !ok {
			kept[id] = counts[id]
		}
	}
	return kept
}

// collaborativeScores turns counts into weight * count / maxCount.
func collaborativeScores(counts map[SongID]int, weight float64) map[SongID]float64 {
	maxCount := 0
	for _, c := range counts {
		if c > maxCount {
			maxCount = c
		}
	}
	scores := make(map[SongID]float64, len(counts))
	if maxCount == 0 {
		return scores
	}
	for id, c := range counts {
		scores[id] = weight * float64(c) / float64(maxCount)
	}
	return scores
}

// interleave merges the per-centroid lists round-robin, skipping songs an
// earlier list already contributed, until limit songs are taken or every
// list is exhausted.
func interleave(lists [][]ScoredSong, limit int) []ScoredSong {
	out := make([]ScoredSong, 0, limit)
	seen := make(map[SongID]struct{}, limit)
	cursors := make([]int, len(lists))

	for len(out) < limit {
		progressed := false
		for l, list := range lists {
			if len(out) >= limit {
				break
			}
			for cursors[l] < len(list) {
				candidate := list[cursors[l]]
				cursors[l]++
				if _, dup := seen[candidate.ID]; dup {
					continue
				}
				seen[candidate.ID] = struct{}{}
				out = append(out, candidate)
				progressed = true
				break
			}
		}
		if !progressed {
			break
		}
	}
	return out
}

// multiplier returns the fusion-stage feedback multiplier for a song.
func (c FeedbackConfig) multiplier(fb FeedbackMap, id SongID) float64 {
	liked, ok := fb[id]
	switch {
	case !ok:
		return 1
	case liked:
		return c.LikedMultiplier
	default:
		return c.DislikedMultiplier
	}
}

// fusionInput is everything the final fusion step needs.
type fusionInput struct {
	collaborative map[SongID]float64
	content       []ScoredSong
	contentWeight float64
	feedback      FeedbackMap
	multipliers   FeedbackConfig
	exclude       map[SongID]struct{}
	limit         int
}

// fuse sums the feedback-adjusted contributions of both stages and returns
// the top limit songs by total score, ties broken by song id.
//
//nolint:gocritic // hugeParam: input passed by value for immutability
func fuse(in fusionInput) []Recommendation {
	byID := make(map[SongID]*Recommendation)
	get := func(id SongID) *Recommendation {
		r, ok := byID[id]
		if !ok {
			r = &Recommendation{SongID: id}
			byID[id] = r
		}
		return r
	}

	for id, score := range in.collaborative {
		if _, ok := in.exclude[id]; ok {
			continue
		}
		r := get(id)
		r.Breakdown.Collaborative = score * in.multipliers.multiplier(in.feedback, id)
	}

	fromContent := make(map[SongID]struct{}, len(in.content))
	for _, c := range in.content {
		if _, ok := in.exclude[c.ID]; ok {
			continue
		}
		fromContent[c.ID] = struct{}{}
		r := get(c.ID)
		r.Breakdown.Content = in.contentWeight * c.Score * in.multipliers.multiplier(in.feedback, c.ID)
	}

	out := make([]Recommendation, 0, len(byID))
	for _, r := range byID {
		if _, ok := in.collaborative[r.SongID]; ok {
			r.Sources = append(r.Sources, SourceFriends)
		}
		if _, ok := fromContent[r.SongID]; ok {
			r.Sources = append(r.Sources, SourceSimilarMusic)
		}
		r.Score = Clamp01(r.Breakdown.Collaborative + r.Breakdown.Content)
		out = append(out, *r)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].SongID < out[j].SongID
	})

	if len(out) > in.limit {
		out = out[:in.limit]
	}
	return out
}
