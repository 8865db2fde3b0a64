/*
Package leaderboard ranks keys by frequency.

Approximate rankings come from the persisted sketch over a candidate key list. Exact
rankings come from summing every stored batch. The two never need to agree, but an
approximate count is never below the exact count for the same events.
*/
package leaderboard

import (
	"sort"

	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/aggregate"
	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/sketch"
)

// Entry is a ranked key.
type Entry struct {
	Key   string `json:"key"`
	Count uint64 `json:"count"`
}

// rank keeps the k largest entries, descending. Equal counts keep their input order.
func rank(entries []Entry, k int) []Entry {
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Count > entries[j].Count })
	if k < len(entries) {
		entries = entries[:k]
	}
	return entries
}

// ApproximateTopK ranks candidates by their sketch estimate.
// Ties are broken by candidate order. A nil sketch or no candidates gives an empty list.
func ApproximateTopK(s *sketch.Sketch, candidates []string, k int) []Entry {
	if s == nil || k <= 0 {
		return []Entry{}
	}
	seen := make(map[string]struct{}, len(candidates))
	entries := make([]Entry, 0, len(candidates))
	for _, key := range candidates {
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		entries = append(entries, Entry{Key: key, Count: s.Estimate(key)})
	}
	return rank(entries, k)
}

// ExactTopK ranks keys by their total across all batches.
// Ties are broken by the order keys first appear, walking batches in the order given.
func ExactTopK(batches []*aggregate.Batch, k int) []Entry {
	if k <= 0 {
		return []Entry{}
	}
	totals := aggregate.Sum(batches)
	entries := make([]Entry, 0, totals.Len())
	for _, key := range totals.Keys() {
		entries = append(entries, Entry{Key: key, Count: totals.Get(key)})
	}
	return rank(entries, k)
}
