package proximity

import (
	"cmp"
	"slices"
)

// Rank returns the k nearest results, distance ascending. Ties keep the
// order of the original candidate list. results is not modified.
func Rank(results []RankedResult, k int) []RankedResult {
	out := slices.Clone(results)
	slices.SortStableFunc(out, func(a, b RankedResult) int {
		if c := cmp.Compare(a.DistanceKM, b.DistanceKM); c != 0 {
			return c
		}
		return cmp.Compare(a.pos, b.pos)
	})
	if k >= 0 && len(out) > k {
		out = out[:k]
	}
	return out
}
