package proximity

import (
	"fmt"
	"slices"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// NormalizeStatuses trims and upper-cases each status, drops blanks and
// duplicates, and returns the set sorted.
func NormalizeStatuses(statuses []string) []string {
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// Fingerprint derives the cache key for a query. Coordinates are used in
// their textual form, so "1" and "1.0" produce different keys.
func Fingerprint(lat, lon string, statuses []string) string {
	key := lat + ":" + lon + ":" + strings.Join(NormalizeStatuses(statuses), ",")
	return fmt.Sprintf("%016x", xxhash.Sum64String(key))
}
