package sources

import (
	"sort"
	"strings"
)

// ParseTrackers splits a source body into lines, trims each line, drops
// empties, and deduplicates. Identity is exact string equality after trim;
// no further normalization.
func ParseTrackers(body string) []string {
	seen := make(map[string]struct{})
	var trackers []string

	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		trackers = append(trackers, line)
	}

	return trackers
}

// Aggregate unions the trackers of all successful results into one sorted,
// unique slice. Failed sources contribute nothing; the merge is commutative,
// so the output does not depend on fetch completion order.
func Aggregate(results []Result) []string {
	set := make(map[string]struct{})
	for _, res := range results {
		if res.Err != nil {
			continue
		}
		for _, tracker := range res.Trackers {
			set[tracker] = struct{}{}
		}
	}

	merged := make([]string, 0, len(set))
	for tracker := range set {
		merged = append(merged, tracker)
	}
	sort.Strings(merged)

	return merged
}
