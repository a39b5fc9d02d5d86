// Package rank selects the best tracker subset from probe results.
package rank

import (
	"sort"

	"github.com/tracknest/trackersync/internal/probe"
)

// MinScore is the qualification threshold. Results scoring at or below it
// are never selected.
const MinScore = 0.5

// Select filters probe results to those scoring above MinScore, orders them
// by score descending, and truncates to topN. Equal scores are broken
// lexicographically by endpoint string, so the selection is deterministic
// even though probes complete in arbitrary order. An empty selection is a
// valid outcome, not an error.
func Select(results []probe.Result, topN int) []probe.Result {
	if topN < 1 {
		return nil
	}

	var qualified []probe.Result
	for _, r := range results {
		if r.Score > MinScore {
			qualified = append(qualified, r)
		}
	}

	sort.Slice(qualified, func(i, j int) bool {
		if qualified[i].Score != qualified[j].Score {
			return qualified[i].Score > qualified[j].Score
		}
		return qualified[i].Endpoint < qualified[j].Endpoint
	})

	if len(qualified) > topN {
		qualified = qualified[:topN]
	}

	return qualified
}

// Endpoints extracts the endpoint strings of a selection, preserving order.
func Endpoints(selection []probe.Result) []string {
	endpoints := make([]string, 0, len(selection))
	for _, r := range selection {
		endpoints = append(endpoints, r.Endpoint)
	}
	return endpoints
}
