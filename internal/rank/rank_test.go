package rank_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tracknest/trackersync/internal/probe"
	"github.com/tracknest/trackersync/internal/rank"
)

func resultsWithScores(scores ...float64) []probe.Result {
	results := make([]probe.Result, 0, len(scores))
	for i, s := range scores {
		results = append(results, probe.Result{
			Endpoint: "udp://tracker" + string(rune('a'+i)) + ".example:80",
			Alive:    s > 0,
			Score:    s,
		})
	}
	return results
}

func scores(results []probe.Result) []float64 {
	out := make([]float64, 0, len(results))
	for _, r := range results {
		out = append(out, r.Score)
	}
	return out
}

func TestSelectRanking(t *testing.T) {
	t.Parallel()

	results := resultsWithScores(0.9, 0.8, 0.3, 0.7, 0.6, 0.95)

	selected := rank.Select(results, 4)

	// 0.3 fails the threshold, 0.6 falls to truncation.
	assert.Equal(t, []float64{0.95, 0.9, 0.8, 0.7}, scores(selected))
}

func TestSelectThresholdIsExclusive(t *testing.T) {
	t.Parallel()

	results := resultsWithScores(0.5, 0.51)

	selected := rank.Select(results, 4)

	assert.Equal(t, []float64{0.51}, scores(selected))
}

func TestSelectEqualScoresBreakLexicographically(t *testing.T) {
	t.Parallel()

	results := []probe.Result{
		{Endpoint: "udp://zeta.example:80", Alive: true, Score: 0.8},
		{Endpoint: "udp://alpha.example:80", Alive: true, Score: 0.8},
		{Endpoint: "udp://mid.example:80", Alive: true, Score: 0.8},
	}

	selected := rank.Select(results, 3)

	assert.Equal(t, []string{
		"udp://alpha.example:80",
		"udp://mid.example:80",
		"udp://zeta.example:80",
	}, rank.Endpoints(selected))

	// Input order never leaks into the selection.
	reversed := []probe.Result{results[2], results[1], results[0]}
	assert.Equal(t, rank.Endpoints(selected), rank.Endpoints(rank.Select(reversed, 3)))
}

func TestSelectEmptyOutcome(t *testing.T) {
	t.Parallel()

	assert.Empty(t, rank.Select(nil, 4))
	assert.Empty(t, rank.Select(resultsWithScores(0.1, 0.2, 0.5), 4))
	assert.Empty(t, rank.Select(resultsWithScores(0.9), 0))
}

func TestSelectFewerThanTopN(t *testing.T) {
	t.Parallel()

	selected := rank.Select(resultsWithScores(0.9, 0.7), 4)

	assert.Len(t, selected, 2)
	assert.Equal(t, []float64{0.9, 0.7}, scores(selected))
}
