// Package report renders run results for the console: per-source fetch
// outcomes, the selected best trackers, and the closing summary.
package report

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/tracknest/trackersync/internal/probe"
	"github.com/tracknest/trackersync/internal/sources"
)

const separator = "============================================================"

// Thresholds for the closing summary warnings.
const (
	// SlowRunThreshold flags runs that took suspiciously long.
	SlowRunThreshold = 30 * time.Second

	// LowCountThreshold flags aggregates small enough to suggest broken
	// sources even when above the safety floor.
	LowCountThreshold = 100
)

var (
	green  = color.New(color.FgGreen)
	red    = color.New(color.FgRed)
	yellow = color.New(color.FgYellow)
	cyan   = color.New(color.FgCyan)
)

// SourceTable prints one row per configured source with its fetch outcome.
func SourceTable(w io.Writer, results []sources.Result, totalCount int, elapsed time.Duration) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, separator)
	fmt.Fprintln(w, "Source fetch results:")
	fmt.Fprintln(w, separator)

	table := tablewriter.NewTable(w)
	table.Header("#", "Status", "URL", "Trackers")

	for i, res := range results {
		status := green.Sprint("✓")
		count := cyan.Sprint(res.Count())
		if res.Err != nil {
			status = red.Sprint("✗")
			count = red.Sprint(failureReason(res.Err))
		}
		_ = table.Append(fmt.Sprint(i+1), status, res.URL, count)
	}
	_ = table.Render()

	fmt.Fprintf(w, "\n%s\n", cyan.Sprintf("Total trackers: %d", totalCount))
	fmt.Fprintf(w, "Fetch stage took %.2f seconds\n", elapsed.Seconds())
	fmt.Fprintln(w, separator)
}

// BestTable prints the selected best trackers with latency and score.
// An empty selection prints nothing, matching the optional artifact being
// skipped.
func BestTable(w io.Writer, best []probe.Result) {
	if len(best) == 0 {
		return
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, separator)
	fmt.Fprintln(w, "Best tracker health results:")
	fmt.Fprintln(w, separator)

	table := tablewriter.NewTable(w)
	table.Header("#", "Status", "Tracker", "Latency", "Score")

	for i, res := range best {
		status := red.Sprint("✗")
		if res.Alive {
			status = green.Sprint("✓")
		}
		_ = table.Append(
			fmt.Sprint(i+1),
			status,
			res.Endpoint,
			fmt.Sprintf("%.2fs", res.Latency.Seconds()),
			fmt.Sprintf("%.2f", res.Score),
		)
	}
	_ = table.Render()

	fmt.Fprintln(w, separator)
}

// RunSummary prints the total runtime and the health warnings the aggregate
// deserves.
func RunSummary(w io.Writer, elapsed time.Duration, trackerCount int) {
	fmt.Fprintf(w, "\n%s\n", cyan.Sprintf("Total runtime: %.2f seconds", elapsed.Seconds()))

	if elapsed > SlowRunThreshold {
		fmt.Fprintln(w, yellow.Sprint("Warning: run took unusually long, check source connectivity or raise worker count"))
	}
	if trackerCount < LowCountThreshold {
		fmt.Fprintln(w, yellow.Sprintf("Warning: only %d trackers aggregated, sources may be degraded", trackerCount))
	}
}

// failureReason condenses a fetch error for the table cell.
func failureReason(err error) string {
	var fetchErr *sources.FetchError
	if errors.As(err, &fetchErr) {
		return fetchErr.Reason
	}
	return "failed"
}
