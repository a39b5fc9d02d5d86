package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/tracknest/trackersync/internal/probe"
	"github.com/tracknest/trackersync/internal/publish"
	"github.com/tracknest/trackersync/internal/sources"
)

// Stage names carried by RunError.
const (
	StageFetch   = "fetch"
	StageProbe   = "probe"
	StagePublish = "publish"
)

// Run failure reason constants.
const (
	// ReasonBelowSafetyFloor aborts a run whose aggregate is too small to
	// publish safely.
	ReasonBelowSafetyFloor = "below-safety-floor"

	// ReasonPrimaryPublishFailed aborts the publish sequence after the
	// primary artifact could not be written.
	ReasonPrimaryPublishFailed = "primary-publish-failed"
)

// RunError is a structured pipeline-level failure.
type RunError struct {
	Stage  string
	Reason string
	Err    error
}

// Error returns the error message
func (e *RunError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("run failed in %s stage (%s): %v", e.Stage, e.Reason, e.Err)
	}
	return fmt.Sprintf("run failed in %s stage (%s)", e.Stage, e.Reason)
}

// Unwrap returns the underlying cause
func (e *RunError) Unwrap() error {
	return e.Err
}

//go:generate mockgen -destination=mocks/mock_pipeline.go -package=mocks -source=types.go Fetcher,Prober,Publisher,ContentReader

// Fetcher retrieves all configured sources.
type Fetcher interface {
	FetchAll(ctx context.Context, urls []string) []sources.Result
}

// Prober measures liveness and latency for every endpoint.
type Prober interface {
	ProbeAll(ctx context.Context, endpoints []string) []probe.Result
}

// Publisher performs an idempotent conditional write of one artifact.
type Publisher interface {
	Publish(ctx context.Context, path, content, message string) (publish.Outcome, error)
}

// ContentReader reads the current remote state of a path. The README step
// uses it to obtain the text to patch.
type ContentReader interface {
	GetFile(ctx context.Context, path string) (*publish.File, error)
}

// ArtifactResult records one artifact's publish disposition.
type ArtifactResult struct {
	Path    string
	Outcome publish.Outcome
	Err     error
}

// Summary collects everything a run produced, for reporting.
type Summary struct {
	// RunID correlates log lines of one run
	RunID string

	// SourceResults holds one entry per configured source, in config order
	SourceResults []sources.Result

	// Trackers is the aggregated, sorted endpoint list
	Trackers []string

	// FetchElapsed is the duration of the fetch/aggregate stage
	FetchElapsed time.Duration

	// Best is the ranked selection, score descending
	Best []probe.Result

	// Primary, BestSubset, and Readme are the three publish steps in
	// execution order. BestSubset and Readme stay zero-valued when their
	// step was skipped entirely.
	Primary    ArtifactResult
	BestSubset ArtifactResult
	Readme     ArtifactResult

	// Elapsed is the total run duration
	Elapsed time.Duration
}
