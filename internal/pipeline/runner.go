package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tracknest/trackersync/internal/config"
	"github.com/tracknest/trackersync/internal/logger"
	"github.com/tracknest/trackersync/internal/probe"
	"github.com/tracknest/trackersync/internal/publish"
	"github.com/tracknest/trackersync/internal/rank"
	"github.com/tracknest/trackersync/internal/readme"
	"github.com/tracknest/trackersync/internal/sources"
)

// Runner executes the full pipeline against one configuration.
type Runner struct {
	cfg       *config.Config
	fetcher   Fetcher
	prober    Prober
	publisher Publisher
	store     ContentReader

	now func() time.Time
}

// NewRunner wires a Runner from its collaborators. store may equal the
// client backing publisher; it is only used to read the README text.
func NewRunner(cfg *config.Config, fetcher Fetcher, prober Prober, publisher Publisher, store ContentReader) *Runner {
	return &Runner{
		cfg:       cfg,
		fetcher:   fetcher,
		prober:    prober,
		publisher: publisher,
		store:     store,
		now:       time.Now,
	}
}

// FetchAndAggregate retrieves every configured source and merges the
// successful bodies into a sorted, unique endpoint list.
func (r *Runner) FetchAndAggregate(ctx context.Context) ([]string, []sources.Result) {
	results := r.fetcher.FetchAll(ctx, r.cfg.Sources)
	return sources.Aggregate(results), results
}

// ProbeAndSelect probes every endpoint and returns the ranked best subset.
// An empty selection is a valid outcome.
func (r *Runner) ProbeAndSelect(ctx context.Context, endpoints []string) []probe.Result {
	results := r.prober.ProbeAll(ctx, endpoints)
	return rank.Select(results, r.cfg.Select.TopN)
}

// Run executes one full pipeline pass. The returned Summary is valid even
// when err is non-nil; it describes how far the run got.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	start := r.now()
	date := start

	summary := &Summary{RunID: uuid.NewString()}

	logger.Infow("Tracker update run starting", "runID", summary.RunID, "sources", len(r.cfg.Sources))

	summary.Trackers, summary.SourceResults = r.FetchAndAggregate(ctx)
	summary.FetchElapsed = r.now().Sub(start)

	// Guard against publishing from a degraded or empty data set. This
	// must fire before any probe or publish work.
	if len(summary.Trackers) < r.cfg.SafetyFloor {
		err := &RunError{
			Stage:  StageFetch,
			Reason: ReasonBelowSafetyFloor,
			Err:    fmt.Errorf("aggregated %d trackers, need at least %d", len(summary.Trackers), r.cfg.SafetyFloor),
		}
		logger.Errorw("Aborting run", "runID", summary.RunID, "reason", err.Reason, "count", len(summary.Trackers))
		summary.Elapsed = r.now().Sub(start)
		return summary, err
	}

	logger.Infof("Aggregated %d unique trackers from %d sources", len(summary.Trackers), len(r.cfg.Sources))

	summary.Best = r.ProbeAndSelect(ctx, summary.Trackers)
	logger.Infof("Selected %d best trackers", len(summary.Best))

	err := r.publishAll(ctx, summary, date)
	summary.Elapsed = r.now().Sub(start)
	if err != nil {
		return summary, err
	}

	logger.Infow("Tracker update run finished", "runID", summary.RunID, "elapsed", summary.Elapsed)
	return summary, nil
}

// publishAll writes the three artifacts strictly in sequence. A primary
// failure aborts the rest; best-subset and README failures only warn.
func (r *Runner) publishAll(ctx context.Context, summary *Summary, date time.Time) error {
	pub := r.cfg.Publish
	dateStr := date.Format(readme.DateFormat)
	primaryMessage := fmt.Sprintf("Update trackers on %s - %d items", dateStr, len(summary.Trackers))

	content := strings.Join(summary.Trackers, "\n") + "\n"
	outcome, err := r.publisher.Publish(ctx, pub.TrackersPath, content, primaryMessage)
	summary.Primary = ArtifactResult{Path: pub.TrackersPath, Outcome: outcome, Err: err}
	if err != nil {
		return &RunError{Stage: StagePublish, Reason: ReasonPrimaryPublishFailed, Err: err}
	}

	if len(summary.Best) > 0 {
		bestContent := strings.Join(rank.Endpoints(summary.Best), "\n") + "\n"
		bestMessage := fmt.Sprintf("Update best trackers on %s", dateStr)
		outcome, err = r.publisher.Publish(ctx, pub.BestTrackersPath, bestContent, bestMessage)
		summary.BestSubset = ArtifactResult{Path: pub.BestTrackersPath, Outcome: outcome, Err: err}
		if err != nil {
			logger.Warnf("Best tracker publish failed (non-fatal): %v", err)
		}
	} else {
		logger.Infof("No trackers qualified for the best subset, skipping %s", pub.BestTrackersPath)
	}

	r.patchReadme(ctx, summary, date, primaryMessage)

	return nil
}

// patchReadme rewrites the README's date badge and tracker count, then
// publishes it with the primary commit message. Every failure here is a
// warning; the run already succeeded.
func (r *Runner) patchReadme(ctx context.Context, summary *Summary, date time.Time, message string) {
	path := r.cfg.Publish.ReadmePath

	file, err := r.store.GetFile(ctx, path)
	if err != nil {
		if errors.Is(err, publish.ErrNotFound) {
			logger.Warnf("No %s to patch, skipping", path)
		} else {
			logger.Warnf("README fetch failed (non-fatal): %v", err)
		}
		summary.Readme = ArtifactResult{Path: path, Err: err}
		return
	}

	patched := readme.Patch(file.Content, date, len(summary.Trackers))
	outcome, err := r.publisher.Publish(ctx, path, patched, message)
	summary.Readme = ArtifactResult{Path: path, Outcome: outcome, Err: err}
	if err != nil {
		logger.Warnf("README publish failed (non-fatal): %v", err)
	}
}
