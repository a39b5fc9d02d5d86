package sources

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/sync/errgroup"

	"github.com/tracknest/trackersync/internal/httpclient"
	"github.com/tracknest/trackersync/internal/logger"
)

// Fetcher retrieves tracker-list sources with retry and bounded concurrency.
type Fetcher struct {
	client     httpclient.Client
	retries    int
	retryDelay time.Duration
	workers    int
}

// NewFetcher creates a Fetcher. retries is the maximum attempt count per
// source, retryDelay the base backoff delay (doubled per attempt), workers
// the pool width for FetchAll.
func NewFetcher(client httpclient.Client, retries int, retryDelay time.Duration, workers int) *Fetcher {
	if retries < 1 {
		retries = 1
	}
	if workers < 1 {
		workers = 1
	}
	return &Fetcher{
		client:     client,
		retries:    retries,
		retryDelay: retryDelay,
		workers:    workers,
	}
}

// Fetch retrieves one source body. Transient failures (timeout, connection
// error) are retried with exponential backoff; a definitive HTTP status error
// returns immediately. The returned error is always a *FetchError.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	operation := func() ([]byte, error) {
		body, err := f.client.Get(ctx, url)
		if err != nil {
			var httpErr *httpclient.HTTPError
			if errors.As(err, &httpErr) {
				// A definitive server answer; retrying will not change it.
				return nil, backoff.Permanent(err)
			}
			logger.Warnf("Transient failure fetching %s: %v", url, err)
			return nil, err
		}
		return body, nil
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = f.retryDelay
	expo.Multiplier = 2
	expo.RandomizationFactor = 0

	body, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(expo),
		backoff.WithMaxTries(uint(f.retries)),
	)
	if err != nil {
		return "", &FetchError{URL: url, Reason: classifyReason(err), Err: err}
	}

	return string(body), nil
}

// FetchAll retrieves every source through a bounded worker pool and returns
// one Result per URL, in input order. Failures are isolated per source; the
// returned slice always has len(urls) entries.
func (f *Fetcher) FetchAll(ctx context.Context, urls []string) []Result {
	results := make([]Result, len(urls))

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(f.workers)

	for i, url := range urls {
		group.Go(func() error {
			body, err := f.Fetch(ctx, url)
			if err != nil {
				logger.Warnf("Source failed: %s: %v", url, err)
				results[i] = Result{URL: url, Err: err}
				return nil
			}
			trackers := ParseTrackers(body)
			logger.Infof("Fetched %s: %d trackers", url, len(trackers))
			results[i] = Result{URL: url, Trackers: trackers}
			return nil
		})
	}

	// Workers never return errors; failures land in their Result slot.
	_ = group.Wait()

	return results
}

// classifyReason maps a terminal fetch error to a failure reason constant.
// Transient causes (timeouts, connection errors) only surface here after the
// attempt budget ran out.
func classifyReason(err error) string {
	var httpErr *httpclient.HTTPError
	if errors.As(err, &httpErr) {
		return ReasonHTTPStatus
	}
	return ReasonRetriesExhausted
}
