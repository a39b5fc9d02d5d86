package publish

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/tracknest/trackersync/internal/logger"
)

// Publisher drives the idempotent fetch-compare-write cycle for one
// repository. Writes are conditional on the version token read in the same
// cycle; equal content short-circuits to a skip without any write.
type Publisher struct {
	client      Client
	primaryPath string
	retries     int
	retryDelay  time.Duration
}

// NewPublisher creates a Publisher. primaryPath is the one artifact allowed
// to be created without a version token when the current state cannot be
// read; retries and retryDelay bound the backoff around remote calls.
func NewPublisher(client Client, primaryPath string, retries int, retryDelay time.Duration) *Publisher {
	if retries < 1 {
		retries = 1
	}
	return &Publisher{
		client:      client,
		primaryPath: primaryPath,
		retries:     retries,
		retryDelay:  retryDelay,
	}
}

// Publish writes content to path unless the stored content already matches.
// The returned error, when non-nil, is always a *Error carrying the failure
// kind and path.
func (p *Publisher) Publish(ctx context.Context, path, content, message string) (Outcome, error) {
	current, err := p.fetchCurrent(ctx, path)
	if err != nil {
		if IsForbidden(err) {
			return "", err
		}
		if path != p.primaryPath {
			return "", &Error{Kind: KindMissingSHA, Path: path, Err: err}
		}
		// Primary artifact: proceed as first-time creation.
		logger.Warnf("Could not read current state of %s, writing without version token: %v", path, err)
		current = nil
	}

	if current == nil && path != p.primaryPath {
		return "", &Error{Kind: KindMissingSHA, Path: path, Err: ErrNotFound}
	}

	if current != nil && strings.TrimSpace(current.Content) == strings.TrimSpace(content) {
		logger.Infof("Content of %s unchanged, skipping write", path)
		return OutcomeSkipped, nil
	}

	sha := ""
	if current != nil {
		sha = current.SHA
	}

	if err := p.write(ctx, path, content, message, sha); err != nil {
		return "", err
	}

	logger.Infof("Updated %s", path)
	return OutcomeUpdated, nil
}

// fetchCurrent reads the current remote state, retrying transient failures.
// A 404 yields (nil, nil): the path does not exist yet.
func (p *Publisher) fetchCurrent(ctx context.Context, path string) (*File, error) {
	operation := func() (*File, error) {
		file, err := p.client.GetFile(ctx, path)
		if err != nil {
			if errors.Is(err, ErrNotFound) || IsForbidden(err) {
				return nil, backoff.Permanent(err)
			}
			logger.Warnf("Transient failure reading %s: %v", path, err)
			return nil, err
		}
		return file, nil
	}

	file, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(p.newBackOff()),
		backoff.WithMaxTries(uint(p.retries)),
	)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return file, nil
}

// write issues the conditional PUT, retrying transient failures. Forbidden
// failures are terminal immediately.
func (p *Publisher) write(ctx context.Context, path, content, message, sha string) error {
	operation := func() (struct{}, error) {
		if err := p.client.PutFile(ctx, path, content, message, sha); err != nil {
			if IsForbidden(err) {
				return struct{}{}, backoff.Permanent(err)
			}
			logger.Warnf("Transient failure writing %s: %v", path, err)
			return struct{}{}, err
		}
		return struct{}{}, nil
	}

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(p.newBackOff()),
		backoff.WithMaxTries(uint(p.retries)),
	)
	if err != nil {
		var pubErr *Error
		if errors.As(err, &pubErr) {
			return pubErr
		}
		return &Error{Kind: KindTransient, Path: path, Err: err}
	}

	return nil
}

func (p *Publisher) newBackOff() *backoff.ExponentialBackOff {
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = p.retryDelay
	expo.Multiplier = 2
	expo.RandomizationFactor = 0
	return expo
}
