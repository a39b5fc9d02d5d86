// Package probe measures tracker liveness and latency with protocol-specific
// checks: an HTTP announce request for http/https endpoints and a minimal
// BitTorrent connect handshake for udp endpoints.
package probe

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tracknest/trackersync/internal/logger"
)

const (
	// DefaultTimeout bounds a single probe.
	DefaultTimeout = 5 * time.Second

	// ScoreWindow is the latency window mapped onto the [0,1] score range.
	// A probe at or beyond the window scores zero.
	ScoreWindow = 5 * time.Second
)

// Result is the outcome of probing one endpoint.
type Result struct {
	// Endpoint is the probed tracker string, unmodified
	Endpoint string

	// Alive reports whether the endpoint answered in time
	Alive bool

	// Latency is the measured round-trip duration. For failed probes it
	// holds the full timeout; for skipped (malformed/unknown) endpoints
	// it is zero.
	Latency time.Duration

	// Score is alive * max(0, 1 - latency/ScoreWindow), in [0,1]
	Score float64
}

// Checker probes a single endpoint of one protocol family.
type Checker interface {
	Check(ctx context.Context, endpoint string) Result
}

// Prober dispatches endpoints to protocol checkers through a bounded
// worker pool.
type Prober struct {
	httpChecker Checker
	udpChecker  Checker
	workers     int
}

// NewProber creates a Prober with the given per-probe timeout and pool width.
func NewProber(timeout time.Duration, workers int) *Prober {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if workers < 1 {
		workers = 1
	}
	return &Prober{
		httpChecker: NewHTTPChecker(timeout),
		udpChecker:  NewUDPChecker(timeout),
		workers:     workers,
	}
}

// Check probes one endpoint, dispatching on its scheme prefix. Endpoints of
// unknown schemes are reported dead without any network call.
func (p *Prober) Check(ctx context.Context, endpoint string) Result {
	switch {
	case strings.HasPrefix(endpoint, "udp://"):
		return p.udpChecker.Check(ctx, endpoint)
	case strings.HasPrefix(endpoint, "http://"), strings.HasPrefix(endpoint, "https://"):
		return p.httpChecker.Check(ctx, endpoint)
	default:
		return Result{Endpoint: endpoint}
	}
}

// ProbeAll probes every endpoint independently through the worker pool.
// The returned slice has one entry per endpoint, in input order; callers
// must not rely on any completion ordering beyond that.
func (p *Prober) ProbeAll(ctx context.Context, endpoints []string) []Result {
	logger.Infof("Probing %d trackers (%d workers)", len(endpoints), p.workers)

	results := make([]Result, len(endpoints))

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(p.workers)

	for i, endpoint := range endpoints {
		group.Go(func() error {
			results[i] = p.Check(ctx, endpoint)
			return nil
		})
	}

	// Probes never return errors; a dead endpoint is a zero-score result.
	_ = group.Wait()

	return results
}

// score maps liveness and latency to [0,1]. Dead endpoints always score zero.
func score(alive bool, latency time.Duration) float64 {
	if !alive {
		return 0
	}
	s := 1 - latency.Seconds()/ScoreWindow.Seconds()
	if s < 0 {
		return 0
	}
	return s
}
