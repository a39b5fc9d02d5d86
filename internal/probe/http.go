package probe

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// userAgent identifies announce probes to tracker operators. Trackers
// routinely reject unknown clients, so the probe presents itself as one.
const userAgent = "BitTorrent/2.0"

// HTTPChecker probes http/https trackers by requesting their announce URL.
type HTTPChecker struct {
	client  *http.Client
	timeout time.Duration
}

// NewHTTPChecker creates an HTTPChecker with the given probe timeout.
func NewHTTPChecker(timeout time.Duration) *HTTPChecker {
	return &HTTPChecker{
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
	}
}

// Check issues GET <endpoint>/announce and measures the round trip. The
// endpoint is alive iff the response status is in [200,300); any answer,
// alive or not, reports its measured latency. A transport failure reports
// the full timeout as latency.
func (c *HTTPChecker) Check(ctx context.Context, endpoint string) Result {
	url := strings.TrimRight(endpoint, "/") + "/announce"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{Endpoint: endpoint, Latency: c.timeout}
	}
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return Result{Endpoint: endpoint, Latency: c.timeout}
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	elapsed := time.Since(start)

	alive := resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices

	return Result{
		Endpoint: endpoint,
		Alive:    alive,
		Latency:  elapsed,
		Score:    score(alive, elapsed),
	}
}
