package probe_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tracknest/trackersync/internal/probe"
)

func newTestServer(handler http.Handler) *httptest.Server {
	server := httptest.NewServer(handler)
	server.Config.SetKeepAlivesEnabled(false)
	return server
}

func TestHTTPCheckerAlive(t *testing.T) {
	t.Parallel()

	var gotPath, gotUserAgent string
	server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUserAgent = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	checker := probe.NewHTTPChecker(2 * time.Second)

	// Trailing slashes are stripped before appending the announce path.
	result := checker.Check(t.Context(), server.URL+"/")

	assert.True(t, result.Alive)
	assert.Equal(t, server.URL+"/", result.Endpoint)
	assert.Equal(t, "/announce", gotPath)
	assert.Equal(t, "BitTorrent/2.0", gotUserAgent)
	assert.Greater(t, result.Score, 0.0)
	assert.LessOrEqual(t, result.Score, 1.0)
	assert.Less(t, result.Latency, 2*time.Second)
}

func TestHTTPCheckerErrorStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		statusCode int
		wantAlive  bool
	}{
		{name: "200 alive", statusCode: http.StatusOK, wantAlive: true},
		{name: "204 alive", statusCode: http.StatusNoContent, wantAlive: true},
		{name: "299 alive", statusCode: 299, wantAlive: true},
		{name: "404 dead", statusCode: http.StatusNotFound, wantAlive: false},
		{name: "500 dead", statusCode: http.StatusInternalServerError, wantAlive: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.statusCode)
			}))
			defer server.Close()

			client := probe.NewHTTPChecker(2 * time.Second)
			result := client.Check(t.Context(), server.URL)

			assert.Equal(t, tt.wantAlive, result.Alive)
			if !tt.wantAlive {
				assert.Zero(t, result.Score)
				// An answered request reports measured latency, not the timeout.
				assert.Less(t, result.Latency, 2*time.Second)
			}
		})
	}
}

func TestHTTPCheckerTransportFailure(t *testing.T) {
	t.Parallel()

	server := newTestServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))
	server.Close() // nothing listening anymore

	checker := probe.NewHTTPChecker(500 * time.Millisecond)

	result := checker.Check(t.Context(), server.URL)

	assert.False(t, result.Alive)
	assert.Zero(t, result.Score)
	assert.Equal(t, 500*time.Millisecond, result.Latency)
}
