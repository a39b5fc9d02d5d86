package sources_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracknest/trackersync/internal/httpclient"
	"github.com/tracknest/trackersync/internal/sources"
)

func newTestServer(handler http.Handler) *httptest.Server {
	server := httptest.NewServer(handler)
	server.Config.SetKeepAlivesEnabled(false)
	return server
}

// dropConnection terminates the client connection without a response,
// producing a transport error on the caller side.
func dropConnection(w http.ResponseWriter) {
	hj, ok := w.(http.Hijacker)
	if !ok {
		panic("response writer does not support hijacking")
	}
	conn, _, err := hj.Hijack()
	if err != nil {
		panic(err)
	}
	_ = conn.Close()
}

func TestFetchSuccess(t *testing.T) {
	t.Parallel()

	server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprint(w, "udp://a.example:80\nudp://b.example:80\n")
	}))
	defer server.Close()

	fetcher := sources.NewFetcher(httpclient.NewDefaultClient(time.Second), 3, time.Millisecond, 4)

	body, err := fetcher.Fetch(t.Context(), server.URL)

	require.NoError(t, err)
	assert.Equal(t, "udp://a.example:80\nudp://b.example:80\n", body)
}

func TestFetchHTTPStatusNotRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	fetcher := sources.NewFetcher(httpclient.NewDefaultClient(time.Second), 3, time.Millisecond, 4)

	_, err := fetcher.Fetch(t.Context(), server.URL)

	require.Error(t, err)
	var fetchErr *sources.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, sources.ReasonHTTPStatus, fetchErr.Reason)
	assert.Equal(t, server.URL, fetchErr.URL)

	var httpErr *httpclient.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)

	assert.Equal(t, int32(1), calls.Load(), "definitive status must not be retried")
}

func TestFetchRetriesTransientFailure(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			dropConnection(w)
			return
		}
		_, _ = fmt.Fprint(w, "udp://a.example:80\n")
	}))
	defer server.Close()

	fetcher := sources.NewFetcher(httpclient.NewDefaultClient(time.Second), 3, time.Millisecond, 4)

	body, err := fetcher.Fetch(t.Context(), server.URL)

	require.NoError(t, err)
	assert.Equal(t, "udp://a.example:80\n", body)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetchRetriesExhausted(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		dropConnection(w)
	}))
	defer server.Close()

	fetcher := sources.NewFetcher(httpclient.NewDefaultClient(time.Second), 2, time.Millisecond, 4)

	_, err := fetcher.Fetch(t.Context(), server.URL)

	require.Error(t, err)
	var fetchErr *sources.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, sources.ReasonRetriesExhausted, fetchErr.Reason)
	assert.Equal(t, int32(2), calls.Load())
}

// stubClient serves canned bodies keyed by URL without a network.
type stubClient struct {
	bodies map[string]string
}

func (c *stubClient) Get(_ context.Context, url string) ([]byte, error) {
	body, ok := c.bodies[url]
	if !ok {
		return nil, errors.New("connection refused")
	}
	return []byte(body), nil
}

func TestFetchAll(t *testing.T) {
	t.Parallel()

	client := &stubClient{bodies: map[string]string{
		"https://one.example/all.txt": "a\nb\n",
		"https://two.example/all.txt": "b\n c \n",
	}}
	fetcher := sources.NewFetcher(client, 2, time.Millisecond, 4)

	urls := []string{
		"https://one.example/all.txt",
		"https://two.example/all.txt",
		"https://down.example/all.txt",
	}

	results := fetcher.FetchAll(t.Context(), urls)

	require.Len(t, results, 3)
	// Results keep input order regardless of completion order.
	assert.Equal(t, urls[0], results[0].URL)
	assert.Equal(t, urls[1], results[1].URL)
	assert.Equal(t, urls[2], results[2].URL)

	require.NoError(t, results[0].Err)
	assert.Equal(t, 2, results[0].Count())
	require.NoError(t, results[1].Err)
	assert.Equal(t, []string{"b", "c"}, results[1].Trackers)
	require.Error(t, results[2].Err)

	// One failed source never reduces the other contributions.
	assert.Equal(t, []string{"a", "b", "c"}, sources.Aggregate(results))
}

func TestFetchAllSingleWorker(t *testing.T) {
	t.Parallel()

	client := &stubClient{bodies: map[string]string{
		"https://one.example": "a\n",
		"https://two.example": "b\n",
	}}
	fetcher := sources.NewFetcher(client, 1, time.Millisecond, 1)

	results := fetcher.FetchAll(t.Context(), []string{"https://one.example", "https://two.example"})

	assert.Equal(t, []string{"a", "b"}, sources.Aggregate(results))
}
