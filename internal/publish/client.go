// Package publish writes run artifacts to a remote version-controlled
// content store through a GitHub-compatible contents API, with
// optimistic-concurrency tokens and rate-limit aware flow control.
package publish

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tracknest/trackersync/internal/httpclient"
	"github.com/tracknest/trackersync/internal/logger"
)

const (
	headerRateLimitRemaining = "X-RateLimit-Remaining"
	headerRateLimitReset     = "X-RateLimit-Reset"

	acceptContentsAPI = "application/vnd.github.v3+json"

	// maxResponseSize caps contents-API response bodies.
	maxResponseSize = 10 * 1024 * 1024
)

// File is the current remote state of one artifact path.
type File struct {
	// Content is the decoded file text
	Content string

	// SHA is the opaque version token required on conditional writes
	SHA string
}

// Client is the contents-API surface the Publisher depends on.
type Client interface {
	// GetFile reads a path's current content and version token. Returns
	// ErrNotFound when the path has no stored content.
	GetFile(ctx context.Context, path string) (*File, error)

	// PutFile writes content to a path. sha is the version token read
	// previously; empty means first-time creation.
	PutFile(ctx context.Context, path, content, message, sha string) error
}

// RESTClient talks to a GitHub-compatible contents API. Rate-limit signals
// are absorbed inside each call: when the remaining quota is exhausted the
// client sleeps until the advertised reset and repeats the same request.
type RESTClient struct {
	baseURL string
	owner   string
	repo    string
	token   string
	client  *http.Client

	// injectable for rate-limit tests
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRESTClient creates a contents-API client for one repository.
func NewRESTClient(baseURL, owner, repo, token string, timeout time.Duration) *RESTClient {
	return &RESTClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		owner:   owner,
		repo:    repo,
		token:   token,
		client:  &http.Client{Timeout: timeout},
		now:     time.Now,
		sleep:   sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *RESTClient) contentsURL(path string) string {
	return fmt.Sprintf("%s/repos/%s/%s/contents/%s", c.baseURL, c.owner, c.repo, path)
}

// contentsResponse is the JSON shape of a contents-API read.
type contentsResponse struct {
	SHA     string `json:"sha"`
	Content string `json:"content"`
}

// putRequest is the JSON body of a contents-API write.
type putRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	SHA     string `json:"sha,omitempty"`
}

// GetFile reads the current content and version token of a path.
func (c *RESTClient) GetFile(ctx context.Context, path string) (*File, error) {
	url := c.contentsURL(path)

	for {
		resp, err := c.do(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		body, err := readBody(resp)
		if err != nil {
			return nil, err
		}

		switch resp.StatusCode {
		case http.StatusOK:
			var decoded contentsResponse
			if err := json.Unmarshal(body, &decoded); err != nil {
				return nil, fmt.Errorf("failed to decode contents response for %s: %w", path, err)
			}
			content, err := decodeContent(decoded.Content)
			if err != nil {
				return nil, fmt.Errorf("failed to decode content of %s: %w", path, err)
			}
			// The read succeeded; an exhausted quota only delays the next
			// call, it never repeats this one.
			if wait, throttled := c.rateLimitWait(resp); throttled {
				if err := c.waitForReset(ctx, path, wait); err != nil {
					return nil, err
				}
			}
			return &File{Content: content, SHA: decoded.SHA}, nil

		case http.StatusNotFound:
			return nil, fmt.Errorf("%s: %w", path, ErrNotFound)

		case http.StatusForbidden:
			retry, ferr := c.forbiddenOrWait(ctx, path, resp)
			if retry {
				continue
			}
			return nil, ferr

		default:
			return nil, &Error{
				Kind: KindTransient,
				Path: path,
				Err:  httpclient.NewHTTPError(resp.StatusCode, url, strings.TrimSpace(string(body))),
			}
		}
	}
}

// PutFile writes content to a path, including the version token when one
// was read. The caller owns retry policy for transient failures; rate-limit
// waits happen here and do not consume retry attempts.
func (c *RESTClient) PutFile(ctx context.Context, path, content, message, sha string) error {
	url := c.contentsURL(path)

	payload, err := json.Marshal(putRequest{
		Message: message,
		Content: base64.StdEncoding.EncodeToString([]byte(content)),
		SHA:     sha,
	})
	if err != nil {
		return fmt.Errorf("failed to encode write request for %s: %w", path, err)
	}

	for {
		resp, err := c.do(ctx, http.MethodPut, url, payload)
		if err != nil {
			return err
		}
		body, err := readBody(resp)
		if err != nil {
			return err
		}

		switch resp.StatusCode {
		case http.StatusOK, http.StatusCreated:
			// The write landed; an exhausted quota only delays the next
			// call, it never repeats this one.
			if wait, throttled := c.rateLimitWait(resp); throttled {
				if err := c.waitForReset(ctx, path, wait); err != nil {
					return err
				}
			}
			return nil

		case http.StatusForbidden:
			retry, ferr := c.forbiddenOrWait(ctx, path, resp)
			if retry {
				continue
			}
			return ferr

		default:
			return &Error{
				Kind: KindTransient,
				Path: path,
				Err:  httpclient.NewHTTPError(resp.StatusCode, url, strings.TrimSpace(string(body))),
			}
		}
	}
}

func (c *RESTClient) do(ctx context.Context, method, url string, payload []byte) (*http.Response, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "token "+c.token)
	req.Header.Set("Accept", acceptContentsAPI)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	return resp, nil
}

func readBody(resp *http.Response) ([]byte, error) {
	defer func() {
		_ = resp.Body.Close()
	}()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}

// rateLimitWait reports whether the response signals quota exhaustion
// (remaining <= 1) and, if so, how long to wait before repeating the call.
func (c *RESTClient) rateLimitWait(resp *http.Response) (time.Duration, bool) {
	remainingStr := resp.Header.Get(headerRateLimitRemaining)
	if remainingStr == "" {
		return 0, false
	}
	remaining, err := strconv.Atoi(remainingStr)
	if err != nil || remaining > 1 {
		return 0, false
	}

	reset, err := strconv.ParseInt(resp.Header.Get(headerRateLimitReset), 10, 64)
	if err != nil || reset <= 0 {
		return 0, false
	}

	return c.resetWait(reset), true
}

// resetWait computes max(reset-now, 1s).
func (c *RESTClient) resetWait(reset int64) time.Duration {
	wait := reset - c.now().Unix()
	if wait < 1 {
		wait = 1
	}
	return time.Duration(wait) * time.Second
}

func (c *RESTClient) waitForReset(ctx context.Context, path string, wait time.Duration) error {
	logger.Warnf("Rate limit nearly exhausted for %s, waiting %s", path, wait)
	return c.sleep(ctx, wait)
}

// forbiddenOrWait distinguishes a throttled 403 (rate-limit headers present)
// from a terminal permission failure. For a throttle it sleeps until the
// reset and asks the caller to repeat the same request; the wait is flow
// control and consumes no retry attempt.
func (c *RESTClient) forbiddenOrWait(ctx context.Context, path string, resp *http.Response) (bool, error) {
	if resetStr := resp.Header.Get(headerRateLimitReset); resp.Header.Get(headerRateLimitRemaining) != "" && resetStr != "" {
		if reset, err := strconv.ParseInt(resetStr, 10, 64); err == nil && reset > 0 {
			wait := c.resetWait(reset)
			logger.Warnf("Throttled on %s, waiting %s", path, wait)
			if err := c.sleep(ctx, wait); err != nil {
				return false, err
			}
			return true, nil
		}
	}

	return false, &Error{
		Kind: KindForbidden,
		Path: path,
		Err:  fmt.Errorf("insufficient permissions"),
	}
}

// decodeContent decodes base64 file content; the API wraps it with newlines.
func decodeContent(encoded string) (string, error) {
	compact := strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == ' ' {
			return -1
		}
		return r
	}, encoded)

	decoded, err := base64.StdEncoding.DecodeString(compact)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}
