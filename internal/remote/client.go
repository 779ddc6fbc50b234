// Package remote talks to the grading server.
package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	appErr "examclient/pkg/errors"
)

const defaultTimeout = 5 * time.Second

// ResponseInfo carries response details.
type ResponseInfo struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}

// Outcome is the structured result of one server call. Network failures
// never surface as panics or bare errors; callers branch on the flags.
type Outcome struct {
	OK         bool
	Offline    bool
	StatusCode int
	Err        error
}

// Failed reports whether the call did not succeed for any reason.
func (o Outcome) Failed() bool {
	return !o.OK
}

// Client wraps HTTP requests to the grading server.
type Client struct {
	mu         sync.RWMutex
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

// New creates a client. A zero timeout uses the default.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    normalizeBaseURL(baseURL),
		timeout:    timeout,
		httpClient: &http.Client{},
	}
}

func (c *Client) SetBaseURL(baseURL string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.baseURL = normalizeBaseURL(baseURL)
}

func (c *Client) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

func (c *Client) SetTimeout(timeout time.Duration) {
	if timeout <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timeout = timeout
}

func (c *Client) snapshot() (string, time.Duration) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL, c.timeout
}

// Do sends one request bounded by the client timeout.
func (c *Client) Do(ctx context.Context, method, path, contentType string, body []byte) (ResponseInfo, error) {
	var info ResponseInfo
	baseURL, timeout := c.snapshot()
	if baseURL == "" {
		return info, appErr.New(appErr.ServerUnreachable).WithMessage("remote host is not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, fmt.Sprintf("%s%s", baseURL, path), reader)
	if err != nil {
		return info, appErr.Wrapf(err, appErr.ServerUnreachable, "build request failed")
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	info.Duration = time.Since(start)
	if err != nil {
		return info, appErr.Wrapf(err, appErr.ServerUnreachable, "request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	info.StatusCode = resp.StatusCode
	info.Headers = resp.Header
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return info, appErr.Wrapf(err, appErr.ServerUnreachable, "read response body failed")
	}
	info.Body = bodyBytes
	return info, nil
}

// outcome folds a response into an Outcome. Any transport error counts as
// offline; a non-2xx status is a rejection.
func outcome(info ResponseInfo, err error) Outcome {
	if err != nil {
		return Outcome{Offline: true, StatusCode: info.StatusCode, Err: err}
	}
	if info.StatusCode < 200 || info.StatusCode >= 300 {
		return Outcome{
			StatusCode: info.StatusCode,
			Err:        appErr.Newf(appErr.ServerRejected, "server responded with status %d", info.StatusCode),
		}
	}
	return Outcome{OK: true, StatusCode: info.StatusCode}
}

func normalizeBaseURL(baseURL string) string {
	return strings.TrimRight(strings.TrimSpace(baseURL), "/")
}
