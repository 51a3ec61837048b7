// Package client implements the authenticated HTTP client shared by every
// API wrapper in this module. It attaches bearer credentials, bounds request
// concurrency through an admission queue, and translates failures into a
// closed error taxonomy.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultMaxConcurrent   = 3
	defaultDispatchSpacing = 50 * time.Millisecond

	// adminRetries is the number of extra attempts for a 401 on an admin
	// path while the local token still looks valid. Those are transient
	// concurrency artifacts on the backend, not real auth failures.
	adminRetries = 2
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the structured logger used for retry and queue events.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithMaxConcurrent overrides the in-flight request bound.
func WithMaxConcurrent(n int) Option {
	return func(c *Client) { c.maxConcurrent = n }
}

// WithDispatchSpacing overrides the delay inserted between dispatches.
func WithDispatchSpacing(d time.Duration) Option {
	return func(c *Client) { c.spacing = d }
}

// Client is the base API client. All per-resource wrappers go through it.
type Client struct {
	baseURL       string
	tokens        TokenSource
	http          *http.Client
	logger        zerolog.Logger
	queue         *admissionQueue
	maxConcurrent int
	spacing       time.Duration
	now           func() time.Time
}

// New creates a Client for the given API base URL. The token source is a
// required explicit dependency.
func New(baseURL string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		tokens:        tokens,
		http:          &http.Client{Timeout: 30 * time.Second},
		logger:        zerolog.Nop(),
		maxConcurrent: defaultMaxConcurrent,
		spacing:       defaultDispatchSpacing,
		now:           time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	c.queue = newAdmissionQueue(c.maxConcurrent, c.spacing)
	return c
}

// InFlight returns the number of requests currently executing. Exposed so
// tests can assert the concurrency bound.
func (c *Client) InFlight() int { return c.queue.InFlight() }

// Get issues a GET request and returns the raw JSON body.
func (c *Client) Get(ctx context.Context, path string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

// Post issues a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, path, body)
}

// Put issues a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body interface{}) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPut, path, body)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodDelete, path, nil)
}

// GetInto issues a GET request and unmarshals the response into out.
func (c *Client) GetInto(ctx context.Context, path string, out interface{}) error {
	raw, err := c.Get(ctx, path)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// PostInto issues a POST request and unmarshals the response into out. A nil
// out discards the body.
func (c *Client) PostInto(ctx context.Context, path string, body, out interface{}) error {
	raw, err := c.Post(ctx, path, body)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}

// PutInto issues a PUT request and unmarshals the response into out.
func (c *Client) PutInto(ctx context.Context, path string, body, out interface{}) error {
	raw, err := c.Put(ctx, path, body)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}

// do routes the request through the admission queue and waits for the result.
func (c *Client) do(ctx context.Context, method, path string, body interface{}) (json.RawMessage, error) {
	type result struct {
		data json.RawMessage
		err  error
	}
	ch := make(chan result, 1)
	c.queue.Submit(func() {
		data, err := c.roundTrip(ctx, method, path, body)
		ch <- result{data: data, err: err}
	})
	select {
	case r := <-ch:
		return r.data, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func isAdminPath(path string) bool {
	return strings.HasPrefix(path, "/admin/") || path == "/admin"
}

// roundTrip performs one logical request including the admin 401 retry loop.
func (c *Client) roundTrip(ctx context.Context, method, path string, body interface{}) (json.RawMessage, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
	}

	token, err := c.tokens.Token()
	if err != nil {
		return nil, fmt.Errorf("read token: %w", err)
	}
	attach := tokenUsable(token, c.now())

	attempts := 1
	if isAdminPath(path) && attach {
		attempts = 1 + adminRetries
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			// Linear backoff between admin retries.
			delay := 200*time.Millisecond + time.Duration(attempt)*100*time.Millisecond
			c.logger.Debug().Str("path", path).Int("attempt", attempt).Dur("delay", delay).
				Msg("retrying admin request after 401")
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		data, retry, err := c.once(ctx, method, path, payload, token, attach)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if !retry {
			return nil, err
		}
	}
	return nil, lastErr
}

// once performs a single HTTP exchange. The second return value reports
// whether the failure is the transient admin 401 worth retrying.
func (c *Client) once(ctx context.Context, method, path string, payload []byte, token string, attach bool) (json.RawMessage, bool, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if attach {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, false, networkError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, networkError(err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return data, false, nil
	}

	if resp.StatusCode == http.StatusUnauthorized {
		if isAdminPath(path) && attach && tokenUsable(token, c.now()) {
			// The backend occasionally rejects a valid token under
			// concurrent admin requests; retry instead of logging out.
			return nil, true, errorFromResponse(resp, data)
		}
		c.tokens.Invalidate()
		apiErr := errorFromResponse(resp, data)
		apiErr.LoginRequired = true
		return nil, false, apiErr
	}

	return nil, false, errorFromResponse(resp, data)
}
