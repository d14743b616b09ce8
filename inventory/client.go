package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/yairfalse/peili/telemetry"
)

const (
	// DefaultDataTimeout bounds writes and token calls.
	DefaultDataTimeout = 30 * time.Second
	// DefaultListTimeout bounds paginated listing calls, where the latency
	// budget is tighter.
	DefaultListTimeout = 5 * time.Second
)

// Client talks to the inventory store. It owns the current bearer token; no
// other component reads or writes it. On a 401 it refreshes the token once
// and retries the original call once. Concurrent calls hitting 401 share a
// single refresh instead of each posting to /token.
type Client struct {
	baseURL     string
	username    string
	password    string
	http        *http.Client
	dataTimeout time.Duration
	listTimeout time.Duration
	logger      *telemetry.Logger

	mu    sync.Mutex
	token string
	gen   uint64 // bumped on every successful refresh
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client (used by tests).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithTimeouts overrides the per-call budgets.
func WithTimeouts(data, list time.Duration) Option {
	return func(c *Client) {
		if data > 0 {
			c.dataTimeout = data
		}
		if list > 0 {
			c.listTimeout = list
		}
	}
}

// NewClient creates a store client. Authenticate must be called before the
// first data call.
func NewClient(baseURL, username, password string, opts ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		username:    username,
		password:    password,
		http:        &http.Client{},
		dataTimeout: DefaultDataTimeout,
		listTimeout: DefaultListTimeout,
		logger:      telemetry.NewLogger("inventory"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Authenticate acquires the initial bearer token. A failure here fails the
// whole sync run.
func (c *Client) Authenticate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.authenticateLocked(ctx)
}

// authenticateLocked posts credentials to /token. Callers must hold c.mu;
// holding it for the duration of the POST is what serializes refreshes and
// makes other callers wait on the in-flight one.
func (c *Client) authenticateLocked(ctx context.Context) error {
	form := url.Values{}
	form.Set("username", c.username)
	form.Set("password", c.password)

	ctx, cancel := context.WithTimeout(ctx, c.dataTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/token",
		strings.NewReader(form.Encode()))
	if err != nil {
		return &AuthError{Reason: "building token request", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return &AuthError{Reason: "token request failed", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &AuthError{Reason: fmt.Sprintf("token endpoint returned %d: %s", resp.StatusCode, body)}
	}

	var payload struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return &AuthError{Reason: "decoding token response", Err: err}
	}
	if payload.AccessToken == "" {
		return &AuthError{Reason: "token endpoint returned empty access_token"}
	}

	c.token = payload.AccessToken
	c.gen++
	return nil
}

// refresh re-authenticates unless another caller already did while this one
// was waiting for the mutex.
func (c *Client) refresh(ctx context.Context, staleGen uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gen != staleGen {
		// Someone else refreshed while we waited; use their token.
		return nil
	}

	c.logger.WithContext(ctx).Info().Msg("bearer token rejected, refreshing")
	if telemetry.TokenRefreshes != nil {
		telemetry.TokenRefreshes.Add(ctx, 1)
	}
	return c.authenticateLocked(ctx)
}

func (c *Client) currentToken() (string, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token, c.gen
}

// Get performs an authenticated GET with the data-call budget.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out, c.dataTimeout)
}

// List performs an authenticated GET with the tighter listing budget.
func (c *Client) List(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out, c.listTimeout)
}

// Post performs an authenticated POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out, c.dataTimeout)
}

// do runs one call with the single-refresh retry: invoke, on 401 refresh
// once, retry once. A second 401 surfaces as AuthError for this call only.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any, timeout time.Duration) error {
	token, gen := c.currentToken()

	status, respBody, err := c.roundTrip(ctx, method, path, query, body, token, timeout)
	if err != nil {
		return err
	}

	if status == http.StatusUnauthorized {
		if err := c.refresh(ctx, gen); err != nil {
			return err
		}
		token, _ = c.currentToken()

		status, respBody, err = c.roundTrip(ctx, method, path, query, body, token, timeout)
		if err != nil {
			return err
		}
		if status == http.StatusUnauthorized {
			return &AuthError{Reason: fmt.Sprintf("%s %s unauthorized after token refresh", method, path)}
		}
	}

	if status < 200 || status > 299 {
		return &HTTPError{Status: status, Body: string(respBody)}
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", method, path, err)
	}
	return nil
}

// roundTrip performs exactly one HTTP exchange. The request body is
// marshalled fresh each time so a retry never reuses a drained reader.
func (c *Client) roundTrip(ctx context.Context, method, path string, query url.Values, body any, token string, timeout time.Duration) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("encoding %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("building %s %s request: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return 0, nil, &TimeoutError{Op: method + " " + path, Err: err}
		}
		return 0, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return 0, nil, &TimeoutError{Op: method + " " + path, Err: err}
		}
		return 0, nil, fmt.Errorf("reading %s %s response: %w", method, path, err)
	}

	return resp.StatusCode, respBody, nil
}
