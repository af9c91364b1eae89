// Package api is the REST client for the fleet server.
package api

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
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/fleetdash/fleetdash/internal/logging"
	"github.com/fleetdash/fleetdash/internal/version"
)

const (
	defaultTimeout    = 15 * time.Second
	defaultRetries    = 2
	defaultRetryDelay = 200 * time.Millisecond
	maxBodySize       = 8 << 20
)

// Page is one page of a listing. Total is -1 when the server did not say.
type Page struct {
	Items []Record `json:"items"`
	Total int      `json:"total"`
}

// Session is issued by Login
type Session struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

// Health is the /health response
type Health struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// Client talks to one fleet server
type Client struct {
	baseURL    string
	token      string
	http       *http.Client
	retries    uint64
	retryDelay time.Duration
}

// Option configures a Client
type Option func(*Client)

// WithToken sends the bearer token with every request
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithRetries sets how many times a transient failure is retried and the
// base delay of the exponential backoff between attempts.
func WithRetries(n int, delay time.Duration) Option {
	return func(c *Client) {
		if n < 0 {
			n = 0
		}
		c.retries = uint64(n)
		c.retryDelay = delay
	}
}

// NewClient creates a client for the server at baseURL
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		http:       &http.Client{Timeout: defaultTimeout},
		retries:    defaultRetries,
		retryDelay: defaultRetryDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.retryDelay <= 0 {
		c.retryDelay = defaultRetryDelay
	}
	return c
}

// BaseURL returns the server URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// WithToken returns a copy of c that authenticates with token. Transport
// and retry settings carry over; c itself is unchanged.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

// HasToken reports whether requests are authenticated
func (c *Client) HasToken() bool {
	return c.token != ""
}

// List fetches one page of a collection. The server may answer with
// {"items": [...], "total": N} or a bare array, in which case Total is -1.
func (c *Client) List(ctx context.Context, res Resource, q Query) (Page, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, res.Path(), q.Values(), nil, &raw); err != nil {
		return Page{}, err
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		var items []Record
		if err := json.Unmarshal(raw, &items); err != nil {
			return Page{}, fmt.Errorf("failed to decode %s list: %w", res, err)
		}
		return Page{Items: items, Total: -1}, nil
	}

	page := Page{Total: -1}
	if err := json.Unmarshal(raw, &page); err != nil {
		return Page{}, fmt.Errorf("failed to decode %s list: %w", res, err)
	}
	return page, nil
}

// Get fetches one record by id
func (c *Client) Get(ctx context.Context, res Resource, id string) (Record, error) {
	var rec Record
	path := res.Path() + "/" + url.PathEscape(id)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Login exchanges credentials for a session token
func (c *Client) Login(ctx context.Context, username, password string) (*Session, error) {
	body := map[string]string{"username": username, "password": password}
	var sess Session
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, body, &sess); err != nil {
		return nil, err
	}
	if sess.Token == "" {
		return nil, errors.New("login response did not include a token")
	}
	if sess.Username == "" {
		sess.Username = username
	}
	return &sess, nil
}

// Ping checks that the server is reachable
func (c *Client) Ping(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.do(ctx, http.MethodGet, "/health", nil, nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// do performs a request, retrying transient failures with exponential backoff
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	backoff := retry.WithMaxRetries(c.retries, retry.NewExponential(c.retryDelay))
	attempt := 0
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		err := c.once(ctx, method, u, payload, out)
		if err == nil {
			return nil
		}

		var apiErr *APIError
		transient := false
		switch {
		case ctx.Err() != nil:
		case errors.As(err, &apiErr):
			transient = apiErr.Transient()
		default:
			var urlErr *url.Error
			transient = errors.As(err, &urlErr)
		}
		logging.Logger.Debug("request failed", "method", method, "url", u, "attempt", attempt, "transient", transient, "error", err)
		if transient {
			return retry.RetryableError(err)
		}
		return err
	})
}

func (c *Client) once(ctx context.Context, method, u string, payload []byte, out any) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "fleetdash/"+version.Version)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	logging.Logger.Debug("request", "method", method, "url", u, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp.StatusCode, data)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
