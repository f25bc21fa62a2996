// Package api implements the typed REST client for the prode backend.
//
// Every operation takes a context and builds its request with it, so a
// canceled context aborts the transport call rather than only gating the
// result. Errors are normalized into the package's sentinel kinds.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/okian/prode/pkg/logger"
	"github.com/okian/prode/pkg/metrics"
)

const defaultTimeout = 10 * time.Second

// Credentials supplies the bearer token and receives the global
// authorization-failure signal.
type Credentials interface {
	// Token returns the current credential, empty when logged out.
	Token() string
	// Unauthorized is invoked on any response with an auth-failure status.
	Unauthorized()
}

// Client is the typed REST client.
type Client struct {
	baseURL string
	http    *http.Client
	creds   Credentials
	log     logger.Logger
}

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithHTTPClient sets a custom underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithCredentials installs the credential source.
func WithCredentials(creds Credentials) Option {
	return func(c *Client) {
		c.creds = creds
	}
}

// WithLogger sets a custom logger for the client.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// New creates a Client for the backend at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultTimeout},
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// errorPayload mirrors the server's structured error body. Either field may
// carry the human-readable message.
type errorPayload struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// do performs one request and decodes a 2xx body into out (when non-nil).
// endpoint labels metrics; path is the URL path relative to the base.
func (c *Client) do(ctx context.Context, endpoint, method, path string, body, out any) error {
	return c.call(ctx, endpoint, method, path, body, out, true)
}

// doPublic is do for calls outside the credential lifecycle: an auth-failure
// status is reported to the caller without running the global interceptor, so
// a rejected login attempt cannot log out the current user.
func (c *Client) doPublic(ctx context.Context, endpoint, method, path string, body, out any) error {
	return c.call(ctx, endpoint, method, path, body, out, false)
}

func (c *Client) call(ctx context.Context, endpoint, method, path string, body, out any, intercept bool) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: encode request: %w", ErrValidation, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.creds != nil {
		if tok := c.creds.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.RecordAPIRequestDuration(endpoint, method, float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordNetworkError()
		metrics.RecordAPIRequest(endpoint, method, "none")
		return fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()
	metrics.RecordAPIRequest(endpoint, method, strconv.Itoa(resp.StatusCode))

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		if !intercept {
			return fmt.Errorf("%w: credentials rejected", ErrAuth)
		}
		// Global interceptor: log out unconditionally, whatever the call was.
		if c.creds != nil {
			c.creds.Unauthorized()
		}
		return fmt.Errorf("%w: session expired", ErrAuth)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", errNotFound, path)
	case resp.StatusCode >= http.StatusBadRequest:
		return fmt.Errorf("%w: %s", ErrRemote, remoteMessage(resp.Body))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: decode response: %w", ErrRemote, err)
		}
	}
	return nil
}

// remoteMessage extracts the human-readable message from a failure body,
// falling back to a generic string when the payload is absent or opaque.
func remoteMessage(body io.Reader) string {
	const fallback = "the server could not process the request"
	data, err := io.ReadAll(io.LimitReader(body, 1<<16))
	if err != nil {
		return fallback
	}
	var payload errorPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return fallback
	}
	if payload.Message != "" {
		return payload.Message
	}
	if payload.Error != "" {
		return payload.Error
	}
	return fallback
}

// requireCredential fails fast when an operation needs an installed token.
func (c *Client) requireCredential() error {
	if c.creds == nil || c.creds.Token() == "" {
		return fmt.Errorf("%w: no credential installed", ErrAuth)
	}
	return nil
}
