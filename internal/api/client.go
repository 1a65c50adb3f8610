// Package api is the REST boundary to the companion backend. One Client
// carries the base URL, the bearer token source, a circuit breaker and a
// TTL cache for the read-only catalogs.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ai-companion-chat/client/pkg/cache"
	apperrors "ai-companion-chat/client/pkg/errors"
	"ai-companion-chat/client/pkg/logger"
	"ai-companion-chat/client/pkg/resilience"
)

// TokenSource provides the current bearer token; empty means signed out.
type TokenSource interface {
	Token() string
}

// Config holds client construction options
type Config struct {
	BaseURL string
	Timeout time.Duration
	Breaker resilience.CircuitBreakerConfig
	Cache   cache.Options
}

// Client talks to the backend REST API
type Client struct {
	baseURL string
	http    *http.Client
	// streamHTTP has no timeout: completions are long-lived; the caller's
	// context is the only deadline.
	streamHTTP *http.Client
	tokens     TokenSource
	breaker    *resilience.CircuitBreaker
	cache      *cache.Cache
	log        *logger.Logger
}

// New creates a backend API client
func New(cfg Config, tokens TokenSource, log *logger.Logger) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.Breaker.Name == "" {
		cfg.Breaker = resilience.DefaultCircuitBreakerConfig("backend-api")
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		http:       &http.Client{Timeout: cfg.Timeout},
		streamHTTP: &http.Client{},
		tokens:     tokens,
		breaker:    resilience.NewCircuitBreaker(cfg.Breaker, log),
		cache:      cache.New(cfg.Cache),
		log:        log.WithComponent("api"),
	}
}

// requestOptions tweak a single call
type requestOptions struct {
	noAuth      bool
	contentType string
	rawBody     io.Reader
}

type requestOption func(*requestOptions)

// withoutAuth skips the bearer header (sign-up / sign-in only)
func withoutAuth() requestOption {
	return func(o *requestOptions) { o.noAuth = true }
}

// withRawBody sends a prebuilt body with the given content type (multipart)
func withRawBody(contentType string, body io.Reader) requestOption {
	return func(o *requestOptions) {
		o.contentType = contentType
		o.rawBody = body
	}
}

// newRequest builds an authenticated JSON request
func (c *Client) newRequest(ctx context.Context, method, path string, body any, opts ...requestOption) (*http.Request, error) {
	var options requestOptions
	for _, opt := range opts {
		opt(&options)
	}

	var reader io.Reader
	contentType := "application/json"
	switch {
	case options.rawBody != nil:
		reader = options.rawBody
		contentType = options.contentType
	case body != nil:
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if reader != nil {
		req.Header.Set("Content-Type", contentType)
	}
	if !options.noAuth {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return req, nil
}

// doJSON performs a request and decodes the body into out (when non-nil).
// Non-OK statuses map onto the client error taxonomy.
func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any, opts ...requestOption) error {
	raw, err := c.doRaw(ctx, method, path, body, opts...)
	if err != nil {
		return err
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apperrors.NewInvalidPayloadError(
			fmt.Sprintf("malformed response from %s %s", method, path)).WithCause(err)
	}
	return nil
}

// doRaw performs a request and returns the response body bytes
func (c *Client) doRaw(ctx context.Context, method, path string, body any, opts ...requestOption) ([]byte, error) {
	req, err := c.newRequest(ctx, method, path, body, opts...)
	if err != nil {
		return nil, err
	}

	var raw []byte
	err = c.breaker.Execute(func() error {
		resp, err := c.http.Do(req)
		if err != nil {
			return apperrors.FromTransport(err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return apperrors.FromTransport(err)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return apperrors.FromStatus(resp.StatusCode, strings.TrimSpace(string(data)))
		}
		raw = data
		return nil
	})
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// doStream issues a request and hands back the raw response without
// consuming the body; the stream consumer owns it from here. The circuit
// breaker is bypassed on purpose: a long-lived stream is not a probe of
// backend health the way a catalog fetch is.
func (c *Client) doStream(ctx context.Context, method, path string, body any) (*http.Response, error) {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream, application/json")

	resp, err := c.streamHTTP.Do(req)
	if err != nil {
		return nil, apperrors.FromTransport(err)
	}
	return resp, nil
}

// cached runs fetch through the catalog cache under key
func cached[T any](c *Client, key string, fetch func() (T, error)) (T, error) {
	if v, ok := c.cache.Get(key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}
	v, err := fetch()
	if err != nil {
		var zero T
		return zero, err
	}
	c.cache.Set(key, v)
	return v, nil
}
