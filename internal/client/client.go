// Package client implements the REST resource clients of the sync layer.
// It is the sole I/O boundary: every call returns a typed *domain.AppError
// on failure so callers can tell transport, validation, and server faults
// apart without inspecting HTTP details.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/simp-lee/shopsync/internal/domain"
)

const defaultTimeout = 10 * time.Second

// maxResponseBytes caps how much of a response body is read. The commerce
// API never sends pages anywhere near this size.
const maxResponseBytes = 8 << 20

// Client is the shared HTTP core behind every Resource. It carries the base
// URL, the bearer token, and the underlying http.Client.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithToken sets the bearer token attached to every request. Token storage
// and refresh are the caller's concern.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithTimeout sets the per-request timeout. Timeouts surface as network
// errors.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New creates a Client for the commerce API at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}

	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultTimeout},
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// get issues a GET and returns the raw response body.
func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, query, nil)
}

// post issues a POST with a JSON body and returns the raw response body.
func (c *Client) post(ctx context.Context, path string, body any) ([]byte, error) {
	return c.do(ctx, http.MethodPost, path, nil, body)
}

// put issues a PUT with a JSON body and returns the raw response body.
func (c *Client) put(ctx context.Context, path string, body any) ([]byte, error) {
	return c.do(ctx, http.MethodPut, path, nil, body)
}

// delete issues a DELETE.
func (c *Client) delete(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// do performs one HTTP round trip and classifies the outcome:
//   - transport failure (no response) → CodeNetwork
//   - 404 → CodeNotFound
//   - other 4xx → CodeValidation, with field errors when the body carries them
//   - 5xx → CodeServer
//
// On 2xx/3xx the raw body is returned for the caller to decode.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	endpoint := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, domain.NewValidationError("unencodable request payload", nil)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, domain.NewValidationError("invalid request", map[string]string{"url": endpoint})
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.WarnContext(ctx, "request failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.Any("error", err),
		)
		return nil, domain.NewAppError(domain.CodeNetwork, "request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, domain.NewAppError(domain.CodeNetwork, "reading response failed", err)
	}

	c.log.DebugContext(ctx, "request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode < http.StatusBadRequest {
		return raw, nil
	}
	return nil, c.classifyFailure(ctx, method, path, resp.StatusCode, raw)
}

// classifyFailure maps a non-2xx response to the error taxonomy.
func (c *Client) classifyFailure(ctx context.Context, method, path string, status int, raw []byte) error {
	msg := wireMessage(raw)

	switch {
	case status == http.StatusNotFound:
		if msg == "" {
			msg = "not found"
		}
		return domain.NewAppError(domain.CodeNotFound, msg, nil)

	case status >= http.StatusInternalServerError:
		if msg == "" {
			msg = "server error"
		}
		c.log.WarnContext(ctx, "server error",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", status),
		)
		return domain.NewAppError(domain.CodeServer, msg, nil)

	default:
		if msg == "" {
			msg = "validation error"
		}
		return domain.NewValidationError(msg, wireFieldErrors(raw))
	}
}

// wireMessage extracts the "message" from an error envelope, if present.
func wireMessage(raw []byte) string {
	var envelope struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return ""
	}
	return envelope.Message
}

// wireFieldErrors extracts the per-field messages from a validation error
// envelope, if present.
func wireFieldErrors(raw []byte) map[string]string {
	var envelope struct {
		Errors map[string]string `json:"errors"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil || len(envelope.Errors) == 0 {
		return nil
	}
	return envelope.Errors
}
