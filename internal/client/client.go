package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

const JSONContentType = "application/json"

// ErrNoSession is returned when /api/new_chat answers without a session id.
var ErrNoSession = errors.New("backend returned no session id")

// APIError describes a non-2xx answer from the backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api request failed: status %d", e.Status)
	}
	return fmt.Sprintf("api request failed: status %d, message %s", e.Status, e.Message)
}

type apiErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Detail  any    `json:"detail"`
}

// Client talks to the Shanvika backend over its JSON API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger attaches a logger for request diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New returns a client for the backend rooted at baseURL. The default HTTP
// client has no timeout: requests end when the backend answers or the
// caller's context is canceled.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend root the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) newRequest(ctx context.Context, method, path string, payload any) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", JSONContentType)
	}
	return req, nil
}

// send performs the request and returns the raw body with the status code.
// Transport errors and context cancellation are returned unwrapped enough
// for errors.Is to see context.Canceled.
func (c *Client) send(ctx context.Context, method, path string, payload any, accept string) (*http.Response, []byte, error) {
	req, err := c.newRequest(ctx, method, path, payload)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Accept", accept)

	res, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		c.logger.Warn("request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return nil, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		return nil, nil, fmt.Errorf("read %s %s: %w", method, path, err)
	}

	c.logger.Debug("request done",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", res.StatusCode),
		zap.Int("bytes", len(body)),
	)
	return res, body, nil
}

// do sends a JSON request and decodes a JSON answer into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	res, body, err := c.send(ctx, method, path, payload, JSONContentType)
	if err != nil {
		return err
	}
	if err := handleAPIError(res, body); err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func handleAPIError(res *http.Response, body []byte) error {
	if res.StatusCode >= 200 && res.StatusCode < 300 {
		return nil
	}

	apiErr := &APIError{Status: res.StatusCode}
	var decoded apiErrorBody
	if err := json.Unmarshal(body, &decoded); err == nil {
		switch {
		case decoded.Error != "":
			apiErr.Message = decoded.Error
		case decoded.Message != "":
			apiErr.Message = decoded.Message
		case decoded.Detail != nil:
			apiErr.Message = fmt.Sprint(decoded.Detail)
		}
	} else {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	return apiErr
}
