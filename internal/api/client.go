// Package api is the HTTP client for the CarePoint REST API.
//
// The client attaches the bearer token, sends the request once, and turns
// every failure into an *apierr.Error. It never notifies the user, touches
// session storage or navigates; the gateway package does that.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/carepoint-rx/carepoint/internal/apierr"
)

const (
	defaultTimeout  = 30 * time.Second
	maxResponseBody = 10 << 20 // 10MB
	bearerPrefix    = "Bearer "
)

// TokenSource yields the bearer token to attach to a request.
// An empty token means the request is sent unauthenticated.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenFunc adapts a function to TokenSource
type TokenFunc func(ctx context.Context) (string, error)

// Token implements TokenSource
func (f TokenFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

// Client represents an HTTP client for the CarePoint API
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	tokens     TokenSource
	logger     zerolog.Logger
	userAgent  string
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithLogger sets the request logger
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithUserAgent sets the User-Agent header
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// New creates a new API client. tokens may be nil for a client that never
// authenticates.
func New(baseURL string, tokens TokenSource, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("API base URL is required")
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid API base URL %q: must be absolute", baseURL)
	}

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: defaultTimeout},
		tokens:     tokens,
		logger:     zerolog.Nop(),
		userAgent:  "carepoint",
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// WithTokens returns a shallow copy of c that reads tokens from ts.
// The web front end uses it to bind a shared client to one request's session.
func (c *Client) WithTokens(ts TokenSource) *Client {
	cp := *c
	cp.tokens = ts
	return &cp
}

// Get sends a GET request and decodes the response into out
func (c *Client) Get(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodGet, path, nil, out, opts...)
}

// Post sends a POST request
func (c *Client) Post(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodPost, path, body, out, opts...)
}

// Put sends a PUT request
func (c *Client) Put(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodPut, path, body, out, opts...)
}

// Patch sends a PATCH request
func (c *Client) Patch(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodPatch, path, body, out, opts...)
}

// Delete sends a DELETE request
func (c *Client) Delete(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodDelete, path, nil, out, opts...)
}

// Do sends one request. body may be nil, a *Multipart, an io.Reader (sent
// as-is) or any JSON-encodable value. out may be nil. Failures are returned
// as *apierr.Error or *DecodeError; nothing is retried.
func (c *Client) Do(ctx context.Context, method, path string, body, out any, opts ...RequestOption) error {
	ro := requestOptions{header: http.Header{}}
	for _, opt := range opts {
		opt(&ro)
	}

	target, err := c.resolve(path, ro.query)
	if err != nil {
		return err
	}

	reader, contentType, err := encodeBody(body)
	if err != nil {
		return fmt.Errorf("failed to encode %s %s request: %w", method, path, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	requestID := ulid.Make().String()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if ro.contentType != "" {
		req.Header.Set("Content-Type", ro.contentType)
	}
	for k, vs := range ro.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	if token := c.token(ctx); token != "" {
		req.Header.Set("Authorization", bearerPrefix+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug().
			Err(err).
			Str("method", method).
			Str("path", path).
			Str("request_id", requestID).
			Msg("API request failed without response")
		return apierr.Network(method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return apierr.Network(method, path, fmt.Errorf("failed to read response: %w", err))
	}

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Str("request_id", requestID).
		Msg("API request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apierr.FromResponse(method, path, resp.StatusCode, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, out); err != nil {
		return &DecodeError{Method: method, Path: path, Err: err}
	}
	if err := Validate(out); err != nil {
		return &DecodeError{Method: method, Path: path, Err: err}
	}

	return nil
}

// token snapshots the current token. A storage failure sends the request
// unauthenticated and lets the API decide.
func (c *Client) token(ctx context.Context) string {
	if c.tokens == nil {
		return ""
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Failed to read session token")
		return ""
	}
	return token
}

func (c *Client) resolve(path string, query url.Values) (string, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("invalid request path %q: %w", path, err)
	}
	if ref.IsAbs() {
		return "", fmt.Errorf("request path %q must be relative to the API base URL", path)
	}

	u := *c.baseURL
	u.Path = strings.TrimRight(c.baseURL.Path, "/") + "/" + strings.TrimLeft(ref.Path, "/")
	u.RawPath = ""

	q := ref.Query()
	for k, vs := range query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

func encodeBody(body any) (io.Reader, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case *Multipart:
		return b.encode()
	case io.Reader:
		return b, "application/octet-stream", nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(data), "application/json", nil
	}
}

// RequestOption customizes a single request
type RequestOption func(*requestOptions)

type requestOptions struct {
	header      http.Header
	query       url.Values
	contentType string
}

// WithHeader adds a header to the request
func WithHeader(key, value string) RequestOption {
	return func(o *requestOptions) {
		o.header.Add(key, value)
	}
}

// WithQuery adds query parameters to the request
func WithQuery(q url.Values) RequestOption {
	return func(o *requestOptions) {
		if o.query == nil {
			o.query = url.Values{}
		}
		for k, vs := range q {
			for _, v := range vs {
				o.query.Add(k, v)
			}
		}
	}
}

// WithContentType overrides the Content-Type header
func WithContentType(ct string) RequestOption {
	return func(o *requestOptions) {
		o.contentType = ct
	}
}
