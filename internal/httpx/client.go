package httpx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// DefaultTimeout bounds a single exchange when the caller does not supply an http.Client.
const DefaultTimeout = 10 * time.Second

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used by the helper.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithHeaders assigns default headers added to every request.
func WithHeaders(h http.Header) Option {
	return func(c *Client) {
		for k, values := range h {
			for _, v := range values {
				c.headers.Add(k, v)
			}
		}
	}
}

// WithLogger routes exchange logs to l.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics records every exchange into m.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithBasicAuth attaches credentials to every request.
func WithBasicAuth(user, password string) Option {
	return func(c *Client) {
		c.user = user
		c.password = password
		c.auth = user != ""
	}
}

// WithTimeout overrides the per-exchange timeout. The supplied http.Client,
// if any, is copied rather than mutated.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// Client wraps http.Client with header, auth, logging and metrics plumbing.
// It never interprets status codes; every completed exchange is returned.
type Client struct {
	httpClient *http.Client
	headers    http.Header
	logger     *slog.Logger
	metrics    *Metrics
	timeout    time.Duration

	auth     bool
	user     string
	password string
}

// Request describes a single outbound request. BaseURL is absolute and Path
// is appended to it verbatim after a single slash.
type Request struct {
	Method  string
	BaseURL string
	Path    string
	Query   url.Values
	Header  http.Header
	Body    []byte
}

// Response is a fully drained HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// NewClient creates a Client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		headers: make(http.Header),
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.timeout > 0 {
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}
	return c
}

// Do executes req once and returns the drained response regardless of its status.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, errors.New("httpx: request is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if req.Method == "" {
		return nil, errors.New("httpx: HTTP method is required")
	}

	fullURL, err := BuildURL(req.BaseURL, req.Path, req.Query)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("httpx: build request: %w", err)
	}

	httpReq.Header = cloneHeader(c.headers)
	for k, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(k, v)
		}
	}
	if httpReq.Header.Get(RequestIDHeader) == "" {
		httpReq.Header.Set(RequestIDHeader, uuid.NewString())
	}
	if c.auth {
		httpReq.SetBasicAuth(c.user, c.password)
	}
	requestID := httpReq.Header.Get(RequestIDHeader)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	elapsed := time.Since(start)
	if err != nil {
		closeBody(respBody(resp))
		c.metrics.observe(req.Method, 0, elapsed)
		c.logger.WarnContext(ctx, "request failed",
			"method", req.Method,
			"url", fullURL,
			"request_id", requestID,
			"error", err,
		)
		return nil, &TransportError{Method: req.Method, URL: fullURL, Err: err}
	}

	data, err := ReadAllAndClose(resp.Body)
	if err != nil {
		c.metrics.observe(req.Method, 0, elapsed)
		return nil, &TransportError{Method: req.Method, URL: fullURL, Err: fmt.Errorf("read response body: %w", err)}
	}

	c.metrics.observe(req.Method, resp.StatusCode, elapsed)
	c.logger.DebugContext(ctx, "request completed",
		"method", req.Method,
		"url", fullURL,
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration", elapsed,
	)

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       data,
	}, nil
}

// BuildURL joins base and path and attaches the encoded query.
func BuildURL(base, path string, q url.Values) (string, error) {
	if strings.TrimSpace(base) == "" {
		return "", errors.New("httpx: base URL is required")
	}
	target := strings.TrimRight(base, "/")
	if path != "" {
		target += "/" + strings.TrimLeft(path, "/")
	}
	parsed, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("httpx: invalid URL: %w", err)
	}
	if len(q) > 0 {
		parsed.RawQuery = q.Encode()
	}
	return parsed.String(), nil
}

// ReadAllAndClose drains the reader and ensures it is closed.
func ReadAllAndClose(rc io.ReadCloser) ([]byte, error) {
	defer closeBody(rc)
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func closeBody(rc io.ReadCloser) {
	if rc != nil {
		_ = rc.Close()
	}
}

func respBody(resp *http.Response) io.ReadCloser {
	if resp == nil {
		return nil
	}
	return resp.Body
}

func cloneHeader(src http.Header) http.Header {
	dst := make(http.Header, len(src))
	for k, values := range src {
		vCopy := make([]string, len(values))
		copy(vCopy, values)
		dst[k] = vCopy
	}
	return dst
}
