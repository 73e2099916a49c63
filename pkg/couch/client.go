package couch

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Ratio1/couch_sdk_go/internal/httpx"
)

// Client issues requests against database handles. It holds no per-database
// state, so one Client serves any number of handles.
type Client struct {
	http   *httpx.Client
	logger *slog.Logger
	host   string
	port   int
}

type settings struct {
	httpOpts []httpx.Option
	logger   *slog.Logger
	host     string
	port     int
	registry prometheus.Registerer
	metrics  bool
}

// Option configures a Client.
type Option func(*settings)

// WithHTTPClient overrides the underlying http.Client, e.g. to inject a
// custom http.RoundTripper.
func WithHTTPClient(h *http.Client) Option {
	return func(s *settings) {
		s.httpOpts = append(s.httpOpts, httpx.WithHTTPClient(h))
	}
}

// WithHeaders adds headers sent with every request.
func WithHeaders(h http.Header) Option {
	return func(s *settings) {
		s.httpOpts = append(s.httpOpts, httpx.WithHeaders(h))
	}
}

// WithBasicAuth sends credentials with every request.
func WithBasicAuth(user, password string) Option {
	return func(s *settings) {
		s.httpOpts = append(s.httpOpts, httpx.WithBasicAuth(user, password))
	}
}

// WithTimeout bounds each exchange.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) {
		s.httpOpts = append(s.httpOpts, httpx.WithTimeout(d))
	}
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDefaults replaces the host and port used when an entry point is
// called with an empty host or zero port.
func WithDefaults(host string, port int) Option {
	return func(s *settings) {
		if strings.TrimSpace(host) != "" {
			s.host = host
		}
		if port > 0 {
			s.port = port
		}
	}
}

// WithMetrics registers request collectors with reg (nil means the default registerer).
func WithMetrics(reg prometheus.Registerer) Option {
	return func(s *settings) {
		s.metrics = true
		s.registry = reg
	}
}

// New constructs a Client.
func New(opts ...Option) (*Client, error) {
	s := &settings{
		logger: slog.Default(),
		host:   DefaultHost,
		port:   DefaultPort,
	}
	for _, opt := range opts {
		opt(s)
	}

	httpOpts := append([]httpx.Option{httpx.WithLogger(s.logger)}, s.httpOpts...)
	if s.metrics {
		m, err := httpx.NewMetrics(s.registry, "couch")
		if err != nil {
			return nil, fmt.Errorf("couch: register metrics: %w", err)
		}
		httpOpts = append(httpOpts, httpx.WithMetrics(m))
	}

	return &Client{
		http:   httpx.NewClient(httpOpts...),
		logger: s.logger,
		host:   s.host,
		port:   s.port,
	}, nil
}

// NewWithConfig validates cfg and constructs a Client from it. Options are
// applied after the configuration.
func NewWithConfig(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	base := []Option{WithDefaults(cfg.Host, cfg.Port)}
	if cfg.Username != "" {
		base = append(base, WithBasicAuth(cfg.Username, cfg.Password))
	}
	if cfg.Timeout > 0 {
		base = append(base, WithTimeout(cfg.Timeout))
	}
	return New(append(base, opts...)...)
}

// Handle builds a handle for name, applying the client defaults to an empty
// host or zero port.
func (c *Client) Handle(name, host string, port int) *Handle {
	if strings.TrimSpace(host) == "" {
		host = c.host
	}
	if port <= 0 {
		port = c.port
	}
	return NewHandle(name, host, port)
}
