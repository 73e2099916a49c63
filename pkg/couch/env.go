package couch

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/Ratio1/couch_sdk_go/internal/devseed"
	"github.com/Ratio1/couch_sdk_go/pkg/couch/mock"
)

const (
	envMode     = "COUCH_RUNTIME_MODE"
	envMockSeed = "COUCH_MOCK_SEED"

	modeAuto = "auto"
	modeHTTP = "http"
	modeMock = "mock"
)

// NewFromEnv initialises a Client from environment variables and returns
// the resolved mode ("http" or "mock"). In auto mode (the default) the
// client talks HTTP when COUCH_HOST is set and falls back to an in-process
// fake server otherwise.
func NewFromEnv(opts ...Option) (client *Client, mode string, err error) {
	mode = strings.ToLower(strings.TrimSpace(os.Getenv(envMode)))
	hostSet := strings.TrimSpace(os.Getenv(envHost)) != ""

	switch mode {
	case "", modeAuto:
		if hostSet {
			return newHTTPClient(opts)
		}
		return newMockClient(opts)
	case modeHTTP:
		if !hostSet {
			return nil, "", fmt.Errorf("couch: HTTP mode requires %s", envHost)
		}
		return newHTTPClient(opts)
	case modeMock:
		return newMockClient(opts)
	default:
		return nil, "", fmt.Errorf("couch: unsupported %s value %q", envMode, mode)
	}
}

func newHTTPClient(opts []Option) (*Client, string, error) {
	cfg, err := ConfigFromEnv()
	if err != nil {
		return nil, "", err
	}
	client, err := NewWithConfig(cfg, opts...)
	if err != nil {
		return nil, "", fmt.Errorf("couch: init HTTP client: %w", err)
	}
	return client, modeHTTP, nil
}

func newMockClient(opts []Option) (*Client, string, error) {
	srv := mock.New()
	if path := strings.TrimSpace(os.Getenv(envMockSeed)); path != "" {
		entries, err := devseed.Load(path)
		if err != nil {
			return nil, "", fmt.Errorf("couch: load mock seed: %w", err)
		}
		if err := srv.Seed(entries); err != nil {
			return nil, "", fmt.Errorf("couch: apply mock seed: %w", err)
		}
	}
	opts = append([]Option{WithHTTPClient(&http.Client{Transport: srv})}, opts...)
	client, err := New(opts...)
	if err != nil {
		return nil, "", err
	}
	return client, modeMock, nil
}
