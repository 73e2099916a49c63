package couch_test

import (
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Ratio1/couch_sdk_go/pkg/couch"
	"github.com/Ratio1/couch_sdk_go/pkg/couch/mock"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// cannedTransport answers every request with status and body.
func cannedTransport(status int, body string) http.RoundTripper {
	return roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: status,
			Header:     http.Header{"Content-Type": {"application/json"}},
			Body:       io.NopCloser(strings.NewReader(body)),
			Request:    r,
		}, nil
	})
}

type capturedRequest struct {
	Method string
	URL    string
	Header http.Header
	Body   string
}

// recorder wraps a transport and keeps every request it forwards.
type recorder struct {
	mu   sync.Mutex
	next http.RoundTripper
	reqs []capturedRequest
}

func (rec *recorder) RoundTrip(r *http.Request) (*http.Response, error) {
	var body string
	if r.Body != nil {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, err
		}
		body = string(data)
		r.Body = io.NopCloser(strings.NewReader(body))
	}
	rec.mu.Lock()
	rec.reqs = append(rec.reqs, capturedRequest{
		Method: r.Method,
		URL:    r.URL.String(),
		Header: r.Header.Clone(),
		Body:   body,
	})
	rec.mu.Unlock()
	return rec.next.RoundTrip(r)
}

func (rec *recorder) last(t *testing.T) capturedRequest {
	t.Helper()
	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.NotEmpty(t, rec.reqs)
	return rec.reqs[len(rec.reqs)-1]
}

func newClient(t *testing.T, rt http.RoundTripper, opts ...couch.Option) *couch.Client {
	t.Helper()
	opts = append([]couch.Option{couch.WithHTTPClient(&http.Client{Transport: rt})}, opts...)
	client, err := couch.New(opts...)
	require.NoError(t, err)
	return client
}

// newMockClient returns a client wired in-process to a fresh fake server at
// the default host and port, plus a recorder of the requests it sends.
func newMockClient(t *testing.T, opts ...mock.Option) (*couch.Client, *mock.Server, *recorder) {
	t.Helper()
	srv := mock.New(opts...)
	rec := &recorder{next: srv}
	return newClient(t, rec), srv, rec
}
