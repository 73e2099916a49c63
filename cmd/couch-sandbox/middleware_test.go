package main

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFailConfig(t *testing.T) {
	cfg, err := parseFailConfig("")
	require.NoError(t, err)
	assert.Equal(t, failConfig{}, cfg)

	cfg, err = parseFailConfig("rate=0.25, code=503")
	require.NoError(t, err)
	assert.Equal(t, failConfig{rate: 0.25, code: 503}, cfg)

	cfg, err = parseFailConfig("rate=1")
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, cfg.code)

	for _, bad := range []string{"rate", "rate=x", "rate=2", "code=42", "burst=1"} {
		_, err := parseFailConfig(bad)
		assert.Error(t, err, bad)
	}
}

func TestWithFailuresAlwaysFails(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run")
	})
	h := withFailures(failConfig{rate: 1, code: http.StatusServiceUnavailable})(next)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"error":"injected","reason":"Service Unavailable"}`, rec.Body.String())
}

func TestWithLoggingRecordsStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	h := withLogging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPut, "/orders", nil))
	assert.Contains(t, buf.String(), "status=201")
	assert.Contains(t, buf.String(), "method=PUT")
}
