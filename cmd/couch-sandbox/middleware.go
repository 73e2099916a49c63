package main

import (
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

type failConfig struct {
	rate float64
	code int
}

// withLogging logs each exchange at debug level with its status and duration.
func withLogging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
			)
		})
	}
}

func withLatency(delay time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if delay <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// withFailures answers a random share of requests with the configured status
// and a server-style error envelope.
func withFailures(cfg failConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if cfg.rate <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rand.Float64() >= cfg.rate {
				next.ServeHTTP(w, r)
				return
			}
			status := cfg.code
			if status == 0 {
				status = http.StatusInternalServerError
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			fmt.Fprintf(w, "{\"error\":\"injected\",\"reason\":%q}\n", http.StatusText(status))
		})
	}
}

func parseFailConfig(raw string) (failConfig, error) {
	if strings.TrimSpace(raw) == "" {
		return failConfig{}, nil
	}
	cfg := failConfig{code: http.StatusInternalServerError}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, val, ok := strings.Cut(part, "=")
		if !ok {
			return failConfig{}, fmt.Errorf("invalid fail segment %q", part)
		}
		val = strings.TrimSpace(val)
		switch strings.TrimSpace(key) {
		case "rate":
			f, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return failConfig{}, err
			}
			if f < 0 || f > 1 {
				return failConfig{}, fmt.Errorf("fail rate %v out of range [0,1]", f)
			}
			cfg.rate = f
		case "code":
			code, err := strconv.Atoi(val)
			if err != nil {
				return failConfig{}, err
			}
			if code < 100 || code > 599 {
				return failConfig{}, fmt.Errorf("fail code %d is not an HTTP status", code)
			}
			cfg.code = code
		default:
			return failConfig{}, fmt.Errorf("unknown fail key %q", key)
		}
	}
	return cfg, nil
}
