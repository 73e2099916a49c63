package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/Ratio1/couch_sdk_go/internal/devseed"
	"github.com/Ratio1/couch_sdk_go/pkg/couch/mock"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("could not load .env file", "error", err)
	}

	addr := flag.String("addr", ":5984", "listen address")
	seed := flag.String("seed", os.Getenv("COUCH_MOCK_SEED"), "path to JSON seed for the fake server")
	latency := flag.Duration("latency", 0, "artificial latency to inject per request")
	fail := flag.String("fail", "", "failure injection (rate=<float>,code=<httpStatus>)")
	verbose := flag.Bool("v", false, "log every request")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	srv := mock.New()
	if *seed != "" {
		entries, err := devseed.Load(*seed)
		if err != nil {
			logger.Error("load seed", "error", err)
			os.Exit(1)
		}
		if err := srv.Seed(entries); err != nil {
			logger.Error("apply seed", "error", err)
			os.Exit(1)
		}
		logger.Info("seed applied", "path", *seed, "databases", len(entries))
	}

	failCfg, err := parseFailConfig(*fail)
	if err != nil {
		logger.Error("parse fail flag", "error", err)
		os.Exit(1)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(withLogging(logger))
	r.Use(withLatency(*latency))
	r.Use(withFailures(failCfg))
	r.Mount("/", srv)

	server := &http.Server{
		Addr:              *addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	host, port, err := net.SplitHostPort(*addr)
	if err != nil {
		logger.Error("parse addr", "error", err)
		os.Exit(1)
	}
	if host == "" {
		host = "localhost"
	}

	logger.Info("couch-sandbox listening", "addr", *addr)
	fmt.Println()
	fmt.Println("export COUCH_RUNTIME_MODE=http")
	fmt.Printf("export COUCH_HOST=%s\n", host)
	fmt.Printf("export COUCH_PORT=%s\n", port)
	fmt.Println()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}
