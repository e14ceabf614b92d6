package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apoudel1609/comparator"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (YAML)")
	addr := flag.String("addr", ":8080", "Listen address")
	uploadDir := flag.String("uploads", "uploads", "Directory holding one subdirectory per run")
	keepRuns := flag.Bool("keep-runs", true, "Keep uploaded and generated files after responding")
	flag.Parse()

	cfg := comparator.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = comparator.LoadConfig(*configPath)
		if err != nil {
			slog.Error("loading config", "error", err)
			os.Exit(1)
		}
	}

	// Override from environment variables.
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		slog.Error("reading environment", "error", err)
		os.Exit(1)
	}
	if v := os.Getenv("COMPARATOR_UPLOAD_DIR"); v != "" {
		*uploadDir = v
	}

	level, err := cfg.Level()
	if err != nil {
		slog.Error("parsing log level", "error", err)
		os.Exit(1)
	}

	// Structured JSON logging.
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})))

	apiKey := os.Getenv("COMPARATOR_API_KEY")
	corsOrigins := os.Getenv("COMPARATOR_CORS_ORIGINS")

	pipeline, err := comparator.New(cfg)
	if err != nil {
		slog.Error("creating pipeline", "error", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(*uploadDir, 0o755); err != nil {
		slog.Error("creating upload directory", "dir", *uploadDir, "error", err)
		os.Exit(1)
	}

	h := newHandler(pipeline, *uploadDir, *keepRuns)

	// Middleware chain: recovery -> cors -> auth -> logging -> mux
	var handler http.Handler = h.routes()
	handler = logMiddleware(handler)
	handler = authMiddleware(apiKey, handler)
	handler = corsMiddleware(corsOrigins, handler)
	handler = recoveryMiddleware(handler)

	srv := &http.Server{
		Addr:         *addr,
		Handler:      handler,
		ReadTimeout:  2 * time.Minute,
		WriteTimeout: 0, // runs over large documents can be long
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown on SIGTERM/SIGINT.
	done := make(chan os.Signal, 1)
	signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", *addr, "uploads", *uploadDir)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-done
	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("server stopped")
}
