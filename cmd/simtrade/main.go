package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/efreitasn/simtrade/internal/config"
	"github.com/efreitasn/simtrade/internal/feed"
	"github.com/efreitasn/simtrade/internal/handler"
	"github.com/efreitasn/simtrade/internal/service"
)

func main() {
	healthcheck := flag.Bool("healthcheck", false, "Run health check against running server")
	flag.Parse()

	// Handle -healthcheck flag: HTTP GET to localhost:PORT/healthz, exit 0/1.
	if *healthcheck {
		port := os.Getenv("PORT")
		if port == "" {
			port = "8080"
		}
		resp, err := http.Get(fmt.Sprintf("http://localhost:%s/healthz", port))
		if err != nil || resp.StatusCode != http.StatusOK {
			os.Exit(1)
		}
		os.Exit(0)
	}

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up slog logger with configured level.
	var logLevel slog.Level
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	preset, err := feed.ParsePreset(cfg.Volatility)
	if err != nil {
		logger.Error("invalid volatility", slog.String("error", err.Error()))
		os.Exit(1)
	}
	kind, err := feed.ParseKind(cfg.Feed)
	if err != nil {
		logger.Error("invalid feed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	listings := make([]service.Listing, len(cfg.Listings))
	for i, l := range cfg.Listings {
		listings[i] = service.Listing{Symbol: l.Symbol, OpeningPrice: l.OpeningPrice}
	}

	session, err := service.NewSession(service.SessionConfig{
		InitialCash:  cfg.InitialCash,
		Listings:     listings,
		Seed:         cfg.Seed,
		Preset:       preset,
		Feed:         kind,
		TickInterval: cfg.TickInterval,
		Duration:     cfg.SessionDuration,
	}, logger)
	if err != nil {
		logger.Error("failed to start session", slog.String("error", err.Error()))
		os.Exit(1)
	}
	snap := session.Snapshot()
	logger.Info("session started",
		slog.String("session_id", snap.SessionID),
		slog.Int("symbols", len(listings)),
		slog.Int64("seed", cfg.Seed),
		slog.String("feed", string(kind)),
		slog.String("volatility", string(preset)),
		slog.Duration("duration", cfg.SessionDuration),
	)

	// Router.
	router := handler.NewRouter(session, logger)

	// Start the price feed with a cancellable context.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go session.Run(ctx)

	// Configure HTTP server.
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	// Start HTTP server in a goroutine.
	go func() {
		logger.Info("server starting", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Wait for SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutdown signal received", slog.String("signal", sig.String()))

	// Graceful shutdown: stop HTTP server, cancel context (stops the feed).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	}
	cancel()

	logger.Info("server stopped")
}
