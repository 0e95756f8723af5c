package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brojonat/framprelay/client"
	"github.com/brojonat/framprelay/service/config"
	"github.com/brojonat/framprelay/service/metrics"
	"github.com/brojonat/framprelay/service/server"
)

func main() {
	// Load and validate configuration from environment
	// This fails fast if any required config is missing or invalid
	cfg := config.MustLoad()

	// Setup structured logging
	logger := setupLogger(cfg.LogLevel)
	logger.Info("starting server",
		"addr", cfg.ServerAddr,
		"log_level", cfg.LogLevel,
	)
	if cfg.AirbillsSecretKey == "" {
		logger.Warn("AIRBILLS_SECRET_KEY is not set, vendor calls will be rejected")
	}
	if cfg.SolscanAPIKey == "" {
		logger.Warn("SOLSCAN_API_KEY is not set, status checks will report false")
	}

	m := metrics.NewMetrics(nil)

	relayer, err := client.NewRelayer(cfg, nil, m, logger)
	if err != nil {
		logger.Error("failed to create relayer", "error", err)
		os.Exit(1)
	}

	httpServer := server.New(cfg.ServerAddr, relayer, m, logger)

	logger.Info("server initialized, all dependencies ready",
		"jupiter_api", cfg.JupiterAPIURL,
		"airbills_vendor", cfg.AirbillsVendorURL,
		"solscan_api", cfg.SolscanAPIURL,
	)

	// Start HTTP server in background
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- httpServer.Start()
	}()

	// Wait for shutdown signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Error("server error", "error", err)
		os.Exit(1)
	case sig := <-shutdown:
		logger.Info("shutdown signal received", "signal", sig.String())

		// Graceful shutdown with timeout
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown server gracefully", "error", err)
			os.Exit(1)
		}

		logger.Info("server shutdown complete")
	}
}

// setupLogger creates a structured logger with the given log level.
func setupLogger(levelStr string) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}
