// Command guestsd serves the guest list API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Solideomyers/guests-app/internal/config"
	"github.com/Solideomyers/guests-app/internal/logging"
	"github.com/Solideomyers/guests-app/pkg/di"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// The logger is not configured yet.
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container, err := di.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build application")
	}
	container.Start(ctx)

	if !container.CacheService().IsConnected(ctx) {
		logger.Warn().Str("backend", cfg.CacheBackend).Msg("cache unreachable at startup, serving uncached")
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      container.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).
			Str("database", cfg.DatabaseDriver).
			Str("cache", cfg.CacheBackend).
			Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("server error")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown error")
	}
	if err := container.Close(); err != nil {
		logger.Error().Err(err).Msg("close error")
	}
	logger.Info().Msg("server stopped")
}
