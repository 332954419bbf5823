package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"tripRecapAPI/internal/config"
	"tripRecapAPI/internal/database"
	"tripRecapAPI/internal/logging"
	"tripRecapAPI/internal/metrics"
	"tripRecapAPI/middleware"
)

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("server stopped")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	st, err := database.Open(ctx, cfg)
	cancel()
	if err != nil {
		return err
	}
	logging.Info().Str("driver", cfg.StoreDriver).Msg("store connected")

	defer func() {
		logging.Info().Msg("closing store...")
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer closeCancel()
		if err := st.Close(closeCtx); err != nil {
			logging.Error().Err(err).Msg("failed to close store")
		}
	}()

	middleware.InitPrometheus(prometheus.DefaultRegisterer)
	metrics.Register(prometheus.DefaultRegisterer)

	app, err := newApplication(cfg, st)
	if err != nil {
		return err
	}

	bgCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()
	go app.rateLimiter.Cleanup(bgCtx)

	server := http.Server{
		Addr:        cfg.Addr(),
		Handler:     app.routes(),
		ReadTimeout: 30 * time.Second,
		// uploads run for up to 30s before the response is written
		WriteTimeout: 40 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", server.Addr).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logging.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-serverErr:
		return err
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("server shutdown error")
	}

	logging.Info().Msg("server shutdown complete")
	return nil
}
