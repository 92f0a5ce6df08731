package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"cosi/internal/platform/config"
	"cosi/internal/platform/httpserver"
	"cosi/internal/platform/logger"
	"cosi/internal/registry/handler"
	"cosi/internal/storage"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the registry packages.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		bootLog := logger.New("info")
		bootLog.Fatal().Err(err).Msg("load configuration")
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := storage.Connect(ctx, storage.Config{
		URI:      cfg.MongoURI,
		Database: cfg.Database,
		AppName:  "cosi",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connect to storage")
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Error().Err(err).Msg("disconnect storage")
		}
	}()

	srv := httpserver.New(cfg.Addr, handler.NewServer(client.Database(), log).Router())

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
