package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/park285/atomic-chess-arena/internal/arenabuilder"
	appcfg "github.com/park285/atomic-chess-arena/internal/config"
	"github.com/park285/atomic-chess-arena/internal/httpapi"
	"github.com/park285/atomic-chess-arena/internal/obslog"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer obslog.Sync()
	logger := obslog.L()

	deps, err := arenabuilder.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("arena_build_error", zap.Error(err))
	}
	defer func() { _ = deps.Close() }()

	srv := httpapi.NewServer(deps.Service, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Listen(cfg.HTTPAddr) }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("server_shutdown", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			logger.Fatal("server_error", zap.Error(err))
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Close(shutdownCtx); err != nil {
		logger.Warn("server_shutdown_error", zap.Error(err))
	}
	logger.Info("server_stopped")
}
