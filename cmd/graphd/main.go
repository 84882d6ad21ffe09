package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vanshika/graphlink/internal/config"
	"github.com/vanshika/graphlink/internal/logging"
	"github.com/vanshika/graphlink/internal/server"
	"github.com/vanshika/graphlink/internal/transport"
)

func main() {
	configPath := flag.String("config", os.Getenv("GRAPHLINK_CONFIG"), "path to a YAML config file")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	t, closeTransport, err := transport.Open(ctx, cfg.Graph, cfg.HTTP.PublicURL, logger)
	if err != nil {
		logger.Error("failed to create graph transport", zap.Error(err))
		os.Exit(1)
	}
	defer func() {
		if err := closeTransport(context.Background()); err != nil {
			logger.Warn("closing graph transport failed", zap.Error(err))
		}
	}()

	router := server.NewRouter(logger, server.RouterDependencies{
		Health:           server.TransportHealthService{Transport: t},
		API:              server.NewAPIHandlers(logger, t, cfg.HTTP.PublicURL),
		AllowedOrigins:   cfg.HTTP.AllowedOrigins,
		AllowCredentials: true,
	})

	srv := server.New(logger, cfg.HTTP, router)

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(runCtx); err != nil {
		logger.Error("server stopped unexpectedly", zap.Error(err))
		return
	}
	logger.Info("server stopped")
}
