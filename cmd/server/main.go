// Package main runs the translation desk API as a local HTTP server.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/pricofy/translation-desk/internal/config"
	"github.com/pricofy/translation-desk/internal/handler"
	"github.com/pricofy/translation-desk/internal/logging"
	"github.com/pricofy/translation-desk/internal/router"
	"github.com/pricofy/translation-desk/internal/server"
)

func main() {
	// .env is optional; real environment variables win.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Failed to load .env: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := cfg.RequireStore(); err != nil {
		logger.Warn("Store not configured; store-backed routes will answer 500", zap.String("reason", err.Error()))
	}
	if err := cfg.RequireTranslation(); err != nil {
		logger.Warn("Translation not configured; /api/translate will answer 500", zap.String("reason", err.Error()))
	}

	r := router.New(handler.New(cfg, logger), logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx, cfg.Server.Addr, server.NewHandler(r, logger), logger); err != nil {
		logger.Fatal("Server stopped", zap.Error(err))
	}
}
