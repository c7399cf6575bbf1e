package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"horsecounter/internal/app"
	"horsecounter/internal/config"
	"horsecounter/internal/logger"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Fatalf("Failed to load environment: %v", err)
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := logger.New(cfg.LogDirectory, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialise logger: %v", err)
	}
	defer logger.Close()

	application, err := app.NewApp(cfg, logger)
	if err != nil {
		logger.Error("Failed to start: %v", err)
		os.Exit(1)
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		logger.Error("Server stopped: %v", err)
		os.Exit(1)
	}
}
