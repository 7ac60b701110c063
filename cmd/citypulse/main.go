package main

import (
	"context"
	"log/slog"
	"os"

	_ "github.com/kirinyoku/citypulse/docs"
	"github.com/kirinyoku/citypulse/internal/app"
	"github.com/kirinyoku/citypulse/internal/config"
)

// @title CityPulse API
// @version 1.0
// @description Event search with offline fallback for the CityPulse client.
// @host localhost:8080
// @BasePath /
func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.New()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create application", "error", err)
		os.Exit(1)
	}

	if err := application.Run(context.Background()); err != nil {
		logger.Error("application finished with error", "error", err)
		os.Exit(1)
	}
}
