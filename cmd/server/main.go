package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/dmitrijs2005/testmart/internal/logging"
	"github.com/dmitrijs2005/testmart/internal/server"
	"github.com/dmitrijs2005/testmart/internal/server/config"
)

func main() {

	ctx := context.Background()
	logger := logging.NewJSONLogger(os.Stdout, slog.LevelInfo)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error(ctx, "config load error", "error", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		logger.Error(ctx, "invalid configuration", "error", err)
		os.Exit(1)
	}

	app, err := server.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "app init error", "error", err)
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		logger.Error(ctx, "app stopped with error", "error", err)
		os.Exit(1)
	}

}
