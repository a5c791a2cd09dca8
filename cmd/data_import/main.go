package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/DjordjeVuckovic/news-cms/internal/ingest"
	"github.com/DjordjeVuckovic/news-cms/internal/repository"
	"github.com/DjordjeVuckovic/news-cms/internal/storage/factory"
)

func main() {
	appSettings := NewAppConfig()

	cfg, err := appSettings.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	dataFile, err := os.Open(cfg.DatasetPath)
	if err != nil {
		slog.Error("failed to open dataset", "path", cfg.DatasetPath, "error", err)
		os.Exit(1)
	}
	defer dataFile.Close()

	store, err := factory.NewArticleStore(ctx, &cfg.StorageConfig)
	if err != nil {
		slog.Error("failed to create article store", "storageType", cfg.StorageConfig.Type, "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			slog.Error("failed to close article store", "error", err)
		}
	}()

	repo := repository.NewArticleRepository(store.Articles)
	if err := repo.EnsureIndexes(ctx); err != nil {
		slog.Warn("importing without article indexes", "error", err)
	}

	pipeline := ingest.NewPipeline(ingest.NewCSVReader(dataFile), repo, ingest.WithWorkers(cfg.Workers))
	summary, err := pipeline.Run(ctx)
	if err != nil {
		slog.Error("failed to run pipeline", "error", err)
		os.Exit(1)
	}
	if summary.Failed > 0 {
		os.Exit(2)
	}
}
