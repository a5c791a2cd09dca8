// Command stats_sync overwrites article like counters from a YAML export.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/DjordjeVuckovic/news-cms/internal/ingest"
	"github.com/DjordjeVuckovic/news-cms/internal/repository"
	"github.com/DjordjeVuckovic/news-cms/internal/storage/factory"
	"github.com/DjordjeVuckovic/news-cms/pkg/config/env"
)

func main() {
	statsPath := flag.String("file", "", "Path to the stats YAML")
	flag.Parse()

	if err := env.LoadDotEnv(os.Getenv("ENV"), "cmd/stats_sync/.env"); err != nil {
		slog.Info("Skipping .env environment variables...", "error", err)
	}
	if *statsPath == "" {
		slog.Error("-file is required")
		os.Exit(1)
	}

	storageCfg, err := factory.LoadEnv()
	if err != nil {
		os.Exit(1)
	}

	f, err := os.Open(*statsPath)
	if err != nil {
		slog.Error("failed to open stats file", "path", *statsPath, "error", err)
		os.Exit(1)
	}
	stats, err := ingest.LoadStats(f)
	f.Close()
	if err != nil {
		slog.Error("failed to read stats", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	store, err := factory.NewArticleStore(ctx, storageCfg)
	if err != nil {
		slog.Error("failed to create article store", "error", err)
		os.Exit(1)
	}
	defer store.Close(context.Background())

	repo := repository.NewArticleRepository(store.Articles)
	if err := repo.UpdateStatsForArticles(ctx, stats); err != nil {
		slog.Error("failed to update article stats", "error", err)
		os.Exit(1)
	}
	slog.Info("Article stats synced", "entries", len(stats))
}
