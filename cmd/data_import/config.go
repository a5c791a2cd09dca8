package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/DjordjeVuckovic/news-cms/internal/storage/factory"
	"github.com/DjordjeVuckovic/news-cms/pkg/config/env"
)

func NewAppConfig() *AppConfig {
	return &AppConfig{
		ENV: os.Getenv("ENV"),
	}
}

type AppConfig struct {
	ENV string
}

type DataImportConfig struct {
	DatasetPath string
	Workers     int
	factory.StorageConfig
}

func (as *AppConfig) Load() (*DataImportConfig, error) {
	cfg := &DataImportConfig{}
	flag.StringVar(&cfg.DatasetPath, "file", "", "Path to the articles CSV (falls back to DATASET_PATH)")
	flag.IntVar(&cfg.Workers, "workers", 4, "Number of concurrent article writers")
	flag.Parse()

	err := env.LoadDotEnv(as.ENV, "cmd/data_import/.env")
	if err != nil {
		slog.Info("Skipping .env environment variables...", "error", err)
	}

	storageCfg, err := factory.LoadEnv()
	if err != nil {
		slog.Error("Failed to load storage configuration from environment", "error", err)
		return nil, err
	}
	cfg.StorageConfig = *storageCfg

	if cfg.DatasetPath == "" {
		cfg.DatasetPath = os.Getenv("DATASET_PATH")
	}
	if cfg.DatasetPath == "" {
		return nil, fmt.Errorf("dataset path is not set, use -file or DATASET_PATH")
	}

	return cfg, nil
}
