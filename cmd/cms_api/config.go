package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/DjordjeVuckovic/news-cms/internal/auth"
	"github.com/DjordjeVuckovic/news-cms/internal/repository"
	"github.com/DjordjeVuckovic/news-cms/internal/storage/factory"
	"github.com/DjordjeVuckovic/news-cms/pkg/config/env"
)

type AppConfig struct {
	ENV string
}

func NewAppConfig() *AppConfig {
	return &AppConfig{
		ENV: os.Getenv("ENV"),
	}
}

type CmsApiConfig struct {
	LogLevel      slog.Level
	StorageConfig factory.StorageConfig
	Session       auth.SessionConfig
	// UsersFile is only read when the store has no users table.
	UsersFile    string
	IndexTimeout time.Duration
}

func (as *AppConfig) Load() (*CmsApiConfig, error) {
	err := env.LoadDotEnv(as.ENV, "cmd/cms_api/.env")
	if err != nil {
		slog.Info("Failed to .env load environment variables, continuing with existing environment variables", "error", err)
	}

	storageCfg, err := factory.LoadEnv()
	if err != nil {
		slog.Error("Failed to load storage configuration from environment", "error", err)
		return nil, err
	}

	cfg := &CmsApiConfig{
		LogLevel:      slog.LevelInfo,
		StorageConfig: *storageCfg,
		Session: auth.SessionConfig{
			Secret: os.Getenv("SESSION_SECRET"),
			Name:   os.Getenv("SESSION_NAME"),
			Secure: os.Getenv("SESSION_SECURE") == "true",
		},
		UsersFile:    os.Getenv("USERS_FILE"),
		IndexTimeout: repository.DefaultIndexTimeout,
	}

	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(lvl)); err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
	}

	if maxAge := os.Getenv("SESSION_MAX_AGE"); maxAge != "" {
		seconds, err := strconv.Atoi(maxAge)
		if err != nil {
			return nil, fmt.Errorf("invalid SESSION_MAX_AGE: %w", err)
		}
		cfg.Session.MaxAge = seconds
	}

	if timeout := os.Getenv("INDEX_TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid INDEX_TIMEOUT: %w", err)
		}
		cfg.IndexTimeout = d
	}

	if cfg.Session.Secret == "" {
		return nil, fmt.Errorf("SESSION_SECRET environment variable is not set")
	}

	return cfg, nil
}
