// Package main serves the news CMS article API.
package main

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/DjordjeVuckovic/news-cms/internal/auth"
	"github.com/DjordjeVuckovic/news-cms/internal/repository"
	"github.com/DjordjeVuckovic/news-cms/internal/router"
	"github.com/DjordjeVuckovic/news-cms/internal/server"
	"github.com/DjordjeVuckovic/news-cms/internal/storage/factory"
	"github.com/DjordjeVuckovic/news-cms/internal/storage/pg"
	pkgserver "github.com/DjordjeVuckovic/news-cms/pkg/server"
	"github.com/labstack/echo/v4"
)

const closeTimeout = 5 * time.Second

func main() {
	appSettings := NewAppConfig()
	cfg, err := appSettings.Load()
	if err != nil {
		slog.Error("Failed to load app configuration", "error", err)
		os.Exit(1)
	}
	slog.SetLogLoggerLevel(cfg.LogLevel)

	sCfg, err := server.LoadConfig(appSettings.ENV)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	var store *factory.Store
	health := pkgserver.HealthCheckerFunc(func(ctx context.Context) bool {
		return store != nil && store.Health.Healthy(ctx)
	})
	s := server.New(sCfg, health).
		SetupMiddlewares().
		SetupErrorHandler().
		SetupHealthChecks("/health").
		SetupMetrics("/metrics")

	s.Echo.GET("/", func(c echo.Context) error {
		return c.String(200, "News CMS API is running")
	})

	store, err = factory.NewArticleStore(s.Context(), &cfg.StorageConfig)
	if err != nil {
		slog.Error("Failed to create article store", "error", err)
		os.Exit(1)
	}

	registry := repository.NewRegistry()
	repo := registry.Init(store.Articles, repository.WithIndexTimeout(cfg.IndexTimeout))
	if err := ensureIndexes(s.Context(), repo, cfg.IndexTimeout); err != nil {
		slog.Warn("Serving without article indexes", "error", err)
	}

	users, err := newUserStore(store, cfg.UsersFile)
	if err != nil {
		slog.Error("Failed to create user store", "error", err)
		os.Exit(1)
	}
	sessions, err := auth.NewSessions(cfg.Session, users)
	if err != nil {
		slog.Error("Failed to configure sessions", "error", err)
		os.Exit(1)
	}

	router.NewAuthRouter(s.Echo, auth.NewService(users), sessions).Bind()
	router.NewArticleRouter(s.Echo, registry, sessions.RequireSession()).Bind()

	go func() {
		<-s.ShutdownSignal()
		slog.Info("Shutdown started, cleaning up resources...")
	}()

	err = s.Start()

	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	if cerr := store.Close(ctx); cerr != nil {
		slog.Error("Failed to close article store", "error", cerr)
	}

	if err != nil {
		slog.Error("Failed to start server", "error", err)
		os.Exit(1)
	}
}

// newUserStore prefers the users table of a postgres deployment over the users file.
func newUserStore(store *factory.Store, usersFile string) (auth.UserStore, error) {
	if store.Pool != nil {
		slog.Info("Using postgres user store")
		return pg.NewUserStore(store.Pool), nil
	}
	if usersFile == "" {
		slog.Warn("USERS_FILE is not set, nobody can log in")
		return auth.LoadUsers(strings.NewReader(""))
	}
	slog.Info("Using file user store", "path", usersFile)
	return auth.NewFileUserStore(usersFile)
}

// ensureIndexes provisions indexes at start-up, giving up after timeout.
func ensureIndexes(ctx context.Context, repo *repository.ArticleRepository, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return repo.EnsureIndexes(ctx)
}
