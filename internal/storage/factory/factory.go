package factory

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/DjordjeVuckovic/news-cms/internal/storage"
	"github.com/DjordjeVuckovic/news-cms/internal/storage/es"
	"github.com/DjordjeVuckovic/news-cms/internal/storage/in_mem"
	"github.com/DjordjeVuckovic/news-cms/internal/storage/mongo"
	"github.com/DjordjeVuckovic/news-cms/internal/storage/pg"
	"github.com/DjordjeVuckovic/news-cms/pkg/server"
)

// Store is a configured article store together with its health check and resources.
type Store struct {
	Articles storage.ArticleStore
	Health   server.HealthChecker
	// Pool is set for the pg store so other tables can share the connections.
	Pool  *pg.ConnectionPool
	close func(ctx context.Context) error
}

func (s *Store) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// NewArticleStore creates the storage.ArticleStore selected by cfg.Type.
func NewArticleStore(ctx context.Context, cfg *StorageConfig) (*Store, error) {
	switch cfg.Type {
	case storage.Mongo:
		if cfg.Mongo == nil {
			return nil, fmt.Errorf("missing MongoDB configuration")
		}
		client, err := mongo.NewClient(ctx, *cfg.Mongo)
		if err != nil {
			return nil, fmt.Errorf("failed to create MongoDB client: %w", err)
		}
		return &Store{
			Articles: mongo.NewArticleStore(client),
			Health:   pingHealth("mongo", client.Ping),
			close:    client.Close,
		}, nil

	case storage.PG:
		if cfg.Pg == nil {
			return nil, fmt.Errorf("missing PostgreSQL configuration")
		}
		pool, err := pg.NewConnectionPool(ctx, *cfg.Pg)
		if err != nil {
			return nil, fmt.Errorf("failed to create PostgreSQL connection pool: %w", err)
		}
		return &Store{
			Articles: pg.NewArticleStore(pool),
			Health:   pingHealth("pg", pool.Ping),
			Pool:     pool,
			close: func(context.Context) error {
				pool.Close()
				return nil
			},
		}, nil

	case storage.ES:
		if cfg.Es == nil {
			return nil, fmt.Errorf("missing Elasticsearch configuration")
		}
		store, err := es.NewArticleStore(ctx, *cfg.Es)
		if err != nil {
			return nil, fmt.Errorf("failed to create Elasticsearch store: %w", err)
		}
		return &Store{
			Articles: store,
			Health:   pingHealth("es", store.Ping),
		}, nil

	case storage.InMem:
		return &Store{
			Articles: in_mem.NewStore(),
			Health:   server.NewOkHealthChecker(),
		}, nil

	default:
		return nil, fmt.Errorf(string(storage.ErrUnsupportedStore), cfg.Type)
	}
}

const healthTimeout = 2 * time.Second

func pingHealth(backend string, ping func(ctx context.Context) error) server.HealthChecker {
	return server.HealthCheckerFunc(func(ctx context.Context) bool {
		ctx, cancel := context.WithTimeout(ctx, healthTimeout)
		defer cancel()

		if err := ping(ctx); err != nil {
			slog.Warn("Store health check failed", "backend", backend, "error", err)
			return false
		}
		return true
	})
}
