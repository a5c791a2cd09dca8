package factory

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/DjordjeVuckovic/news-cms/internal/storage"
	"github.com/DjordjeVuckovic/news-cms/internal/storage/es"
	"github.com/DjordjeVuckovic/news-cms/internal/storage/mongo"
	"github.com/DjordjeVuckovic/news-cms/internal/storage/pg"
	"github.com/DjordjeVuckovic/news-cms/pkg/utils"
)

type StorageConfig struct {
	storage.Type
	Pg    *pg.PoolConfig
	Es    *es.ClientConfig
	Mongo *mongo.ClientConfig
}

func LoadEnv() (*StorageConfig, error) {
	storageType := storage.Type(os.Getenv("STORAGE_TYPE"))
	if storageType == "" {
		slog.Error("STORAGE_TYPE environment variable is not set")
		return nil, fmt.Errorf("STORAGE_TYPE environment variable is not set")
	}
	if !storageType.Valid() {
		slog.Error("Invalid STORAGE_TYPE environment variable value", "value", storageType)
		return nil, fmt.Errorf(
			"invalid STORAGE_TYPE environment variable value: %s, expected one of %v",
			storageType,
			storage.Types)
	}

	cfg := &StorageConfig{Type: storageType}

	switch storageType {
	case storage.Mongo:
		cfg.Mongo = &mongo.ClientConfig{
			URI:        os.Getenv("MONGO_URI"),
			Database:   os.Getenv("MONGO_DATABASE"),
			Collection: os.Getenv("MONGO_COLLECTION"),
		}
		if cfg.Mongo.URI == "" {
			slog.Error("MongoDB URI is not set")
			return nil, fmt.Errorf("MONGO_URI is not set")
		}

	case storage.ES:
		cfg.Es = &es.ClientConfig{
			Addresses: utils.RemoveEmptyStrings(strings.Split(os.Getenv("ES_ADDRESSES"), ",")),
			IndexName: os.Getenv("ES_INDEX_NAME"),
			Username:  os.Getenv("ES_USERNAME"),
			Password:  os.Getenv("ES_PASSWORD"),
		}
		if len(cfg.Es.Addresses) == 0 || cfg.Es.IndexName == "" {
			slog.Error("Elasticsearch configuration is incomplete", "addresses", cfg.Es.Addresses, "indexName", cfg.Es.IndexName)
			return nil, fmt.Errorf("elasticsearch configuration is incomplete: addresses or index name is missing")
		}

	case storage.PG:
		cfg.Pg = &pg.PoolConfig{
			ConnStr: os.Getenv("PG_CONNECTION_STRING"),
		}
		if cfg.Pg.ConnStr == "" {
			slog.Error("PostgreSQL connection string is not set")
			return nil, fmt.Errorf("PostgreSQL connection string is not set")
		}
		if raw := os.Getenv("PG_MAX_CONNS"); raw != "" {
			n, err := strconv.ParseInt(raw, 10, 32)
			if err != nil || n <= 0 {
				return nil, fmt.Errorf("invalid PG_MAX_CONNS value: %s", raw)
			}
			cfg.Pg.MaxConns = int32(n)
		}
	}

	return cfg, nil
}
