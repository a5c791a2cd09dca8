package factory

import (
	"context"
	"testing"

	"github.com/DjordjeVuckovic/news-cms/internal/storage"
	"github.com/DjordjeVuckovic/news-cms/internal/storage/in_mem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnv(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
		check   func(t *testing.T, cfg *StorageConfig)
	}{
		{name: "missing type", env: map[string]string{"STORAGE_TYPE": ""}, wantErr: true},
		{name: "unknown type", env: map[string]string{"STORAGE_TYPE": "redis"}, wantErr: true},
		{
			name: "in memory",
			env:  map[string]string{"STORAGE_TYPE": "in_mem"},
			check: func(t *testing.T, cfg *StorageConfig) {
				assert.Equal(t, storage.InMem, cfg.Type)
				assert.Nil(t, cfg.Pg)
				assert.Nil(t, cfg.Es)
				assert.Nil(t, cfg.Mongo)
			},
		},
		{name: "mongo without uri", env: map[string]string{"STORAGE_TYPE": "mongo", "MONGO_URI": ""}, wantErr: true},
		{
			name: "mongo",
			env:  map[string]string{"STORAGE_TYPE": "mongo", "MONGO_URI": "mongodb://localhost:27017", "MONGO_DATABASE": "cms"},
			check: func(t *testing.T, cfg *StorageConfig) {
				require.NotNil(t, cfg.Mongo)
				assert.Equal(t, "mongodb://localhost:27017", cfg.Mongo.URI)
				assert.Equal(t, "cms", cfg.Mongo.Database)
			},
		},
		{
			name: "elasticsearch addresses are trimmed",
			env:  map[string]string{"STORAGE_TYPE": "es", "ES_ADDRESSES": "http://a:9200, http://b:9200,", "ES_INDEX_NAME": "articles"},
			check: func(t *testing.T, cfg *StorageConfig) {
				require.NotNil(t, cfg.Es)
				assert.Equal(t, []string{"http://a:9200", "http://b:9200"}, cfg.Es.Addresses)
			},
		},
		{name: "elasticsearch without index", env: map[string]string{"STORAGE_TYPE": "es", "ES_ADDRESSES": "http://a:9200", "ES_INDEX_NAME": ""}, wantErr: true},
		{name: "pg without connection", env: map[string]string{"STORAGE_TYPE": "pg", "PG_CONNECTION_STRING": ""}, wantErr: true},
		{name: "pg bad max conns", env: map[string]string{"STORAGE_TYPE": "pg", "PG_CONNECTION_STRING": "postgres://x", "PG_MAX_CONNS": "lots"}, wantErr: true},
		{
			name: "pg",
			env:  map[string]string{"STORAGE_TYPE": "pg", "PG_CONNECTION_STRING": "postgres://x", "PG_MAX_CONNS": "8"},
			check: func(t *testing.T, cfg *StorageConfig) {
				require.NotNil(t, cfg.Pg)
				assert.Equal(t, int32(8), cfg.Pg.MaxConns)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("PG_MAX_CONNS", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := LoadEnv()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestNewArticleStore(t *testing.T) {
	ctx := context.Background()

	store, err := NewArticleStore(ctx, &StorageConfig{Type: storage.InMem})
	require.NoError(t, err)
	assert.IsType(t, &in_mem.Store{}, store.Articles)
	assert.True(t, store.Health.Healthy(ctx))
	assert.NoError(t, store.Close(ctx))

	_, err = NewArticleStore(ctx, &StorageConfig{Type: "redis"})
	assert.Error(t, err)

	_, err = NewArticleStore(ctx, &StorageConfig{Type: storage.PG})
	assert.Error(t, err)
}
