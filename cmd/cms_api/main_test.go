package main

import (
	"context"
	"testing"
	"time"

	"github.com/DjordjeVuckovic/news-cms/internal/repository"
	"github.com/DjordjeVuckovic/news-cms/internal/storage"
	"github.com/DjordjeVuckovic/news-cms/internal/storage/in_mem"
	"github.com/stretchr/testify/assert"
)

// hangingIndexStore never finishes index DDL before its context ends.
type hangingIndexStore struct {
	*in_mem.Store
}

func (s *hangingIndexStore) CreateIndex(ctx context.Context, spec storage.IndexSpec) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestEnsureIndexes_Timeout(t *testing.T) {
	repo := repository.NewArticleRepository(&hangingIndexStore{Store: in_mem.NewStore()})

	start := time.Now()
	err := ensureIndexes(context.Background(), repo, 50*time.Millisecond)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, repository.IndexFailed, repo.IndexState())
}
