package es

import (
	"context"
	"fmt"

	"github.com/DjordjeVuckovic/news-cms/internal/storage"
)

// Every mapped field is already indexed by Elasticsearch, so index management reduces to
// checking that the requested fields are part of the mapping.

func (s *ArticleStore) CreateIndex(ctx context.Context, spec storage.IndexSpec) error {
	props := buildMapping().Properties

	fields := append([]string{}, spec.TextFields...)
	for _, k := range spec.Keys {
		fields = append(fields, k.Field)
	}
	for _, f := range fields {
		if _, ok := props[f]; !ok {
			return fmt.Errorf("field %s is not mapped in index %s", f, s.indexName)
		}
	}
	return fmt.Errorf("%w: %s", storage.ErrIndexExists, spec.Name)
}

func (s *ArticleStore) DropIndex(ctx context.Context, name string) error {
	return fmt.Errorf("%w: %s", storage.ErrIndexNotFound, name)
}

func (s *ArticleStore) ListIndexes(ctx context.Context) ([]storage.IndexInfo, error) {
	return []storage.IndexInfo{}, nil
}
