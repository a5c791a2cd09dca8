package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/DjordjeVuckovic/news-cms/internal/storage"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Server error codes for index management.
const (
	codeIndexNotFound         = 27
	codeIndexOptionsConflict  = 85
	codeIndexKeySpecsConflict = 86
)

func (s *ArticleStore) CreateIndex(ctx context.Context, spec storage.IndexSpec) error {
	keys := bson.D{}
	if spec.IsText() {
		for _, f := range spec.TextFields {
			keys = append(keys, bson.E{Key: f, Value: "text"})
		}
	} else {
		for _, k := range spec.Keys {
			dir := 1
			if k.Desc {
				dir = -1
			}
			keys = append(keys, bson.E{Key: k.Field, Value: dir})
		}
	}

	model := mongo.IndexModel{Keys: keys, Options: options.Index().SetName(spec.Name)}
	if _, err := s.coll.Indexes().CreateOne(ctx, model); err != nil {
		if hasCode(err, codeIndexOptionsConflict) || hasCode(err, codeIndexKeySpecsConflict) {
			return fmt.Errorf("%w: %s", storage.ErrIndexExists, spec.Name)
		}
		return fmt.Errorf("failed to create index %s: %w", spec.Name, err)
	}
	return nil
}

func (s *ArticleStore) DropIndex(ctx context.Context, name string) error {
	if _, err := s.coll.Indexes().DropOne(ctx, name); err != nil {
		if hasCode(err, codeIndexNotFound) {
			return fmt.Errorf("%w: %s", storage.ErrIndexNotFound, name)
		}
		return fmt.Errorf("failed to drop index %s: %w", name, err)
	}
	return nil
}

type indexDocument struct {
	Name string `bson:"name"`
	Key  bson.D `bson:"key"`
}

// ListIndexes marks indexes keyed on the internal _fts field as text indexes.
func (s *ArticleStore) ListIndexes(ctx context.Context) ([]storage.IndexInfo, error) {
	cur, err := s.coll.Indexes().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list indexes: %w", err)
	}
	defer cur.Close(ctx)

	infos := make([]storage.IndexInfo, 0)
	for cur.Next(ctx) {
		var idx indexDocument
		if err := cur.Decode(&idx); err != nil {
			return nil, fmt.Errorf("failed to decode index: %w", err)
		}
		info := storage.IndexInfo{Name: idx.Name}
		for _, e := range idx.Key {
			if e.Key == "_fts" {
				info.Text = true
			}
		}
		infos = append(infos, info)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("error iterating indexes: %w", err)
	}
	return infos, nil
}

func hasCode(err error, code int) bool {
	var se mongo.ServerError
	return errors.As(err, &se) && se.HasErrorCode(code)
}
