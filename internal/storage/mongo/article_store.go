package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/DjordjeVuckovic/news-cms/internal/domain"
	"github.com/DjordjeVuckovic/news-cms/internal/storage"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ArticleStore keeps articles in one MongoDB collection.
type ArticleStore struct {
	coll *mongo.Collection
}

func NewArticleStore(client *Client) *ArticleStore {
	return &ArticleStore{coll: client.collection()}
}

func (s *ArticleStore) FindOne(ctx context.Context, filter storage.Filter) (*domain.Article, error) {
	var doc articleDocument
	err := s.coll.FindOne(ctx, filterDoc(filter), options.FindOne().SetSort(firstSort)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find article: %w", err)
	}
	a := doc.toArticle()
	return &a, nil
}

func (s *ArticleStore) Find(ctx context.Context, filter storage.Filter, opts storage.FindOptions) ([]storage.Hit, error) {
	findOpts := options.Find().SetSort(sortDoc(opts.Sort, filter.HasText()))
	if filter.HasText() {
		findOpts.SetProjection(bson.D{{Key: "score", Value: textScore}})
	}
	if opts.Skip > 0 {
		findOpts.SetSkip(opts.Skip)
	}
	if opts.Limit > 0 {
		findOpts.SetLimit(opts.Limit)
	}

	cur, err := s.coll.Find(ctx, filterDoc(filter), findOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to query articles: %w", err)
	}
	defer cur.Close(ctx)

	hits := make([]storage.Hit, 0)
	for cur.Next(ctx) {
		var doc articleDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode article: %w", err)
		}
		hits = append(hits, storage.Hit{Article: doc.toArticle(), Score: doc.Score})
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("error iterating articles: %w", err)
	}
	return hits, nil
}

func (s *ArticleStore) Count(ctx context.Context, filter storage.Filter) (int64, error) {
	n, err := s.coll.CountDocuments(ctx, filterDoc(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count articles: %w", err)
	}
	return n, nil
}

func (s *ArticleStore) InsertOne(ctx context.Context, a domain.Article) (uuid.UUID, error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}

	res, err := s.coll.InsertOne(ctx, toDocument(a))
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert article: %w", err)
	}

	raw, ok := res.InsertedID.(string)
	if !ok {
		slog.Warn("Unexpected inserted id type", "id", res.InsertedID)
		return uuid.Nil, nil
	}
	return parseUUID(raw), nil
}

func (s *ArticleStore) FindOneAndUpdate(ctx context.Context, filter storage.Filter, update storage.Update) (*domain.Article, error) {
	doc := updateDoc(update)
	if doc == nil {
		return s.FindOne(ctx, filter)
	}

	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetSort(firstSort)

	var updated articleDocument
	err := s.coll.FindOneAndUpdate(ctx, filterDoc(filter), doc, opts).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update article: %w", err)
	}
	a := updated.toArticle()
	return &a, nil
}

func (s *ArticleStore) FindOneAndDelete(ctx context.Context, filter storage.Filter) (*domain.Article, error) {
	var removed articleDocument
	err := s.coll.FindOneAndDelete(ctx, filterDoc(filter), options.FindOneAndDelete().SetSort(firstSort)).Decode(&removed)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete article: %w", err)
	}
	a := removed.toArticle()
	return &a, nil
}

func (s *ArticleStore) UpdateOne(ctx context.Context, filter storage.Filter, update storage.Update) error {
	doc := updateDoc(update)
	if doc == nil {
		return nil
	}
	if _, err := s.coll.UpdateOne(ctx, filterDoc(filter), doc); err != nil {
		return fmt.Errorf("failed to update article: %w", err)
	}
	return nil
}

// BulkWrite runs unordered, so one failing update does not stop the rest.
func (s *ArticleStore) BulkWrite(ctx context.Context, models []storage.UpdateModel) error {
	writes := make([]mongo.WriteModel, 0, len(models))
	for _, m := range models {
		doc := updateDoc(m.Update)
		if doc == nil {
			continue
		}
		writes = append(writes, mongo.NewUpdateOneModel().SetFilter(filterDoc(m.Filter)).SetUpdate(doc))
	}
	if len(writes) == 0 {
		return nil
	}

	res, err := s.coll.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return fmt.Errorf("failed to bulk update articles: %w", err)
	}
	slog.Debug("Mongo bulk write finished", "matched", res.MatchedCount, "modified", res.ModifiedCount)
	return nil
}

var _ storage.ArticleStore = (*ArticleStore)(nil)
