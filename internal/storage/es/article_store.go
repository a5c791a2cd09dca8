package es

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/DjordjeVuckovic/news-cms/internal/domain"
	"github.com/DjordjeVuckovic/news-cms/internal/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esutil"
	"github.com/elastic/go-elasticsearch/v8/typedapi/core/search"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types/enums/refresh"
	"github.com/google/uuid"
)

// maxResultWindow is the default index.max_result_window, used when no limit is requested.
const maxResultWindow = 10000

// conflictRetries lets concurrent scripted updates of one document all apply.
const conflictRetries = 10

// ArticleStore keeps articles in one Elasticsearch index. Writes wait for a refresh so
// they are visible to the next search.
type ArticleStore struct {
	client    *elasticsearch.TypedClient
	indexName string
}

func NewArticleStore(ctx context.Context, config ClientConfig) (*ArticleStore, error) {
	client, err := newClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	s := &ArticleStore{
		client:    client,
		indexName: config.IndexName,
	}
	if err := s.EnsureIndex(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure index exists: %w", err)
	}
	return s, nil
}

func (s *ArticleStore) EnsureIndex(ctx context.Context) error {
	exists, err := s.client.Indices.Exists(s.indexName).Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to check if index exists: %w", err)
	}
	if exists {
		slog.Info("Index already exists", "index", s.indexName)
		return nil
	}

	settings := buildSettings()
	mappings := buildMapping()
	res, err := s.client.Indices.Create(s.indexName).
		Settings(&settings).
		Mappings(&mappings).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	if !res.Acknowledged {
		return fmt.Errorf("index creation was not acknowledged")
	}

	slog.Info("Index created successfully", "index", s.indexName)
	return nil
}

func (s *ArticleStore) FindOne(ctx context.Context, filter storage.Filter) (*domain.Article, error) {
	hits, err := s.Find(ctx, filter, storage.FindOptions{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return nil, nil
	}
	return &hits[0].Article, nil
}

func (s *ArticleStore) Find(ctx context.Context, filter storage.Filter, opts storage.FindOptions) ([]storage.Hit, error) {
	from := int(opts.Skip)
	size := int(opts.Limit)
	if size <= 0 || size > maxResultWindow {
		size = maxResultWindow
	}
	trackScores := filter.HasText()

	res, err := s.client.Search().
		Index(s.indexName).
		Request(&search.Request{
			Query:       buildQuery(filter),
			Sort:        buildSort(opts.Sort),
			From:        &from,
			Size:        &size,
			TrackScores: &trackScores,
		}).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to execute search: %w", err)
	}

	hits := make([]storage.Hit, 0, len(res.Hits.Hits))
	for _, h := range res.Hits.Hits {
		var doc ArticleDocument
		if err := json.Unmarshal(h.Source_, &doc); err != nil {
			return nil, fmt.Errorf("failed to unmarshal article: %w", err)
		}
		hit := storage.Hit{Article: doc.toArticle()}
		if h.Score_ != nil {
			hit.Score = float64(*h.Score_)
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

func (s *ArticleStore) Count(ctx context.Context, filter storage.Filter) (int64, error) {
	res, err := s.client.Count().
		Index(s.indexName).
		Query(buildQuery(filter)).
		Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count articles: %w", err)
	}
	return res.Count, nil
}

func (s *ArticleStore) InsertOne(ctx context.Context, a domain.Article) (uuid.UUID, error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	doc := toDocument(a)

	res, err := s.client.Index(s.indexName).
		Id(doc.ID).
		Document(doc).
		Refresh(refresh.Waitfor).
		Do(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to index document: %w", err)
	}

	id, err := uuid.Parse(res.Id_)
	if err != nil {
		slog.Warn("Unexpected document id", "id", res.Id_)
		return uuid.Nil, nil
	}
	slog.Debug("Document indexed", "id", res.Id_, "index", s.indexName, "result", res.Result)
	return id, nil
}

// FindOneAndUpdate resolves the first match and updates it by id. The update itself is atomic;
// a document deleted in between is reported as not found.
func (s *ArticleStore) FindOneAndUpdate(ctx context.Context, filter storage.Filter, update storage.Update) (*domain.Article, error) {
	id, err := s.firstID(ctx, filter)
	if err != nil || id == "" {
		return nil, err
	}

	updated, err := s.updateByID(ctx, id, update)
	if err != nil || !updated {
		return nil, err
	}
	return s.get(ctx, id)
}

func (s *ArticleStore) FindOneAndDelete(ctx context.Context, filter storage.Filter) (*domain.Article, error) {
	article, err := s.FindOne(ctx, filter)
	if err != nil || article == nil {
		return nil, err
	}

	res, err := s.client.Delete(s.indexName, article.ID.String()).
		Refresh(refresh.Waitfor).
		Do(ctx)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete article: %w", err)
	}
	if res.Result.String() == "not_found" {
		return nil, nil
	}
	return article, nil
}

func (s *ArticleStore) UpdateOne(ctx context.Context, filter storage.Filter, update storage.Update) error {
	id, err := s.firstID(ctx, filter)
	if err != nil || id == "" {
		return err
	}
	_, err = s.updateByID(ctx, id, update)
	return err
}

// BulkWrite sends scripted updates through the bulk indexer. Updates of missing documents are ignored.
func (s *ArticleStore) BulkWrite(ctx context.Context, models []storage.UpdateModel) error {
	if len(models) == 0 {
		return nil
	}

	bi, err := esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Index:         s.indexName,
		Client:        s.client,
		NumWorkers:    2,
		FlushBytes:    5e+6, // 5MB
		FlushInterval: 30 * time.Second,
		Refresh:       "wait_for",
	})
	if err != nil {
		return fmt.Errorf("failed to create bulk indexer: %w", err)
	}

	var successful, missing, failed atomic.Int64
	for _, m := range models {
		sc, ok := buildScript(m.Update)
		if !ok {
			continue
		}
		body, err := scriptBody(sc)
		if err != nil {
			failed.Add(1)
			continue
		}
		id, err := s.resolveID(ctx, m.Filter)
		if err != nil {
			failed.Add(1)
			slog.Error("Failed to resolve document for bulk update", "error", err)
			continue
		}
		if id == "" {
			missing.Add(1)
			continue
		}

		retries := conflictRetries
		err = bi.Add(ctx, esutil.BulkIndexerItem{
			Action:          "update",
			DocumentID:      id,
			Body:            bytes.NewReader(body),
			RetryOnConflict: &retries,
			OnSuccess: func(ctx context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem) {
				successful.Add(1)
			},
			OnFailure: func(ctx context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem, err error) {
				if err == nil && res.Status == http.StatusNotFound {
					missing.Add(1)
					return
				}
				failed.Add(1)
				if err != nil {
					slog.Error("Bulk update error", "error", err, "id", item.DocumentID)
				} else {
					slog.Error("Bulk update error", "status", res.Status, "error", res.Error.Type, "reason", res.Error.Reason, "id", item.DocumentID)
				}
			},
		})
		if err != nil {
			failed.Add(1)
			slog.Error("Failed to add update to bulk indexer", "error", err, "id", id)
		}
	}

	if err := bi.Close(ctx); err != nil {
		return fmt.Errorf("failed to close bulk indexer: %w", err)
	}

	slog.Info("Bulk update completed",
		"successful", successful.Load(),
		"missing", missing.Load(),
		"failed", failed.Load(),
		"index", s.indexName)

	if n := failed.Load(); n > 0 {
		return fmt.Errorf("failed to update %d out of %d articles", n, len(models))
	}
	return nil
}

// resolveID skips the search round trip for single id filters.
func (s *ArticleStore) resolveID(ctx context.Context, f storage.Filter) (string, error) {
	if len(f.IDs) == 1 && f.AuthorID == nil && f.CategoryID == nil && f.Published == nil &&
		f.PublishedSince == nil && !f.HasText() {
		return f.IDs[0].String(), nil
	}
	return s.firstID(ctx, f)
}

func (s *ArticleStore) firstID(ctx context.Context, f storage.Filter) (string, error) {
	article, err := s.FindOne(ctx, f)
	if err != nil || article == nil {
		return "", err
	}
	return article.ID.String(), nil
}

func (s *ArticleStore) updateByID(ctx context.Context, id string, u storage.Update) (bool, error) {
	sc, ok := buildScript(u)
	if !ok {
		return true, nil
	}
	body, err := scriptBody(sc)
	if err != nil {
		return false, fmt.Errorf("failed to encode update script: %w", err)
	}

	_, err = s.client.Update(s.indexName, id).
		Raw(bytes.NewReader(body)).
		RetryOnConflict(conflictRetries).
		Refresh(refresh.Waitfor).
		Do(ctx)
	if isNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to update article %s: %w", id, err)
	}
	return true, nil
}

func (s *ArticleStore) get(ctx context.Context, id string) (*domain.Article, error) {
	res, err := s.client.Get(s.indexName, id).Do(ctx)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get article %s: %w", id, err)
	}
	if !res.Found {
		return nil, nil
	}

	var doc ArticleDocument
	if err := json.Unmarshal(res.Source_, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal article: %w", err)
	}
	a := doc.toArticle()
	return &a, nil
}

func isNotFound(err error) bool {
	var esErr *types.ElasticsearchError
	return errors.As(err, &esErr) && esErr.Status == http.StatusNotFound
}

var _ storage.ArticleStore = (*ArticleStore)(nil)
