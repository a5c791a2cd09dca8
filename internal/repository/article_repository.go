package repository

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/DjordjeVuckovic/news-cms/internal/apperr"
	"github.com/DjordjeVuckovic/news-cms/internal/domain"
	"github.com/DjordjeVuckovic/news-cms/internal/metrics"
	"github.com/DjordjeVuckovic/news-cms/internal/storage"
	"github.com/DjordjeVuckovic/news-cms/pkg/pagination"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ArticleRepository mediates every read and write of articles.
// Malformed identifiers never produce errors: lookups return nil, listings an empty page
// and counter updates do nothing.
type ArticleRepository struct {
	store        storage.ArticleStore
	now          func() time.Time
	indexTimeout time.Duration
	indexState   atomic.Int32
}

func NewArticleRepository(store storage.ArticleStore, opts ...Option) *ArticleRepository {
	r := &ArticleRepository{
		store:        store,
		now:          time.Now,
		indexTimeout: DefaultIndexTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *ArticleRepository) Create(ctx context.Context, in domain.NewArticle) (*domain.Article, error) {
	r.ensureIndexes(ctx)

	now := r.timestamp()
	article := domain.Article{
		ID:          uuid.New(),
		Title:       in.Title,
		ContentURL:  in.ContentURL,
		AuthorID:    in.AuthorID,
		CategoryID:  in.CategoryID,
		IsPublished: in.IsPublished,
		PublishedAt: in.PublishedAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	id, err := r.store.InsertOne(ctx, article)
	if err != nil {
		return nil, fmt.Errorf("failed to insert article: %w", err)
	}
	if id == uuid.Nil {
		return nil, ErrCreateFailed
	}
	article.ID = id

	metrics.ArticlesCreatedTotal.Inc()
	slog.Info("Article created", "id", article.ID, "author_id", article.AuthorID)
	return &article, nil
}

func (r *ArticleRepository) FindByID(ctx context.Context, id string) (*domain.Article, error) {
	r.ensureIndexes(ctx)

	articleID, ok := domain.ParseID(id)
	if !ok {
		return nil, nil
	}

	article, err := r.store.FindOne(ctx, storage.Filter{IDs: []uuid.UUID{articleID}})
	if err != nil {
		return nil, fmt.Errorf("failed to find article %s: %w", articleID, err)
	}
	return article, nil
}

// FindByIDs returns the articles in the order of ids. Malformed and unknown ids are skipped.
func (r *ArticleRepository) FindByIDs(ctx context.Context, ids []string) ([]domain.Article, error) {
	r.ensureIndexes(ctx)

	ordered := make([]uuid.UUID, 0, len(ids))
	unique := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, raw := range ids {
		id, ok := domain.ParseID(raw)
		if !ok {
			continue
		}
		ordered = append(ordered, id)
		if _, dup := seen[id]; !dup {
			seen[id] = struct{}{}
			unique = append(unique, id)
		}
	}
	if len(unique) == 0 {
		return []domain.Article{}, nil
	}

	hits, err := r.store.Find(ctx, storage.Filter{IDs: unique}, storage.FindOptions{
		Sort: []storage.SortField{storage.Desc(storage.SortCreatedAt)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find articles by ids: %w", err)
	}

	byID := make(map[uuid.UUID]domain.Article, len(hits))
	for _, h := range hits {
		byID[h.Article.ID] = h.Article
	}

	articles := make([]domain.Article, 0, len(ordered))
	for _, id := range ordered {
		if a, ok := byID[id]; ok {
			articles = append(articles, a)
		}
	}
	return articles, nil
}

func (r *ArticleRepository) FindMany(ctx context.Context, filter storage.Filter, opts ListOptions) (*pagination.Page[domain.Article], error) {
	r.ensureIndexes(ctx)

	sort := opts.Sort
	if len(sort) == 0 {
		sort = []storage.SortField{storage.Desc(storage.SortCreatedAt)}
	}
	return r.articlePage(ctx, filter, sort, opts.OffsetRequest)
}

func (r *ArticleRepository) FindPublished(ctx context.Context, opts PublishedOptions) (*pagination.Page[domain.Article], error) {
	r.ensureIndexes(ctx)

	filter := storage.Filter{Published: ptr(true), CategoryID: opts.CategoryID}
	sort := []storage.SortField{storage.Desc(storage.SortPublishedAt)}
	return r.articlePage(ctx, filter, sort, opts.OffsetRequest)
}

// UpdateByID applies patch and returns the updated article, or nil when id is malformed or unknown.
// Identifier, counters and creation time in the patch are ignored; updated_at is always refreshed.
func (r *ArticleRepository) UpdateByID(ctx context.Context, id string, patch domain.ArticlePatch) (*domain.Article, error) {
	r.ensureIndexes(ctx)

	articleID, ok := domain.ParseID(id)
	if !ok {
		return nil, nil
	}

	set, err := patchFields(patch.Stripped())
	if err != nil {
		return nil, err
	}

	update := storage.Update{Set: set, UpdatedAt: r.timestamp()}
	article, err := r.store.FindOneAndUpdate(ctx, storage.Filter{IDs: []uuid.UUID{articleID}}, update)
	if err != nil {
		return nil, fmt.Errorf("failed to update article %s: %w", articleID, err)
	}
	return article, nil
}

// DeleteByID removes the article and returns its last state.
func (r *ArticleRepository) DeleteByID(ctx context.Context, id string) (*domain.Article, error) {
	r.ensureIndexes(ctx)

	articleID, ok := domain.ParseID(id)
	if !ok {
		return nil, nil
	}

	article, err := r.store.FindOneAndDelete(ctx, storage.Filter{IDs: []uuid.UUID{articleID}})
	if err != nil {
		return nil, fmt.Errorf("failed to delete article %s: %w", articleID, err)
	}
	if article != nil {
		slog.Info("Article deleted", "id", articleID)
	}
	return article, nil
}

func (r *ArticleRepository) IncrementViews(ctx context.Context, id string) error {
	r.ensureIndexes(ctx)

	articleID, ok := domain.ParseID(id)
	if !ok {
		return nil
	}

	update := storage.Update{Inc: storage.Counters{Views: 1}, UpdatedAt: r.timestamp()}
	if err := r.store.UpdateOne(ctx, storage.Filter{IDs: []uuid.UUID{articleID}}, update); err != nil {
		return fmt.Errorf("failed to increment views of %s: %w", articleID, err)
	}
	return nil
}

// UpdateLikesCount adds delta, which may be negative, to the like counter.
func (r *ArticleRepository) UpdateLikesCount(ctx context.Context, id string, delta int64) error {
	r.ensureIndexes(ctx)

	articleID, ok := domain.ParseID(id)
	if !ok {
		return nil
	}

	update := storage.Update{Inc: storage.Counters{Likes: delta}, UpdatedAt: r.timestamp()}
	if err := r.store.UpdateOne(ctx, storage.Filter{IDs: []uuid.UUID{articleID}}, update); err != nil {
		return fmt.Errorf("failed to update likes of %s: %w", articleID, err)
	}
	return nil
}

func (r *ArticleRepository) FindByAuthor(ctx context.Context, authorID string, opts AuthorOptions) (*pagination.Page[domain.Article], error) {
	r.ensureIndexes(ctx)

	id, ok := domain.ParseID(authorID)
	if !ok {
		return pagination.Empty[domain.Article](opts.OffsetRequest), nil
	}

	filter := storage.Filter{AuthorID: &id}
	if !opts.IncludeUnpublished {
		filter.Published = ptr(true)
	}
	sort := []storage.SortField{storage.Desc(storage.SortCreatedAt)}
	return r.articlePage(ctx, filter, sort, opts.OffsetRequest)
}

// Search ranks full-text matches over title and content_url by relevance.
// A blank query matches nothing.
func (r *ArticleRepository) Search(ctx context.Context, query string, opts SearchOptions) (*pagination.Page[domain.ArticleSearchResult], error) {
	r.ensureIndexes(ctx)

	query = strings.TrimSpace(query)
	if query == "" {
		return pagination.Empty[domain.ArticleSearchResult](opts.OffsetRequest), nil
	}

	filter := storage.Filter{Text: query}
	if !opts.IncludeUnpublished {
		filter.Published = ptr(true)
	}
	sort := []storage.SortField{storage.Desc(storage.SortScore)}

	hits, total, err := r.page(ctx, filter, sort, opts.OffsetRequest)
	if err != nil {
		return nil, err
	}

	results := make([]domain.ArticleSearchResult, 0, len(hits))
	for _, h := range hits {
		results = append(results, domain.ArticleSearchResult{
			Article: h.Article,
			Score:   domain.RoundScore(h.Score),
		})
	}
	slog.Debug("Article search executed", "query", query, "page_hits", len(results), "total", total)
	return pagination.NewPage(results, total, opts.OffsetRequest), nil
}

// FindPopular lists articles published in the last Days days, most liked first,
// then most viewed, then most recent.
func (r *ArticleRepository) FindPopular(ctx context.Context, opts PopularOptions) (*pagination.Page[domain.Article], error) {
	r.ensureIndexes(ctx)

	days := opts.Days
	if days <= 0 {
		days = DefaultPopularDays
	}
	days = min(days, MaxPopularDays)
	since := r.now().AddDate(0, 0, -days)

	filter := storage.Filter{Published: ptr(true), PublishedSince: &since}
	sort := []storage.SortField{
		storage.Desc(storage.SortLikes),
		storage.Desc(storage.SortViews),
		storage.Desc(storage.SortPublishedAt),
	}
	return r.articlePage(ctx, filter, sort, opts.OffsetRequest)
}

// UpdateStatsForArticles overwrites like counters in one bulk write. Unlike UpdateLikesCount
// the values are absolute.
func (r *ArticleRepository) UpdateStatsForArticles(ctx context.Context, updates []domain.ArticleStats) error {
	r.ensureIndexes(ctx)

	if len(updates) == 0 {
		return nil
	}

	now := r.timestamp()
	models := make([]storage.UpdateModel, 0, len(updates))
	for _, u := range updates {
		id, ok := domain.ParseID(u.ID)
		if !ok {
			slog.Debug("Skipping stats update with malformed id", "id", u.ID)
			continue
		}
		models = append(models, storage.UpdateModel{
			Filter: storage.Filter{IDs: []uuid.UUID{id}},
			Update: storage.Update{
				Set:       storage.Fields{LikesCount: ptr(u.LikesCount)},
				UpdatedAt: now,
			},
		})
	}
	if len(models) == 0 {
		return nil
	}

	if err := r.store.BulkWrite(ctx, models); err != nil {
		return fmt.Errorf("failed to bulk update article stats: %w", err)
	}
	slog.Info("Article stats updated", "count", len(models))
	return nil
}

func (r *ArticleRepository) articlePage(ctx context.Context, filter storage.Filter, sort []storage.SortField, req pagination.OffsetRequest) (*pagination.Page[domain.Article], error) {
	hits, total, err := r.page(ctx, filter, sort, req)
	if err != nil {
		return nil, err
	}
	return pagination.NewPage(storage.Articles(hits), total, req), nil
}

// page fetches one page and the total match count concurrently.
func (r *ArticleRepository) page(ctx context.Context, filter storage.Filter, sort []storage.SortField, req pagination.OffsetRequest) ([]storage.Hit, int64, error) {
	req = req.Normalize()

	var (
		hits  []storage.Hit
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		hits, err = r.store.Find(gctx, filter, storage.FindOptions{
			Sort:  sort,
			Skip:  req.Skip(),
			Limit: int64(req.Limit),
		})
		if err != nil {
			return fmt.Errorf("failed to find articles: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		total, err = r.store.Count(gctx, filter)
		if err != nil {
			return fmt.Errorf("failed to count articles: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return hits, total, nil
}

// timestamp is millisecond precise so values survive every backend unchanged.
func (r *ArticleRepository) timestamp() time.Time {
	return r.now().UTC().Truncate(time.Millisecond)
}

func patchFields(p domain.ArticlePatch) (storage.Fields, error) {
	set := storage.Fields{
		Title:       p.Title,
		ContentURL:  p.ContentURL,
		AuthorID:    p.AuthorID,
		IsPublished: p.IsPublished,
		PublishedAt: p.PublishedAt,
	}

	if p.CategoryID != nil {
		raw := strings.TrimSpace(*p.CategoryID)
		if raw == "" {
			set.ClearCategory = true
		} else {
			id, ok := domain.ParseID(raw)
			if !ok {
				return storage.Fields{}, apperr.InvalidField("category_id")
			}
			set.CategoryID = &id
		}
	}
	return set, nil
}

func ptr[T any](v T) *T {
	return &v
}
