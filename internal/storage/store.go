package storage

import (
	"context"
	"errors"
	"time"

	"github.com/DjordjeVuckovic/news-cms/internal/domain"
	"github.com/google/uuid"
)

var (
	// ErrIndexExists is returned by CreateIndex when an equivalent index is already present.
	ErrIndexExists = errors.New("index already exists")
	// ErrIndexNotFound is returned by DropIndex when there is nothing to drop.
	ErrIndexNotFound = errors.New("index not found")
)

// ArticleStore is the document store adapter the article repository runs on.
// Single document operations are atomic; BulkWrite is atomic per operation only.
type ArticleStore interface {
	// FindOne returns the first match or nil when nothing matches.
	FindOne(ctx context.Context, filter Filter) (*domain.Article, error)
	Find(ctx context.Context, filter Filter, opts FindOptions) ([]Hit, error)
	Count(ctx context.Context, filter Filter) (int64, error)
	// InsertOne returns the identifier the store acknowledged, uuid.Nil when it acknowledged none.
	InsertOne(ctx context.Context, article domain.Article) (uuid.UUID, error)
	// FindOneAndUpdate applies update to the first match and returns the document after the update.
	FindOneAndUpdate(ctx context.Context, filter Filter, update Update) (*domain.Article, error)
	FindOneAndDelete(ctx context.Context, filter Filter) (*domain.Article, error)
	UpdateOne(ctx context.Context, filter Filter, update Update) error
	BulkWrite(ctx context.Context, models []UpdateModel) error

	CreateIndex(ctx context.Context, spec IndexSpec) error
	DropIndex(ctx context.Context, name string) error
	ListIndexes(ctx context.Context) ([]IndexInfo, error)
}

// Filter selects articles. Zero valued fields do not restrict the result.
type Filter struct {
	IDs            []uuid.UUID
	AuthorID       *uuid.UUID
	CategoryID     *uuid.UUID
	Published      *bool
	PublishedSince *time.Time
	// Text requests relevance ranked full-text matching over title and content_url.
	Text string
}

func (f Filter) HasText() bool {
	return f.Text != ""
}

type SortKey string

const (
	SortCreatedAt   SortKey = "created_at"
	SortUpdatedAt   SortKey = "updated_at"
	SortPublishedAt SortKey = "published_at"
	SortLikes       SortKey = "likes_count"
	SortViews       SortKey = "views"
	// SortScore orders by text relevance and is only meaningful with Filter.Text.
	SortScore SortKey = "score"
)

func (k SortKey) Valid() bool {
	switch k {
	case SortCreatedAt, SortUpdatedAt, SortPublishedAt, SortLikes, SortViews, SortScore:
		return true
	}
	return false
}

type SortField struct {
	Key  SortKey
	Desc bool
}

func Desc(key SortKey) SortField {
	return SortField{Key: key, Desc: true}
}

func Asc(key SortKey) SortField {
	return SortField{Key: key}
}

type FindOptions struct {
	Sort  []SortField
	Skip  int64
	Limit int64
}

// Hit is a matched article. Score is the text relevance, zero without a text filter.
type Hit struct {
	Article domain.Article
	Score   float64
}

func Articles(hits []Hit) []domain.Article {
	articles := make([]domain.Article, 0, len(hits))
	for _, h := range hits {
		articles = append(articles, h.Article)
	}
	return articles
}

// Fields holds absolute values to set. Nil pointers are left untouched.
type Fields struct {
	Title         *string
	ContentURL    *string
	AuthorID      *uuid.UUID
	CategoryID    *uuid.UUID
	ClearCategory bool
	IsPublished   *bool
	PublishedAt   *time.Time
	LikesCount    *int64
}

func (f Fields) Empty() bool {
	return f.Title == nil && f.ContentURL == nil && f.AuthorID == nil && f.CategoryID == nil &&
		!f.ClearCategory && f.IsPublished == nil && f.PublishedAt == nil && f.LikesCount == nil
}

// Counters are relative increments applied atomically by the store.
type Counters struct {
	Views int64
	Likes int64
}

func (c Counters) Empty() bool {
	return c.Views == 0 && c.Likes == 0
}

type Update struct {
	Set       Fields
	Inc       Counters
	UpdatedAt time.Time
}

type UpdateModel struct {
	Filter Filter
	Update Update
}

// Article field names as stored by every backend.
const (
	FieldTitle       = "title"
	FieldContentURL  = "content_url"
	FieldAuthorID    = "author_id"
	FieldCategoryID  = "category_id"
	FieldIsPublished = "is_published"
	FieldPublishedAt = "published_at"
	FieldCreatedAt   = "created_at"
	FieldUpdatedAt   = "updated_at"
	FieldViews       = "views"
	FieldLikesCount  = "likes_count"
)

type IndexKey struct {
	Field string
	Desc  bool
}

// IndexSpec describes an index. A text index covers TextFields, a secondary index covers Keys.
type IndexSpec struct {
	Name       string
	Keys       []IndexKey
	TextFields []string
}

func (s IndexSpec) IsText() bool {
	return len(s.TextFields) > 0
}

type IndexInfo struct {
	Name string
	Text bool
}
