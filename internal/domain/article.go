package domain

import (
	"time"

	"github.com/google/uuid"
)

type Article struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	ContentURL  string     `json:"content_url"`
	AuthorID    uuid.UUID  `json:"author_id"`
	CategoryID  *uuid.UUID `json:"category_id"`
	IsPublished bool       `json:"is_published"`
	PublishedAt *time.Time `json:"published_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Views       int64      `json:"views"`
	LikesCount  int64      `json:"likes_count"`
}

// NewArticle is the caller supplied part of an article.
// Identifier, timestamps and counters are assigned by the repository.
type NewArticle struct {
	Title       string     `json:"title"`
	ContentURL  string     `json:"content_url"`
	AuthorID    uuid.UUID  `json:"author_id"`
	CategoryID  *uuid.UUID `json:"category_id,omitempty"`
	IsPublished bool       `json:"is_published"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// ArticlePatch is a partial update as it arrives from clients.
// ID, Views, LikesCount, CreatedAt and UpdatedAt are accepted so loose payloads decode,
// but the repository never applies them.
type ArticlePatch struct {
	Title       *string    `json:"title,omitempty"`
	ContentURL  *string    `json:"content_url,omitempty"`
	AuthorID    *uuid.UUID `json:"author_id,omitempty"`
	CategoryID  *string    `json:"category_id,omitempty"`
	IsPublished *bool      `json:"is_published,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`

	ID         *string    `json:"id,omitempty"`
	Views      *int64     `json:"views,omitempty"`
	LikesCount *int64     `json:"likes_count,omitempty"`
	CreatedAt  *time.Time `json:"created_at,omitempty"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
}

// Stripped returns a copy without the fields clients may not set.
func (p ArticlePatch) Stripped() ArticlePatch {
	p.ID = nil
	p.Views = nil
	p.LikesCount = nil
	p.CreatedAt = nil
	p.UpdatedAt = nil
	return p
}

// ArticleStats is an absolute like counter for one article.
type ArticleStats struct {
	ID         string `json:"id" yaml:"id"`
	LikesCount int64  `json:"likes_count" yaml:"likes_count"`
}

type ArticleSearchResult struct {
	Article `json:"article"`
	Score   float64 `json:"score"`
}
