package mongo

import (
	"time"

	"github.com/DjordjeVuckovic/news-cms/internal/domain"
	"github.com/google/uuid"
)

// articleDocument is the stored shape. Identifiers are kept as canonical strings.
type articleDocument struct {
	ID          string     `bson:"_id"`
	Title       string     `bson:"title"`
	ContentURL  string     `bson:"content_url"`
	AuthorID    string     `bson:"author_id"`
	CategoryID  *string    `bson:"category_id"`
	IsPublished bool       `bson:"is_published"`
	PublishedAt *time.Time `bson:"published_at"`
	CreatedAt   time.Time  `bson:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at"`
	Views       int64      `bson:"views"`
	LikesCount  int64      `bson:"likes_count"`
	Score       float64    `bson:"score,omitempty"`
}

func toDocument(a domain.Article) articleDocument {
	doc := articleDocument{
		ID:          a.ID.String(),
		Title:       a.Title,
		ContentURL:  a.ContentURL,
		AuthorID:    a.AuthorID.String(),
		IsPublished: a.IsPublished,
		PublishedAt: a.PublishedAt,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
		Views:       a.Views,
		LikesCount:  a.LikesCount,
	}
	if a.CategoryID != nil {
		c := a.CategoryID.String()
		doc.CategoryID = &c
	}
	return doc
}

// toArticle tolerates foreign documents: unparsable ids decode as uuid.Nil.
func (d articleDocument) toArticle() domain.Article {
	a := domain.Article{
		ID:          parseUUID(d.ID),
		Title:       d.Title,
		ContentURL:  d.ContentURL,
		AuthorID:    parseUUID(d.AuthorID),
		IsPublished: d.IsPublished,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
		Views:       d.Views,
		LikesCount:  d.LikesCount,
	}
	if d.CategoryID != nil {
		if c, err := uuid.Parse(*d.CategoryID); err == nil {
			a.CategoryID = &c
		}
	}
	if d.PublishedAt != nil {
		t := d.PublishedAt.UTC()
		a.PublishedAt = &t
	}
	return a
}

func parseUUID(s string) uuid.UUID {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil
	}
	return id
}
