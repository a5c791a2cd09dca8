package es

import (
	"time"

	"github.com/DjordjeVuckovic/news-cms/internal/domain"
	"github.com/DjordjeVuckovic/news-cms/internal/storage"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types"
	"github.com/google/uuid"
)

const textAnalyzer = "article_analyzer"

// ArticleDocument is the _source of an article in the index.
type ArticleDocument struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	ContentURL  string     `json:"content_url"`
	AuthorID    string     `json:"author_id"`
	CategoryID  *string    `json:"category_id"`
	IsPublished bool       `json:"is_published"`
	PublishedAt *time.Time `json:"published_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Views       int64      `json:"views"`
	LikesCount  int64      `json:"likes_count"`
}

func toDocument(a domain.Article) ArticleDocument {
	doc := ArticleDocument{
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

func (d ArticleDocument) toArticle() domain.Article {
	a := domain.Article{
		Title:       d.Title,
		ContentURL:  d.ContentURL,
		IsPublished: d.IsPublished,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
		Views:       d.Views,
		LikesCount:  d.LikesCount,
	}
	a.ID, _ = uuid.Parse(d.ID)
	a.AuthorID, _ = uuid.Parse(d.AuthorID)
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

func buildSettings() types.IndexSettings {
	return types.IndexSettings{
		Analysis: &types.IndexSettingsAnalysis{
			Analyzer: map[string]types.Analyzer{
				textAnalyzer: types.StandardAnalyzer{
					Stopwords: []string{"_english_"},
				},
			},
		},
	}
}

func buildMapping() types.TypeMapping {
	return types.TypeMapping{
		Properties: map[string]types.Property{
			"id":                     types.NewKeywordProperty(),
			storage.FieldTitle:       textPropertyWithKeyword(textAnalyzer),
			storage.FieldContentURL:  textPropertyWithKeyword(textAnalyzer),
			storage.FieldAuthorID:    types.NewKeywordProperty(),
			storage.FieldCategoryID:  types.NewKeywordProperty(),
			storage.FieldIsPublished: types.NewBooleanProperty(),
			storage.FieldPublishedAt: types.NewDateProperty(),
			storage.FieldCreatedAt:   types.NewDateProperty(),
			storage.FieldUpdatedAt:   types.NewDateProperty(),
			storage.FieldViews:       types.NewLongNumberProperty(),
			storage.FieldLikesCount:  types.NewLongNumberProperty(),
		},
	}
}

func textPropertyWithKeyword(analyzer string) types.Property {
	textProp := types.NewTextProperty()
	if analyzer != "" {
		textProp.Analyzer = &analyzer
	}
	textProp.Fields = map[string]types.Property{
		"keyword": types.NewKeywordProperty(),
	}
	return textProp
}
