package ingest

import (
	"fmt"
	"strconv"
	"time"

	"github.com/DjordjeVuckovic/news-cms/internal/domain"
)

const (
	ColumnTitle       = "title"
	ColumnContentURL  = "content_url"
	ColumnAuthorID    = "author_id"
	ColumnCategoryID  = "category_id"
	ColumnIsPublished = "is_published"
	ColumnPublishedAt = "published_at"
)

var dateLayouts = []string{time.RFC3339Nano, time.DateTime, time.DateOnly}

// MapArticle converts a record into the input of ArticleRepository.Create.
func MapArticle(fields map[string]string) (domain.NewArticle, error) {
	var a domain.NewArticle

	a.Title = fields[ColumnTitle]
	a.ContentURL = fields[ColumnContentURL]
	if a.Title == "" || a.ContentURL == "" {
		return a, fmt.Errorf("%s and %s are required", ColumnTitle, ColumnContentURL)
	}

	author, ok := domain.ParseID(fields[ColumnAuthorID])
	if !ok {
		return a, fmt.Errorf("invalid %s %q", ColumnAuthorID, fields[ColumnAuthorID])
	}
	a.AuthorID = author

	if raw := fields[ColumnCategoryID]; raw != "" {
		category, ok := domain.ParseID(raw)
		if !ok {
			return a, fmt.Errorf("invalid %s %q", ColumnCategoryID, raw)
		}
		a.CategoryID = &category
	}

	if raw := fields[ColumnIsPublished]; raw != "" {
		published, err := strconv.ParseBool(raw)
		if err != nil {
			return a, fmt.Errorf("invalid %s %q", ColumnIsPublished, raw)
		}
		a.IsPublished = published
	}

	if raw := fields[ColumnPublishedAt]; raw != "" {
		t, err := parseTime(raw)
		if err != nil {
			return a, err
		}
		a.PublishedAt = &t
	}

	return a, nil
}

func parseTime(raw string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid %s %q", ColumnPublishedAt, raw)
}
