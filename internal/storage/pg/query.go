package pg

import (
	"fmt"
	"strings"

	"github.com/DjordjeVuckovic/news-cms/internal/storage"
)

const (
	articlesTable = "articles"
	searchConfig  = "english"

	articleColumns = "id, title, content_url, author_id, category_id, is_published, published_at, created_at, updated_at, views, likes_count"
)

// searchVector must stay identical to the expression of the text index, otherwise the planner ignores it.
var searchVector = textVector([]string{storage.FieldTitle, storage.FieldContentURL})

func textVector(fields []string) string {
	return fmt.Sprintf("to_tsvector('%s', %s)", searchConfig, strings.Join(fields, " || ' ' || "))
}

var sortColumns = map[storage.SortKey]string{
	storage.SortCreatedAt:   "created_at",
	storage.SortUpdatedAt:   "updated_at",
	storage.SortPublishedAt: "published_at",
	storage.SortLikes:       "likes_count",
	storage.SortViews:       "views",
	storage.SortScore:       "score",
}

// query accumulates positional arguments while a statement is assembled.
type query struct {
	args    []any
	tsQuery string
}

func (q *query) arg(v any) string {
	q.args = append(q.args, v)
	return fmt.Sprintf("$%d", len(q.args))
}

func (q *query) where(f storage.Filter) string {
	var conds []string

	if len(f.IDs) > 0 {
		ids := make([]string, 0, len(f.IDs))
		for _, id := range f.IDs {
			ids = append(ids, id.String())
		}
		conds = append(conds, fmt.Sprintf("id = ANY(%s::uuid[])", q.arg(ids)))
	}
	if f.AuthorID != nil {
		conds = append(conds, "author_id = "+q.arg(*f.AuthorID))
	}
	if f.CategoryID != nil {
		conds = append(conds, "category_id = "+q.arg(*f.CategoryID))
	}
	if f.Published != nil {
		conds = append(conds, "is_published = "+q.arg(*f.Published))
	}
	if f.PublishedSince != nil {
		conds = append(conds, "published_at >= "+q.arg(*f.PublishedSince))
	}
	if f.HasText() {
		q.tsQuery = fmt.Sprintf("plainto_tsquery('%s', %s)", searchConfig, q.arg(f.Text))
		conds = append(conds, fmt.Sprintf("%s @@ %s", searchVector, q.tsQuery))
	}

	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

// score must be called after where.
func (q *query) score() string {
	if q.tsQuery == "" {
		return "0::float8 AS score"
	}
	return fmt.Sprintf("ts_rank(%s, %s)::float8 AS score", searchVector, q.tsQuery)
}

// orderBy keeps nulls lowest in both directions and breaks ties by creation order.
func orderBy(fields []storage.SortField) string {
	parts := make([]string, 0, len(fields)+2)
	for _, f := range fields {
		col, ok := sortColumns[f.Key]
		if !ok {
			continue
		}
		if f.Desc {
			parts = append(parts, col+" DESC NULLS LAST")
		} else {
			parts = append(parts, col+" ASC NULLS FIRST")
		}
	}
	parts = append(parts, "created_at ASC", "id ASC")
	return " ORDER BY " + strings.Join(parts, ", ")
}

// set renders the SET list of an update, empty when there is nothing to write.
func (q *query) set(u storage.Update) string {
	var sets []string
	s := u.Set

	if s.Title != nil {
		sets = append(sets, "title = "+q.arg(*s.Title))
	}
	if s.ContentURL != nil {
		sets = append(sets, "content_url = "+q.arg(*s.ContentURL))
	}
	if s.AuthorID != nil {
		sets = append(sets, "author_id = "+q.arg(*s.AuthorID))
	}
	if s.ClearCategory {
		sets = append(sets, "category_id = NULL")
	} else if s.CategoryID != nil {
		sets = append(sets, "category_id = "+q.arg(*s.CategoryID))
	}
	if s.IsPublished != nil {
		sets = append(sets, "is_published = "+q.arg(*s.IsPublished))
	}
	if s.PublishedAt != nil {
		sets = append(sets, "published_at = "+q.arg(*s.PublishedAt))
	}

	likes := ""
	if s.LikesCount != nil {
		likes = q.arg(*s.LikesCount) + "::bigint"
	}
	if u.Inc.Likes != 0 {
		if likes == "" {
			likes = "likes_count"
		}
		likes += " + " + q.arg(u.Inc.Likes)
	}
	if likes != "" {
		sets = append(sets, "likes_count = "+likes)
	}
	if u.Inc.Views != 0 {
		sets = append(sets, "views = views + "+q.arg(u.Inc.Views))
	}
	if !u.UpdatedAt.IsZero() {
		sets = append(sets, "updated_at = "+q.arg(u.UpdatedAt))
	}

	return strings.Join(sets, ", ")
}

// firstID selects the row a single document operation applies to and locks it.
func (q *query) firstID(f storage.Filter) string {
	return fmt.Sprintf("SELECT id FROM %s%s ORDER BY created_at ASC, id ASC LIMIT 1 FOR UPDATE", articlesTable, q.where(f))
}
