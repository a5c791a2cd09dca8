package es

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/DjordjeVuckovic/news-cms/internal/storage"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types/enums/sortorder"
)

var textFields = []string{storage.FieldTitle, storage.FieldContentURL}

var sortFields = map[storage.SortKey]string{
	storage.SortCreatedAt:   storage.FieldCreatedAt,
	storage.SortUpdatedAt:   storage.FieldUpdatedAt,
	storage.SortPublishedAt: storage.FieldPublishedAt,
	storage.SortLikes:       storage.FieldLikesCount,
	storage.SortViews:       storage.FieldViews,
	storage.SortScore:       "_score",
}

func buildQuery(f storage.Filter) *types.Query {
	var filters []types.Query

	if len(f.IDs) > 0 {
		ids := make([]string, 0, len(f.IDs))
		for _, id := range f.IDs {
			ids = append(ids, id.String())
		}
		filters = append(filters, types.Query{Ids: &types.IdsQuery{Values: ids}})
	}
	if f.AuthorID != nil {
		filters = append(filters, term(storage.FieldAuthorID, f.AuthorID.String()))
	}
	if f.CategoryID != nil {
		filters = append(filters, term(storage.FieldCategoryID, f.CategoryID.String()))
	}
	if f.Published != nil {
		filters = append(filters, term(storage.FieldIsPublished, *f.Published))
	}
	if f.PublishedSince != nil {
		since := f.PublishedSince.UTC().Format(time.RFC3339Nano)
		filters = append(filters, types.Query{Range: map[string]types.RangeQuery{
			storage.FieldPublishedAt: types.DateRangeQuery{Gte: &since},
		}})
	}

	bq := &types.BoolQuery{Filter: filters}
	if f.HasText() {
		bq.Must = []types.Query{{MultiMatch: &types.MultiMatchQuery{
			Query:  f.Text,
			Fields: textFields,
		}}}
	}
	return &types.Query{Bool: bq}
}

func term(field string, value types.FieldValue) types.Query {
	return types.Query{Term: map[string]types.TermQuery{field: {Value: value}}}
}

// buildSort keeps missing values lowest in both directions, ties fall back to creation order.
func buildSort(fields []storage.SortField) []types.SortCombinations {
	desc, asc := sortorder.Desc, sortorder.Asc
	sorts := make([]types.SortCombinations, 0, len(fields)+2)

	for _, f := range fields {
		name, ok := sortFields[f.Key]
		if !ok {
			continue
		}
		fs := types.FieldSort{Order: &asc, Missing: "_first"}
		if f.Desc {
			fs = types.FieldSort{Order: &desc, Missing: "_last"}
		}
		if name == "_score" {
			fs.Missing = nil
		}
		sorts = append(sorts, types.SortOptions{SortOptions: map[string]types.FieldSort{name: fs}})
	}

	sorts = append(sorts,
		types.SortOptions{SortOptions: map[string]types.FieldSort{storage.FieldCreatedAt: {Order: &asc}}},
		types.SortOptions{SortOptions: map[string]types.FieldSort{"id": {Order: &asc}}},
	)
	return sorts
}

type script struct {
	Source string         `json:"source"`
	Lang   string         `json:"lang"`
	Params map[string]any `json:"params"`
}

// buildScript renders an update as a painless script so counters are incremented inside the shard.
func buildScript(u storage.Update) (*script, bool) {
	var src []string
	params := map[string]any{}
	setParam := func(field string, v any) {
		params[field] = v
		src = append(src, "ctx._source."+field+" = params."+field+";")
	}

	s := u.Set
	if s.Title != nil {
		setParam(storage.FieldTitle, *s.Title)
	}
	if s.ContentURL != nil {
		setParam(storage.FieldContentURL, *s.ContentURL)
	}
	if s.AuthorID != nil {
		setParam(storage.FieldAuthorID, s.AuthorID.String())
	}
	if s.ClearCategory {
		src = append(src, "ctx._source."+storage.FieldCategoryID+" = null;")
	} else if s.CategoryID != nil {
		setParam(storage.FieldCategoryID, s.CategoryID.String())
	}
	if s.IsPublished != nil {
		setParam(storage.FieldIsPublished, *s.IsPublished)
	}
	if s.PublishedAt != nil {
		setParam(storage.FieldPublishedAt, s.PublishedAt.UTC().Format(time.RFC3339Nano))
	}
	if s.LikesCount != nil {
		setParam(storage.FieldLikesCount, *s.LikesCount)
	}
	if u.Inc.Likes != 0 {
		params["inc_likes"] = u.Inc.Likes
		src = append(src, "ctx._source."+storage.FieldLikesCount+" += params.inc_likes;")
	}
	if u.Inc.Views != 0 {
		params["inc_views"] = u.Inc.Views
		src = append(src, "ctx._source."+storage.FieldViews+" += params.inc_views;")
	}
	if !u.UpdatedAt.IsZero() {
		setParam(storage.FieldUpdatedAt, u.UpdatedAt.UTC().Format(time.RFC3339Nano))
	}

	if len(src) == 0 {
		return nil, false
	}
	return &script{Source: strings.Join(src, " "), Lang: "painless", Params: params}, true
}

func scriptBody(s *script) ([]byte, error) {
	return json.Marshal(map[string]any{"script": s})
}
