package mongo

import (
	"github.com/DjordjeVuckovic/news-cms/internal/storage"
	"go.mongodb.org/mongo-driver/bson"
)

var textScore = bson.D{{Key: "$meta", Value: "textScore"}}

// firstSort picks the document a single document operation applies to.
var firstSort = bson.D{{Key: storage.FieldCreatedAt, Value: 1}, {Key: "_id", Value: 1}}

var sortFields = map[storage.SortKey]string{
	storage.SortCreatedAt:   storage.FieldCreatedAt,
	storage.SortUpdatedAt:   storage.FieldUpdatedAt,
	storage.SortPublishedAt: storage.FieldPublishedAt,
	storage.SortLikes:       storage.FieldLikesCount,
	storage.SortViews:       storage.FieldViews,
}

func filterDoc(f storage.Filter) bson.D {
	doc := bson.D{}

	if len(f.IDs) > 0 {
		ids := make([]string, 0, len(f.IDs))
		for _, id := range f.IDs {
			ids = append(ids, id.String())
		}
		doc = append(doc, bson.E{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}})
	}
	if f.AuthorID != nil {
		doc = append(doc, bson.E{Key: storage.FieldAuthorID, Value: f.AuthorID.String()})
	}
	if f.CategoryID != nil {
		doc = append(doc, bson.E{Key: storage.FieldCategoryID, Value: f.CategoryID.String()})
	}
	if f.Published != nil {
		doc = append(doc, bson.E{Key: storage.FieldIsPublished, Value: *f.Published})
	}
	if f.PublishedSince != nil {
		doc = append(doc, bson.E{Key: storage.FieldPublishedAt, Value: bson.D{{Key: "$gte", Value: *f.PublishedSince}}})
	}
	if f.HasText() {
		doc = append(doc, bson.E{Key: "$text", Value: bson.D{{Key: "$search", Value: f.Text}}})
	}
	return doc
}

// sortDoc sorts by the relevance meta field for score keys; ties fall back to creation order.
func sortDoc(fields []storage.SortField, text bool) bson.D {
	doc := bson.D{}
	for _, f := range fields {
		if f.Key == storage.SortScore {
			if text {
				doc = append(doc, bson.E{Key: "score", Value: textScore})
			}
			continue
		}
		name, ok := sortFields[f.Key]
		if !ok {
			continue
		}
		dir := 1
		if f.Desc {
			dir = -1
		}
		doc = append(doc, bson.E{Key: name, Value: dir})
	}
	return append(doc, firstSort...)
}

// updateDoc renders $set and $inc, nil when there is nothing to write.
func updateDoc(u storage.Update) bson.D {
	set := bson.D{}
	inc := bson.D{}
	s := u.Set

	if s.Title != nil {
		set = append(set, bson.E{Key: storage.FieldTitle, Value: *s.Title})
	}
	if s.ContentURL != nil {
		set = append(set, bson.E{Key: storage.FieldContentURL, Value: *s.ContentURL})
	}
	if s.AuthorID != nil {
		set = append(set, bson.E{Key: storage.FieldAuthorID, Value: s.AuthorID.String()})
	}
	if s.ClearCategory {
		set = append(set, bson.E{Key: storage.FieldCategoryID, Value: nil})
	} else if s.CategoryID != nil {
		set = append(set, bson.E{Key: storage.FieldCategoryID, Value: s.CategoryID.String()})
	}
	if s.IsPublished != nil {
		set = append(set, bson.E{Key: storage.FieldIsPublished, Value: *s.IsPublished})
	}
	if s.PublishedAt != nil {
		set = append(set, bson.E{Key: storage.FieldPublishedAt, Value: *s.PublishedAt})
	}
	// $set and $inc may not touch the same path.
	if s.LikesCount != nil {
		set = append(set, bson.E{Key: storage.FieldLikesCount, Value: *s.LikesCount + u.Inc.Likes})
	} else if u.Inc.Likes != 0 {
		inc = append(inc, bson.E{Key: storage.FieldLikesCount, Value: u.Inc.Likes})
	}
	if u.Inc.Views != 0 {
		inc = append(inc, bson.E{Key: storage.FieldViews, Value: u.Inc.Views})
	}
	if !u.UpdatedAt.IsZero() {
		set = append(set, bson.E{Key: storage.FieldUpdatedAt, Value: u.UpdatedAt})
	}

	doc := bson.D{}
	if len(set) > 0 {
		doc = append(doc, bson.E{Key: "$set", Value: set})
	}
	if len(inc) > 0 {
		doc = append(doc, bson.E{Key: "$inc", Value: inc})
	}
	if len(doc) == 0 {
		return nil
	}
	return doc
}
