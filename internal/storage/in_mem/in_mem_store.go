package in_mem

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/DjordjeVuckovic/news-cms/internal/domain"
	"github.com/DjordjeVuckovic/news-cms/internal/storage"
	"github.com/google/uuid"
)

// Store keeps articles in process memory. Every operation holds the lock for its whole
// duration, which makes single document updates atomic like in the real stores.
type Store struct {
	storageLock sync.RWMutex
	storage     map[uuid.UUID]domain.Article
	indexes     map[string]storage.IndexSpec
}

func NewStore() *Store {
	return &Store{
		storage: make(map[uuid.UUID]domain.Article),
		indexes: make(map[string]storage.IndexSpec),
	}
}

func (s *Store) FindOne(ctx context.Context, filter storage.Filter) (*domain.Article, error) {
	s.storageLock.RLock()
	defer s.storageLock.RUnlock()

	hits := s.match(filter)
	if len(hits) == 0 {
		return nil, nil
	}
	sortHits(hits, nil)
	article := hits[0].Article
	return &article, nil
}

func (s *Store) Find(ctx context.Context, filter storage.Filter, opts storage.FindOptions) ([]storage.Hit, error) {
	s.storageLock.RLock()
	defer s.storageLock.RUnlock()

	hits := s.match(filter)
	sortHits(hits, opts.Sort)

	if opts.Skip > 0 {
		if opts.Skip >= int64(len(hits)) {
			return []storage.Hit{}, nil
		}
		hits = hits[opts.Skip:]
	}
	if opts.Limit > 0 && opts.Limit < int64(len(hits)) {
		hits = hits[:opts.Limit]
	}
	return hits, nil
}

func (s *Store) Count(ctx context.Context, filter storage.Filter) (int64, error) {
	s.storageLock.RLock()
	defer s.storageLock.RUnlock()

	return int64(len(s.match(filter))), nil
}

func (s *Store) InsertOne(ctx context.Context, article domain.Article) (uuid.UUID, error) {
	s.storageLock.Lock()
	defer s.storageLock.Unlock()

	if article.ID == uuid.Nil {
		article.ID = uuid.New()
	}
	if _, ok := s.storage[article.ID]; ok {
		return uuid.Nil, ErrDuplicateID
	}
	s.storage[article.ID] = article
	slog.Debug("Saved article to in-memory storage", "title", article.Title, "id", article.ID)
	return article.ID, nil
}

func (s *Store) FindOneAndUpdate(ctx context.Context, filter storage.Filter, update storage.Update) (*domain.Article, error) {
	s.storageLock.Lock()
	defer s.storageLock.Unlock()

	updated, ok := s.updateFirst(filter, update)
	if !ok {
		return nil, nil
	}
	return &updated, nil
}

func (s *Store) FindOneAndDelete(ctx context.Context, filter storage.Filter) (*domain.Article, error) {
	s.storageLock.Lock()
	defer s.storageLock.Unlock()

	hits := s.match(filter)
	if len(hits) == 0 {
		return nil, nil
	}
	sortHits(hits, nil)
	removed := hits[0].Article
	delete(s.storage, removed.ID)
	return &removed, nil
}

func (s *Store) UpdateOne(ctx context.Context, filter storage.Filter, update storage.Update) error {
	s.storageLock.Lock()
	defer s.storageLock.Unlock()

	s.updateFirst(filter, update)
	return nil
}

func (s *Store) BulkWrite(ctx context.Context, models []storage.UpdateModel) error {
	s.storageLock.Lock()
	defer s.storageLock.Unlock()

	for _, m := range models {
		s.updateFirst(m.Filter, m.Update)
	}
	return nil
}

func (s *Store) CreateIndex(ctx context.Context, spec storage.IndexSpec) error {
	s.storageLock.Lock()
	defer s.storageLock.Unlock()

	if _, ok := s.indexes[spec.Name]; ok {
		return storage.ErrIndexExists
	}
	s.indexes[spec.Name] = spec
	return nil
}

func (s *Store) DropIndex(ctx context.Context, name string) error {
	s.storageLock.Lock()
	defer s.storageLock.Unlock()

	if _, ok := s.indexes[name]; !ok {
		return storage.ErrIndexNotFound
	}
	delete(s.indexes, name)
	return nil
}

func (s *Store) ListIndexes(ctx context.Context) ([]storage.IndexInfo, error) {
	s.storageLock.RLock()
	defer s.storageLock.RUnlock()

	infos := make([]storage.IndexInfo, 0, len(s.indexes))
	for name, spec := range s.indexes {
		infos = append(infos, storage.IndexInfo{Name: name, Text: spec.IsText()})
	}
	slices.SortFunc(infos, func(a, b storage.IndexInfo) int {
		return strings.Compare(a.Name, b.Name)
	})
	return infos, nil
}

// Len reports the number of stored articles.
func (s *Store) Len() int {
	s.storageLock.RLock()
	defer s.storageLock.RUnlock()
	return len(s.storage)
}

func (s *Store) updateFirst(filter storage.Filter, update storage.Update) (domain.Article, bool) {
	hits := s.match(filter)
	if len(hits) == 0 {
		return domain.Article{}, false
	}
	sortHits(hits, nil)
	updated := apply(hits[0].Article, update)
	s.storage[updated.ID] = updated
	return updated, true
}

func (s *Store) match(filter storage.Filter) []storage.Hit {
	var terms []string
	if filter.HasText() {
		terms = tokenize(filter.Text)
		if len(terms) == 0 {
			return []storage.Hit{}
		}
	}

	hits := make([]storage.Hit, 0)
	for _, a := range s.storage {
		if !matches(a, filter) {
			continue
		}
		var score float64
		if terms != nil {
			score = textScore(a, terms)
			if score == 0 {
				continue
			}
		}
		hits = append(hits, storage.Hit{Article: a, Score: score})
	}
	return hits
}

func matches(a domain.Article, f storage.Filter) bool {
	if len(f.IDs) > 0 && !slices.Contains(f.IDs, a.ID) {
		return false
	}
	if f.AuthorID != nil && a.AuthorID != *f.AuthorID {
		return false
	}
	if f.CategoryID != nil && (a.CategoryID == nil || *a.CategoryID != *f.CategoryID) {
		return false
	}
	if f.Published != nil && a.IsPublished != *f.Published {
		return false
	}
	if f.PublishedSince != nil && (a.PublishedAt == nil || a.PublishedAt.Before(*f.PublishedSince)) {
		return false
	}
	return true
}

func apply(a domain.Article, u storage.Update) domain.Article {
	set := u.Set
	if set.Title != nil {
		a.Title = *set.Title
	}
	if set.ContentURL != nil {
		a.ContentURL = *set.ContentURL
	}
	if set.AuthorID != nil {
		a.AuthorID = *set.AuthorID
	}
	if set.ClearCategory {
		a.CategoryID = nil
	} else if set.CategoryID != nil {
		id := *set.CategoryID
		a.CategoryID = &id
	}
	if set.IsPublished != nil {
		a.IsPublished = *set.IsPublished
	}
	if set.PublishedAt != nil {
		t := *set.PublishedAt
		a.PublishedAt = &t
	}
	if set.LikesCount != nil {
		a.LikesCount = *set.LikesCount
	}
	a.Views += u.Inc.Views
	a.LikesCount += u.Inc.Likes
	if !u.UpdatedAt.IsZero() {
		a.UpdatedAt = u.UpdatedAt
	}
	return a
}

// textScore counts occurrences of the query terms in title and content_url.
func textScore(a domain.Article, terms []string) float64 {
	var score float64
	doc := tokenize(a.Title + " " + a.ContentURL)
	for _, term := range terms {
		for _, w := range doc {
			if w == term {
				score++
			}
		}
	}
	return score
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func sortHits(hits []storage.Hit, fields []storage.SortField) {
	slices.SortStableFunc(hits, func(a, b storage.Hit) int {
		for _, f := range fields {
			c := compareBy(a, b, f.Key)
			if f.Desc {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		if c := a.Article.CreatedAt.Compare(b.Article.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.Article.ID.String(), b.Article.ID.String())
	})
}

func compareBy(a, b storage.Hit, key storage.SortKey) int {
	switch key {
	case storage.SortCreatedAt:
		return a.Article.CreatedAt.Compare(b.Article.CreatedAt)
	case storage.SortUpdatedAt:
		return a.Article.UpdatedAt.Compare(b.Article.UpdatedAt)
	case storage.SortPublishedAt:
		return compareTimePtr(a.Article.PublishedAt, b.Article.PublishedAt)
	case storage.SortLikes:
		return compareInt(a.Article.LikesCount, b.Article.LikesCount)
	case storage.SortViews:
		return compareInt(a.Article.Views, b.Article.Views)
	case storage.SortScore:
		switch {
		case a.Score < b.Score:
			return -1
		case a.Score > b.Score:
			return 1
		}
	}
	return 0
}

// compareTimePtr orders nil before any time, matching how document stores sort nulls.
func compareTimePtr(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return a.Compare(*b)
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

var _ storage.ArticleStore = (*Store)(nil)
