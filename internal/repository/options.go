package repository

import (
	"time"

	"github.com/DjordjeVuckovic/news-cms/internal/storage"
	"github.com/DjordjeVuckovic/news-cms/pkg/pagination"
	"github.com/google/uuid"
)

const (
	DefaultPopularDays  = 7
	// MaxPopularDays is the widest popularity window, about a century.
	MaxPopularDays      = 36500
	DefaultIndexTimeout = 30 * time.Second
)

// ListOptions paginates FindMany. Sort defaults to created_at descending.
type ListOptions struct {
	pagination.OffsetRequest
	Sort []storage.SortField
}

type PublishedOptions struct {
	pagination.OffsetRequest
	CategoryID *uuid.UUID
}

// AuthorOptions lists published articles of an author unless IncludeUnpublished is set.
type AuthorOptions struct {
	pagination.OffsetRequest
	IncludeUnpublished bool
}

// SearchOptions restricts search to published articles unless IncludeUnpublished is set.
type SearchOptions struct {
	pagination.OffsetRequest
	IncludeUnpublished bool
}

// PopularOptions looks back Days days, DefaultPopularDays when not positive and
// MaxPopularDays at most.
type PopularOptions struct {
	pagination.OffsetRequest
	Days int
}

type Option func(*ArticleRepository)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(r *ArticleRepository) {
		r.now = now
	}
}

// WithIndexTimeout bounds the background index provisioning.
func WithIndexTimeout(d time.Duration) Option {
	return func(r *ArticleRepository) {
		if d > 0 {
			r.indexTimeout = d
		}
	}
}
