package repository

import (
	"sync"

	"github.com/DjordjeVuckovic/news-cms/internal/storage"
)

// Registry holds the process wide article repository. Init may be called again to
// replace the instance, e.g. when tests swap the store.
type Registry struct {
	mu   sync.RWMutex
	repo *ArticleRepository
}

func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) Init(store storage.ArticleStore, opts ...Option) *ArticleRepository {
	repo := NewArticleRepository(store, opts...)

	r.mu.Lock()
	r.repo = repo
	r.mu.Unlock()

	return repo
}

func (r *Registry) Get() (*ArticleRepository, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.repo == nil {
		return nil, ErrRegistryNotInitialized
	}
	return r.repo, nil
}
