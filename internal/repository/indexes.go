package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/DjordjeVuckovic/news-cms/internal/metrics"
	"github.com/DjordjeVuckovic/news-cms/internal/storage"
)

type IndexState int32

const (
	IndexNotAttempted IndexState = iota
	IndexEnsuring
	IndexReady
	IndexFailed
)

func (s IndexState) String() string {
	switch s {
	case IndexNotAttempted:
		return "not_attempted"
	case IndexEnsuring:
		return "ensuring"
	case IndexReady:
		return "ready"
	case IndexFailed:
		return "failed"
	}
	return "unknown"
}

const (
	TextIndexName      = "article_text_idx"
	PublishedIndexName = "article_published_idx"
	AuthorIndexName    = "article_author_idx"
	CategoryIndexName  = "article_category_idx"
)

var textIndex = storage.IndexSpec{
	Name:       TextIndexName,
	TextFields: []string{storage.FieldTitle, storage.FieldContentURL},
}

var secondaryIndexes = []storage.IndexSpec{
	{
		Name: PublishedIndexName,
		Keys: []storage.IndexKey{{Field: storage.FieldIsPublished}, {Field: storage.FieldPublishedAt, Desc: true}},
	},
	{
		Name: AuthorIndexName,
		Keys: []storage.IndexKey{{Field: storage.FieldAuthorID}, {Field: storage.FieldCreatedAt, Desc: true}},
	},
	{
		Name: CategoryIndexName,
		Keys: []storage.IndexKey{{Field: storage.FieldCategoryID}, {Field: storage.FieldCreatedAt, Desc: true}},
	},
}

// IndexState reports the provisioning state of this repository.
func (r *ArticleRepository) IndexState() IndexState {
	return IndexState(r.indexState.Load())
}

// EnsureIndexes provisions the article indexes once per repository. Later calls, and calls
// racing with a running attempt, return nil without touching the store. The error is
// informational: operations never depend on it.
func (r *ArticleRepository) EnsureIndexes(ctx context.Context) error {
	if !r.indexState.CompareAndSwap(int32(IndexNotAttempted), int32(IndexEnsuring)) {
		return nil
	}

	if err := r.provisionIndexes(ctx); err != nil {
		r.indexState.Store(int32(IndexFailed))
		metrics.IndexProvisioningTotal.WithLabelValues(metrics.ProvisioningFailed).Inc()
		slog.Error("Failed to ensure article indexes, continuing without them", "error", err)
		return err
	}

	r.indexState.Store(int32(IndexReady))
	metrics.IndexProvisioningTotal.WithLabelValues(metrics.ProvisioningReady).Inc()
	slog.Info("Article indexes ensured")
	return nil
}

// ensureIndexes starts provisioning in the background on the first operation.
func (r *ArticleRepository) ensureIndexes(ctx context.Context) {
	if r.IndexState() != IndexNotAttempted {
		return
	}

	go func() {
		ictx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.indexTimeout)
		defer cancel()
		_ = r.EnsureIndexes(ictx)
	}()
}

func (r *ArticleRepository) provisionIndexes(ctx context.Context) error {
	r.dropTextIndexes(ctx)

	var textErr error
	if err := r.store.CreateIndex(ctx, textIndex); err != nil && !errors.Is(err, storage.ErrIndexExists) {
		textErr = fmt.Errorf("failed to create text index: %w", err)
	}

	// Secondary indexes do not depend on the text index.
	for _, spec := range secondaryIndexes {
		err := r.store.CreateIndex(ctx, spec)
		if err == nil || errors.Is(err, storage.ErrIndexExists) {
			continue
		}
		slog.Warn("Failed to create index, skipping", "index", spec.Name, "error", err)
	}

	return textErr
}

// dropTextIndexes removes existing full-text indexes so a changed key set never conflicts
// with the one created next.
func (r *ArticleRepository) dropTextIndexes(ctx context.Context) {
	infos, err := r.store.ListIndexes(ctx)
	if err != nil {
		slog.Debug("Could not list indexes, skipping text index cleanup", "error", err)
		return
	}

	for _, info := range infos {
		if !info.Text {
			continue
		}
		err := r.store.DropIndex(ctx, info.Name)
		if err != nil && !errors.Is(err, storage.ErrIndexNotFound) {
			slog.Warn("Failed to drop text index", "index", info.Name, "error", err)
		}
	}
}
