//go:build integration

package mongo

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/DjordjeVuckovic/news-cms/internal/domain"
	"github.com/DjordjeVuckovic/news-cms/internal/repository"
	"github.com/DjordjeVuckovic/news-cms/internal/storage"
	pkgtesting "github.com/DjordjeVuckovic/news-cms/pkg/testing"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *ArticleStore {
	t.Helper()
	ctx := context.Background()
	container := pkgtesting.NewMongoContainer(ctx, t)

	client, err := NewClient(ctx, ClientConfig{URI: container.URI, Database: "cms_test"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close(context.Background()) })

	return NewArticleStore(client)
}

func TestArticleStore(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	category := uuid.New()
	a := domain.Article{
		ID: uuid.New(), Title: "mongo text search", ContentURL: "/c/1", AuthorID: uuid.New(),
		CategoryID: &category, CreatedAt: base, UpdatedAt: base,
	}

	t.Run("insert and find", func(t *testing.T) {
		id, err := store.InsertOne(ctx, a)
		require.NoError(t, err)
		assert.Equal(t, a.ID, id)

		found, err := store.FindOne(ctx, storage.Filter{IDs: []uuid.UUID{a.ID}})
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, a, *found)
	})

	t.Run("indexes", func(t *testing.T) {
		text := storage.IndexSpec{Name: "it_text", TextFields: []string{storage.FieldTitle, storage.FieldContentURL}}
		require.NoError(t, store.CreateIndex(ctx, text))

		other := storage.IndexSpec{Name: "it_text_other", TextFields: []string{storage.FieldTitle}}
		assert.Error(t, store.CreateIndex(ctx, other), "only one text index per collection")

		infos, err := store.ListIndexes(ctx)
		require.NoError(t, err)
		assert.Contains(t, infos, storage.IndexInfo{Name: "it_text", Text: true})
		assert.Contains(t, infos, storage.IndexInfo{Name: "_id_"})

		hits, err := store.Find(ctx, storage.Filter{Text: "search"}, storage.FindOptions{
			Sort: []storage.SortField{storage.Desc(storage.SortScore)},
		})
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Greater(t, hits[0].Score, 0.0)

		require.NoError(t, store.DropIndex(ctx, "it_text"))
		assert.ErrorIs(t, store.DropIndex(ctx, "it_text"), storage.ErrIndexNotFound)
	})

	t.Run("updates", func(t *testing.T) {
		filter := storage.Filter{IDs: []uuid.UUID{a.ID}}
		now := base.Add(time.Hour)
		title := "renamed"

		updated, err := store.FindOneAndUpdate(ctx, filter, storage.Update{
			Set:       storage.Fields{Title: &title, ClearCategory: true},
			Inc:       storage.Counters{Views: 1},
			UpdatedAt: now,
		})
		require.NoError(t, err)
		assert.Equal(t, "renamed", updated.Title)
		assert.Nil(t, updated.CategoryID)
		assert.Equal(t, int64(1), updated.Views)
		assert.Equal(t, now, updated.UpdatedAt)

		likes := int64(9)
		require.NoError(t, store.BulkWrite(ctx, []storage.UpdateModel{
			{Filter: filter, Update: storage.Update{Set: storage.Fields{LikesCount: &likes}}},
		}))
		require.NoError(t, store.UpdateOne(ctx, filter, storage.Update{Inc: storage.Counters{Likes: -1}}))

		found, err := store.FindOne(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(8), found.LikesCount)

		removed, err := store.FindOneAndDelete(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, a.ID, removed.ID)

		n, err := store.Count(ctx, storage.Filter{})
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

func TestArticleRepositoryOnMongo(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewArticleRepository(newTestStore(t))
	require.NoError(t, repo.EnsureIndexes(ctx))

	created, err := repo.Create(ctx, domain.NewArticle{Title: "Hello", ContentURL: "/c/1", AuthorID: uuid.New()})
	require.NoError(t, err)

	results, err := repo.Search(ctx, "Hello", repository.SearchOptions{})
	require.NoError(t, err)
	assert.Empty(t, results.Items)

	now := time.Now().UTC().Truncate(time.Millisecond)
	published := true
	_, err = repo.UpdateByID(ctx, created.ID.String(), domain.ArticlePatch{IsPublished: &published, PublishedAt: &now})
	require.NoError(t, err)

	results, err = repo.Search(ctx, "Hello", repository.SearchOptions{})
	require.NoError(t, err)
	require.Len(t, results.Items, 1)
	assert.Equal(t, created.ID, results.Items[0].ID)
}

func TestArticleRepository_ConcurrentCounters(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewArticleRepository(newTestStore(t))
	require.NoError(t, repo.EnsureIndexes(ctx))

	created, err := repo.Create(ctx, domain.NewArticle{Title: "Counters", ContentURL: "/c/counters", AuthorID: uuid.New()})
	require.NoError(t, err)
	id := created.ID.String()

	const workers = 8
	var wg sync.WaitGroup
	for range workers {
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, repo.IncrementViews(ctx, id))
		}()
		go func() {
			defer wg.Done()
			assert.NoError(t, repo.UpdateLikesCount(ctx, id, 2))
		}()
	}
	wg.Wait()

	found, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, int64(workers), found.Views)
	assert.Equal(t, int64(2*workers), found.LikesCount)

	require.NoError(t, repo.UpdateStatsForArticles(ctx, []domain.ArticleStats{
		{ID: id, LikesCount: 3},
		{ID: "not-an-id", LikesCount: 99},
	}))
	found, err = repo.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(3), found.LikesCount)
	assert.Equal(t, int64(workers), found.Views)
}
