//go:build integration

package pg

import (
	"context"
	"os"
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
	"github.com/testcontainers/testcontainers-go"
)

var (
	testCtx   context.Context
	testPool  *ConnectionPool
	testStore *ArticleStore
)

func TestMain(m *testing.M) {
	testCtx = context.Background()

	pg, err := pkgtesting.NewPGContainer(testCtx, pkgtesting.PGConfig{
		Database: "cms_test_db",
		Username: "test",
		Password: "test",
	})
	if err != nil {
		panic(err)
	}

	testPool, err = NewConnectionPool(testCtx, PoolConfig{ConnStr: pg.ConnString})
	if err != nil {
		_ = testcontainers.TerminateContainer(pg.Container)
		panic(err)
	}
	testStore = NewArticleStore(testPool)

	code := m.Run()

	testPool.Close()
	_ = testcontainers.TerminateContainer(pg.Container)
	os.Exit(code)
}

func truncateTables(t *testing.T) {
	t.Helper()
	_, err := testPool.GetConn().Exec(testCtx, "TRUNCATE TABLE articles, users CASCADE")
	require.NoError(t, err)
}

func newArticle(title string, createdAt time.Time) domain.Article {
	return domain.Article{
		ID:         uuid.New(),
		Title:      title,
		ContentURL: "/c/" + title,
		AuthorID:   uuid.New(),
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}
}

func TestArticleStore_InsertAndFind(t *testing.T) {
	truncateTables(t)
	base := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

	category := uuid.New()
	a := newArticle("postgres full text search", base)
	a.CategoryID = &category
	b := newArticle("mongo aggregation", base.Add(time.Minute))
	publishedAt := base.Add(time.Hour)
	b.IsPublished = true
	b.PublishedAt = &publishedAt

	for _, art := range []domain.Article{a, b} {
		id, err := testStore.InsertOne(testCtx, art)
		require.NoError(t, err)
		assert.Equal(t, art.ID, id)
	}

	found, err := testStore.FindOne(testCtx, storage.Filter{IDs: []uuid.UUID{a.ID}})
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, a, *found)

	published := true
	hits, err := testStore.Find(testCtx, storage.Filter{Published: &published}, storage.FindOptions{})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, b.ID, hits[0].Article.ID)

	hits, err = testStore.Find(testCtx, storage.Filter{Text: "search"}, storage.FindOptions{
		Sort: []storage.SortField{storage.Desc(storage.SortScore)},
	})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, a.ID, hits[0].Article.ID)
	assert.Greater(t, hits[0].Score, 0.0)

	n, err := testStore.Count(testCtx, storage.Filter{CategoryID: &category})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestArticleStore_Updates(t *testing.T) {
	truncateTables(t)
	base := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	category := uuid.New()
	a := newArticle("before", base)
	a.CategoryID = &category
	_, err := testStore.InsertOne(testCtx, a)
	require.NoError(t, err)
	filter := storage.Filter{IDs: []uuid.UUID{a.ID}}

	title := "after"
	now := base.Add(time.Hour)
	updated, err := testStore.FindOneAndUpdate(testCtx, filter, storage.Update{
		Set:       storage.Fields{Title: &title, ClearCategory: true},
		UpdatedAt: now,
	})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "after", updated.Title)
	assert.Nil(t, updated.CategoryID)
	assert.Equal(t, now, updated.UpdatedAt)

	require.NoError(t, testStore.UpdateOne(testCtx, filter, storage.Update{Inc: storage.Counters{Views: 3, Likes: 2}}))

	likes := int64(7)
	require.NoError(t, testStore.BulkWrite(testCtx, []storage.UpdateModel{
		{Filter: filter, Update: storage.Update{Set: storage.Fields{LikesCount: &likes}, UpdatedAt: now}},
		{Filter: storage.Filter{IDs: []uuid.UUID{uuid.New()}}, Update: storage.Update{Set: storage.Fields{LikesCount: &likes}}},
	}))

	found, err := testStore.FindOne(testCtx, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(3), found.Views)
	assert.Equal(t, int64(7), found.LikesCount)

	missing, err := testStore.FindOneAndUpdate(testCtx, storage.Filter{IDs: []uuid.UUID{uuid.New()}}, storage.Update{UpdatedAt: now})
	require.NoError(t, err)
	assert.Nil(t, missing)

	removed, err := testStore.FindOneAndDelete(testCtx, filter)
	require.NoError(t, err)
	require.NotNil(t, removed)
	assert.Equal(t, a.ID, removed.ID)

	again, err := testStore.FindOneAndDelete(testCtx, filter)
	require.NoError(t, err)
	assert.Nil(t, again)
}

func TestArticleStore_Indexes(t *testing.T) {
	text := storage.IndexSpec{Name: "it_text_idx", TextFields: []string{storage.FieldTitle, storage.FieldContentURL}}
	plain := storage.IndexSpec{Name: "it_author_idx", Keys: []storage.IndexKey{{Field: storage.FieldAuthorID}, {Field: storage.FieldCreatedAt, Desc: true}}}

	require.NoError(t, testStore.CreateIndex(testCtx, text))
	require.NoError(t, testStore.CreateIndex(testCtx, plain))
	assert.ErrorIs(t, testStore.CreateIndex(testCtx, plain), storage.ErrIndexExists)

	infos, err := testStore.ListIndexes(testCtx)
	require.NoError(t, err)
	assert.Contains(t, infos, storage.IndexInfo{Name: "it_text_idx", Text: true})
	assert.Contains(t, infos, storage.IndexInfo{Name: "it_author_idx"})

	require.NoError(t, testStore.DropIndex(testCtx, "it_text_idx"))
	require.NoError(t, testStore.DropIndex(testCtx, "it_author_idx"))
	assert.ErrorIs(t, testStore.DropIndex(testCtx, "it_text_idx"), storage.ErrIndexNotFound)
}

func TestUserStore(t *testing.T) {
	truncateTables(t)
	users := NewUserStore(testPool)

	created, err := users.Create(testCtx, "editor", "$2a$10$hash")
	require.NoError(t, err)

	byName, err := users.FindByUsername(testCtx, "editor")
	require.NoError(t, err)
	require.NotNil(t, byName)
	assert.Equal(t, created.ID, byName.ID)
	assert.Equal(t, "$2a$10$hash", byName.PasswordHash)

	byID, err := users.FindByID(testCtx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "editor", byID.Username)

	missing, err := users.FindByUsername(testCtx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestArticleRepository_ConcurrentCounters(t *testing.T) {
	ctx := context.Background()
	truncateTables(t)
	repo := repository.NewArticleRepository(testStore)

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
