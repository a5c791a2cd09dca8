package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DjordjeVuckovic/news-cms/internal/domain"
	"github.com/DjordjeVuckovic/news-cms/internal/repository"
	"github.com/DjordjeVuckovic/news-cms/internal/storage/in_mem"
	"github.com/DjordjeVuckovic/news-cms/pkg/pagination"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	authorID   = "6ba7b810-9dad-11d1-80b4-00c04fd430c8"
	categoryID = "6ba7b811-9dad-11d1-80b4-00c04fd430c8"
)

func TestCSVReader_Read(t *testing.T) {
	data := "Title, Content_URL\n" +
		"Go Concurrency, /c/go\n" +
		"only one column\n" +
		"Interfaces,/c/interfaces\n"

	records, err := NewCSVReader(strings.NewReader(data)).Read(context.Background())
	require.NoError(t, err)

	var got []Record
	for rec := range records {
		got = append(got, rec)
	}
	require.Len(t, got, 3)

	assert.Equal(t, 2, got[0].Line)
	assert.Equal(t, map[string]string{"title": "Go Concurrency", "content_url": "/c/go"}, got[0].Fields)
	assert.Error(t, got[1].Err)
	assert.Equal(t, 3, got[1].Line)
	assert.Equal(t, "Interfaces", got[2].Fields["title"])
}

type brokenReader struct {
	data string
	err  error
}

func (r *brokenReader) Read(p []byte) (int, error) {
	if r.data == "" {
		return 0, r.err
	}
	n := copy(p, r.data)
	r.data = r.data[n:]
	return n, nil
}

func TestCSVReader_Errors(t *testing.T) {
	t.Run("read failure ends the stream", func(t *testing.T) {
		diskErr := errors.New("disk gone")
		records, err := NewCSVReader(&brokenReader{data: "title\n", err: diskErr}).Read(context.Background())
		require.NoError(t, err)

		var got []Record
		for rec := range records {
			got = append(got, rec)
			require.Less(t, len(got), 10, "stream did not stop")
		}
		require.Len(t, got, 1)
		assert.ErrorIs(t, got[0].Err, diskErr)
	})

	t.Run("parse errors keep reading", func(t *testing.T) {
		data := "title,content_url\n" +
			"bad\"quote,/c/a\n" +
			"ok,/c/ok\n"
		records, err := NewCSVReader(strings.NewReader(data)).Read(context.Background())
		require.NoError(t, err)

		var got []Record
		for rec := range records {
			got = append(got, rec)
		}
		require.Len(t, got, 2)
		var parseErr *csv.ParseError
		assert.ErrorAs(t, got[0].Err, &parseErr)
		assert.Equal(t, "ok", got[1].Fields["title"])
	})
}

func TestCSVReader_EmptyInput(t *testing.T) {
	_, err := NewCSVReader(strings.NewReader("")).Read(context.Background())
	assert.Error(t, err)
}

func TestCSVReader_CancelEarly(t *testing.T) {
	data := "title\na\nb\nc\n"
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	records, err := NewCSVReader(strings.NewReader(data)).Read(ctx)
	require.NoError(t, err)

	<-records
	cancel()
	for range records {
	}
}

func TestMapArticle(t *testing.T) {
	valid := func() map[string]string {
		return map[string]string{
			ColumnTitle:      "t",
			ColumnContentURL: "/c",
			ColumnAuthorID:   authorID,
		}
	}

	t.Run("minimal", func(t *testing.T) {
		a, err := MapArticle(valid())
		require.NoError(t, err)
		assert.Equal(t, uuid.MustParse(authorID), a.AuthorID)
		assert.Nil(t, a.CategoryID)
		assert.False(t, a.IsPublished)
		assert.Nil(t, a.PublishedAt)
	})

	t.Run("all columns", func(t *testing.T) {
		f := valid()
		f[ColumnCategoryID] = categoryID
		f[ColumnIsPublished] = "true"
		f[ColumnPublishedAt] = "2025-04-01"

		a, err := MapArticle(f)
		require.NoError(t, err)
		require.NotNil(t, a.CategoryID)
		assert.Equal(t, categoryID, a.CategoryID.String())
		assert.True(t, a.IsPublished)
		assert.Equal(t, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), *a.PublishedAt)
	})

	tests := []struct {
		name   string
		column string
		value  string
	}{
		{name: "blank title", column: ColumnTitle, value: ""},
		{name: "missing url", column: ColumnContentURL, value: ""},
		{name: "malformed author", column: ColumnAuthorID, value: "x"},
		{name: "malformed category", column: ColumnCategoryID, value: "x"},
		{name: "malformed flag", column: ColumnIsPublished, value: "maybe"},
		{name: "malformed date", column: ColumnPublishedAt, value: "yesterday"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := valid()
			f[tt.column] = tt.value
			_, err := MapArticle(f)
			assert.Error(t, err)
		})
	}
}

type flakyCreator struct {
	mu     sync.Mutex
	titles []string
}

func (c *flakyCreator) Create(ctx context.Context, in domain.NewArticle) (*domain.Article, error) {
	if in.Title == "reject" {
		return nil, errors.New("store unavailable")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.titles = append(c.titles, in.Title)
	return &domain.Article{ID: uuid.New(), Title: in.Title}, nil
}

func TestArticlePipeline_Run(t *testing.T) {
	data := "title,content_url,author_id,is_published\n" +
		"first,/1," + authorID + ",true\n" +
		"broken,/2,not-an-id,true\n" +
		"reject,/3," + authorID + ",false\n" +
		"second,/4," + authorID + ",false\n"

	creator := &flakyCreator{}
	summary, err := NewPipeline(NewCSVReader(strings.NewReader(data)), creator, WithWorkers(2)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Summary{Imported: 2, Skipped: 1, Failed: 1}, summary)
	assert.ElementsMatch(t, []string{"first", "second"}, creator.titles)
}

func TestArticlePipeline_IntoRepository(t *testing.T) {
	repo := repository.NewArticleRepository(in_mem.NewStore())
	data := "title,content_url,author_id,published_at,is_published\n" +
		"Budget vote,/news/budget," + authorID + ",2025-04-01T10:00:00Z,true\n" +
		"Draft,/news/draft," + authorID + ",,false\n"

	summary, err := NewPipeline(NewCSVReader(strings.NewReader(data)), repo).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.Imported)

	page, err := repo.FindByAuthor(context.Background(), authorID, repository.AuthorOptions{
		OffsetRequest:      pagination.OffsetRequest{},
		IncludeUnpublished: true,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
}
