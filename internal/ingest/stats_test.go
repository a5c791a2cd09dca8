package ingest

import (
	"strings"
	"testing"

	"github.com/DjordjeVuckovic/news-cms/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadStats(t *testing.T) {
	stats, err := LoadStats(strings.NewReader(`
- id: ` + authorID + `
  likes_count: 12
- id: not-an-id
  likes_count: 3
`))
	require.NoError(t, err)
	assert.Equal(t, []domain.ArticleStats{
		{ID: authorID, LikesCount: 12},
		{ID: "not-an-id", LikesCount: 3},
	}, stats)

	empty, err := LoadStats(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = LoadStats(strings.NewReader("- id: x\n  likes_count: -1\n"))
	assert.Error(t, err)

	_, err = LoadStats(strings.NewReader("id: x\n"))
	assert.Error(t, err)
}
