package ingest

import (
	"fmt"
	"io"

	"github.com/DjordjeVuckovic/news-cms/internal/domain"
	"gopkg.in/yaml.v3"
)

// LoadStats decodes a YAML list of {id, likes_count} entries.
func LoadStats(r io.Reader) ([]domain.ArticleStats, error) {
	var stats []domain.ArticleStats
	if err := yaml.NewDecoder(r).Decode(&stats); err != nil {
		if err == io.EOF {
			return []domain.ArticleStats{}, nil
		}
		return nil, fmt.Errorf("failed to decode stats: %w", err)
	}
	for i, s := range stats {
		if s.LikesCount < 0 {
			return nil, fmt.Errorf("stats entry %d: likes_count must not be negative", i)
		}
	}
	return stats, nil
}
