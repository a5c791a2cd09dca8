package ingest

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/DjordjeVuckovic/news-cms/internal/domain"
	"golang.org/x/sync/errgroup"
)

const defaultWorkers = 4

// Creator is the part of the article repository the import writes through.
type Creator interface {
	Create(ctx context.Context, in domain.NewArticle) (*domain.Article, error)
}

type Summary struct {
	Imported int64
	Skipped  int64
	Failed   int64
}

type PipelineConfig struct {
	Name    string
	Workers int
}

type PipelineOption func(*ArticlePipeline)

func WithWorkers(n int) PipelineOption {
	return func(p *ArticlePipeline) {
		if n > 0 {
			p.config.Workers = n
		}
	}
}

// ArticlePipeline creates one article per CSV row. Malformed rows are logged and skipped,
// rejected creates are counted as failed; neither stops the run.
type ArticlePipeline struct {
	reader  *CSVReader
	creator Creator
	config  PipelineConfig
}

func NewPipeline(reader *CSVReader, creator Creator, opts ...PipelineOption) *ArticlePipeline {
	p := &ArticlePipeline{
		reader:  reader,
		creator: creator,
		config: PipelineConfig{
			Name:    "article-import",
			Workers: defaultWorkers,
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run returns early only when the input header is unreadable or ctx is cancelled.
func (p *ArticlePipeline) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	slog.Info("Starting pipeline run", "pipeline", p.config.Name, "workers", p.config.Workers)

	records, err := p.reader.Read(ctx)
	if err != nil {
		return Summary{}, err
	}

	var imported, skipped, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < p.config.Workers; w++ {
		g.Go(func() error {
			for rec := range records {
				if rec.Err != nil {
					slog.Warn("Skipping unreadable row", "pipeline", p.config.Name, "line", rec.Line, "error", rec.Err)
					skipped.Add(1)
					continue
				}
				in, err := MapArticle(rec.Fields)
				if err != nil {
					slog.Warn("Skipping malformed row", "pipeline", p.config.Name, "line", rec.Line, "error", err)
					skipped.Add(1)
					continue
				}

				article, err := p.creator.Create(gctx, in)
				if err != nil {
					if gctx.Err() != nil {
						return gctx.Err()
					}
					slog.Error("Failed to create article", "pipeline", p.config.Name, "line", rec.Line, "title", in.Title, "error", err)
					failed.Add(1)
					continue
				}
				slog.Debug("Article imported", "id", article.ID, "line", rec.Line)
				imported.Add(1)
			}
			return gctx.Err()
		})
	}

	err = g.Wait()
	summary := Summary{Imported: imported.Load(), Skipped: skipped.Load(), Failed: failed.Load()}
	slog.Info("Pipeline run completed",
		"pipeline", p.config.Name,
		"imported", summary.Imported,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"duration", time.Since(start),
	)
	return summary, err
}
