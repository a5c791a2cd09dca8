package pg

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/DjordjeVuckovic/news-cms/internal/domain"
	"github.com/DjordjeVuckovic/news-cms/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ArticleStore keeps articles in the articles table. Full-text matching runs on
// an english tsvector over title and content_url, ranked with ts_rank.
type ArticleStore struct {
	db *pgxpool.Pool
}

func NewArticleStore(pool *ConnectionPool) *ArticleStore {
	return &ArticleStore{db: pool.GetConn()}
}

func (s *ArticleStore) FindOne(ctx context.Context, filter storage.Filter) (*domain.Article, error) {
	hits, err := s.Find(ctx, filter, storage.FindOptions{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return nil, nil
	}
	return &hits[0].Article, nil
}

func (s *ArticleStore) Find(ctx context.Context, filter storage.Filter, opts storage.FindOptions) ([]storage.Hit, error) {
	q := &query{}
	where := q.where(filter)
	sql := fmt.Sprintf("SELECT %s, %s FROM %s%s%s", articleColumns, q.score(), articlesTable, where, orderBy(opts.Sort))
	if opts.Limit > 0 {
		sql += " LIMIT " + q.arg(opts.Limit)
	}
	if opts.Skip > 0 {
		sql += " OFFSET " + q.arg(opts.Skip)
	}

	slog.Debug("Executing pg article query", "sql", sql)
	rows, err := s.db.Query(ctx, sql, q.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query articles: %w", err)
	}
	defer rows.Close()

	hits := make([]storage.Hit, 0)
	for rows.Next() {
		var h storage.Hit
		if err := rows.Scan(append(articleDest(&h.Article), &h.Score)...); err != nil {
			return nil, fmt.Errorf("failed to scan article: %w", err)
		}
		normalize(&h.Article)
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return hits, nil
}

func (s *ArticleStore) Count(ctx context.Context, filter storage.Filter) (int64, error) {
	q := &query{}
	sql := fmt.Sprintf("SELECT COUNT(*) FROM %s%s", articlesTable, q.where(filter))

	var n int64
	if err := s.db.QueryRow(ctx, sql, q.args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count articles: %w", err)
	}
	return n, nil
}

func (s *ArticleStore) InsertOne(ctx context.Context, a domain.Article) (uuid.UUID, error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}

	cmd := `
        INSERT INTO articles (id, title, content_url, author_id, category_id, is_published, published_at, created_at, updated_at, views, likes_count)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        RETURNING id;
    `
	var id uuid.UUID
	err := s.db.QueryRow(
		ctx,
		cmd,
		a.ID,
		a.Title,
		a.ContentURL,
		a.AuthorID,
		a.CategoryID,
		a.IsPublished,
		a.PublishedAt,
		a.CreatedAt,
		a.UpdatedAt,
		a.Views,
		a.LikesCount,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert article: %w", err)
	}
	return id, nil
}

func (s *ArticleStore) FindOneAndUpdate(ctx context.Context, filter storage.Filter, update storage.Update) (*domain.Article, error) {
	q := &query{}
	set := q.set(update)
	if set == "" {
		return s.FindOne(ctx, filter)
	}

	sql := fmt.Sprintf("UPDATE %s SET %s WHERE id = (%s) RETURNING %s", articlesTable, set, q.firstID(filter), articleColumns)
	return s.returning(ctx, sql, q.args)
}

func (s *ArticleStore) FindOneAndDelete(ctx context.Context, filter storage.Filter) (*domain.Article, error) {
	q := &query{}
	sql := fmt.Sprintf("DELETE FROM %s WHERE id = (%s) RETURNING %s", articlesTable, q.firstID(filter), articleColumns)
	return s.returning(ctx, sql, q.args)
}

func (s *ArticleStore) UpdateOne(ctx context.Context, filter storage.Filter, update storage.Update) error {
	sql, args, ok := updateOneSQL(filter, update)
	if !ok {
		return nil
	}
	if _, err := s.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("failed to update article: %w", err)
	}
	return nil
}

// BulkWrite sends every update in one pgx batch. Each statement commits on its own.
func (s *ArticleStore) BulkWrite(ctx context.Context, models []storage.UpdateModel) error {
	batch := &pgx.Batch{}
	for _, m := range models {
		sql, args, ok := updateOneSQL(m.Filter, m.Update)
		if !ok {
			continue
		}
		batch.Queue(sql, args...)
	}
	if batch.Len() == 0 {
		return nil
	}

	br := s.db.SendBatch(ctx, batch)
	var errs []error
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			errs = append(errs, fmt.Errorf("update %d: %w", i, err))
		}
	}
	if err := br.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("failed to bulk update articles: %w", err)
	}
	return nil
}

func (s *ArticleStore) returning(ctx context.Context, sql string, args []any) (*domain.Article, error) {
	var a domain.Article
	err := s.db.QueryRow(ctx, sql, args...).Scan(articleDest(&a)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to modify article: %w", err)
	}
	normalize(&a)
	return &a, nil
}

func updateOneSQL(filter storage.Filter, update storage.Update) (string, []any, bool) {
	q := &query{}
	set := q.set(update)
	if set == "" {
		return "", nil, false
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE id = (%s)", articlesTable, set, q.firstID(filter)), q.args, true
}

func articleDest(a *domain.Article) []any {
	return []any{
		&a.ID,
		&a.Title,
		&a.ContentURL,
		&a.AuthorID,
		&a.CategoryID,
		&a.IsPublished,
		&a.PublishedAt,
		&a.CreatedAt,
		&a.UpdatedAt,
		&a.Views,
		&a.LikesCount,
	}
}

// normalize converts timestamps read in the session time zone back to UTC.
func normalize(a *domain.Article) {
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()
	if a.PublishedAt != nil {
		t := a.PublishedAt.UTC()
		a.PublishedAt = &t
	}
}

var _ storage.ArticleStore = (*ArticleStore)(nil)
