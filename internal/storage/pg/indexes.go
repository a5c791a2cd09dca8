package pg

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/DjordjeVuckovic/news-cms/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	codeDuplicateTable  = "42P07"
	codeUndefinedObject = "42704"
)

func (s *ArticleStore) CreateIndex(ctx context.Context, spec storage.IndexSpec) error {
	name := pgx.Identifier{spec.Name}.Sanitize()

	var cmd string
	if spec.IsText() {
		cmd = fmt.Sprintf("CREATE INDEX %s ON %s USING GIN (%s)", name, articlesTable, textVector(spec.TextFields))
	} else {
		keys := make([]string, 0, len(spec.Keys))
		for _, k := range spec.Keys {
			key := pgx.Identifier{k.Field}.Sanitize()
			if k.Desc {
				key += " DESC"
			}
			keys = append(keys, key)
		}
		cmd = fmt.Sprintf("CREATE INDEX %s ON %s (%s)", name, articlesTable, strings.Join(keys, ", "))
	}

	if _, err := s.db.Exec(ctx, cmd); err != nil {
		if hasCode(err, codeDuplicateTable) {
			return fmt.Errorf("%w: %s", storage.ErrIndexExists, spec.Name)
		}
		return fmt.Errorf("failed to create index %s: %w", spec.Name, err)
	}
	return nil
}

func (s *ArticleStore) DropIndex(ctx context.Context, name string) error {
	if _, err := s.db.Exec(ctx, "DROP INDEX "+pgx.Identifier{name}.Sanitize()); err != nil {
		if hasCode(err, codeUndefinedObject) {
			return fmt.Errorf("%w: %s", storage.ErrIndexNotFound, name)
		}
		return fmt.Errorf("failed to drop index %s: %w", name, err)
	}
	return nil
}

// ListIndexes reports the indexes of the articles table. GIN indexes over a tsvector count as text indexes.
func (s *ArticleStore) ListIndexes(ctx context.Context) ([]storage.IndexInfo, error) {
	rows, err := s.db.Query(ctx, `
		SELECT indexname, indexdef
		FROM pg_indexes
		WHERE schemaname = current_schema() AND tablename = $1
		ORDER BY indexname
	`, articlesTable)
	if err != nil {
		return nil, fmt.Errorf("failed to list indexes: %w", err)
	}
	defer rows.Close()

	infos := make([]storage.IndexInfo, 0)
	for rows.Next() {
		var name, def string
		if err := rows.Scan(&name, &def); err != nil {
			return nil, fmt.Errorf("failed to scan index: %w", err)
		}
		def = strings.ToLower(def)
		infos = append(infos, storage.IndexInfo{
			Name: name,
			Text: strings.Contains(def, "using gin") && strings.Contains(def, "to_tsvector"),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating indexes: %w", err)
	}
	return infos, nil
}

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
