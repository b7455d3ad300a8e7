package pgvector

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/didi/gendry/builder"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	pgv "github.com/pgvector/pgvector-go"

	"github.com/mindcask/docrag/internal/model"
	apperrors "github.com/mindcask/docrag/internal/pkg/errors"
)

var tableNameRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Storage keeps points in one Postgres table with a pgvector embedding
// column, ordered by cosine distance on search. The table is created on
// first use; an existing table must carry the configured dimension.
type Storage struct {
	db        *sql.DB
	table     string
	dimension int

	mu    sync.Mutex
	ready bool
}

type Config struct {
	DSN       string
	Table     string
	Dimension int
}

func NewStorage(cfg Config) (*Storage, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("%w: postgres dsn is not configured", apperrors.ErrStoreUnavailable)
	}
	if !tableNameRe.MatchString(cfg.Table) {
		return nil, fmt.Errorf("%w: invalid table name %q", apperrors.ErrStoreUnavailable, cfg.Table)
	}
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("%w: invalid dimension %d", apperrors.ErrStoreUnavailable, cfg.Dimension)
	}
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("%w: open postgres: %w", apperrors.ErrStoreUnavailable, err)
	}
	return &Storage{db: db, table: cfg.Table, dimension: cfg.Dimension}, nil
}

// ensureReady creates the extension and table once. Reaching the database is
// deferred here so a merely unreachable store does not fail startup.
func (s *Storage) ensureReady(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return fmt.Errorf("%w: create vector extension: %w", apperrors.ErrStoreUnavailable, err)
	}
	create := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY,
			source TEXT NOT NULL,
			content TEXT NOT NULL,
			embedding vector(%d) NOT NULL
		)
	`, s.table, s.dimension)
	if _, err := s.db.ExecContext(ctx, create); err != nil {
		// A concurrent first use may have created it in between.
		if !strings.Contains(err.Error(), "already exists") {
			return fmt.Errorf("%w: create table %s: %w", apperrors.ErrStoreUnavailable, s.table, err)
		}
	}

	// atttypmod of a vector column holds its dimension.
	const dimQuery = `SELECT atttypmod FROM pg_attribute WHERE attrelid = $1::regclass AND attname = 'embedding'`
	var dim int
	if err := s.db.QueryRowContext(ctx, dimQuery, s.table).Scan(&dim); err != nil {
		return fmt.Errorf("%w: read dimension of %s: %w", apperrors.ErrStoreUnavailable, s.table, err)
	}
	if dim != s.dimension {
		return fmt.Errorf("%w: table %s has dimension %d, configured %d", apperrors.ErrStoreUnavailable, s.table, dim, s.dimension)
	}
	s.ready = true
	return nil
}

func (s *Storage) Upsert(ctx context.Context, points []model.Point) error {
	for _, p := range points {
		if len(p.Vector) != s.dimension {
			return fmt.Errorf("%w: point %s has dimension %d, want %d", apperrors.ErrStoreUnavailable, p.ID, len(p.Vector), s.dimension)
		}
	}
	if err := s.ensureReady(ctx); err != nil {
		return err
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (id, source, content, embedding)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			source = EXCLUDED.source,
			content = EXCLUDED.content,
			embedding = EXCLUDED.embedding
	`, s.table)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("upsert %d points: %w", len(points), err)
	}
	for _, p := range points {
		if _, err := tx.ExecContext(ctx, query, p.ID, p.Payload.Source, p.Payload.Text, pgv.NewVector(p.Vector)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("upsert point %s: %w", p.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("upsert %d points: %w", len(points), err)
	}
	return nil
}

func (s *Storage) Search(ctx context.Context, vector []float32, topK int) (model.SearchResult, error) {
	if len(vector) != s.dimension {
		return model.SearchResult{}, fmt.Errorf("%w: query dimension %d, want %d", apperrors.ErrStoreUnavailable, len(vector), s.dimension)
	}
	if topK <= 0 {
		topK = 5
	}
	if err := s.ensureReady(ctx); err != nil {
		return model.SearchResult{}, err
	}
	query := fmt.Sprintf(`
		SELECT source, content
		FROM %s
		ORDER BY embedding <=> $1
		LIMIT $2
	`, s.table)
	rows, err := s.db.QueryContext(ctx, query, pgv.NewVector(vector), topK)
	if err != nil {
		return model.SearchResult{}, fmt.Errorf("search top %d: %w", topK, err)
	}
	defer rows.Close()

	result := model.SearchResult{Contexts: []string{}, Sources: []string{}}
	seen := map[string]struct{}{}
	for rows.Next() {
		var source, content string
		if err := rows.Scan(&source, &content); err != nil {
			return model.SearchResult{}, err
		}
		if content == "" {
			continue
		}
		result.Contexts = append(result.Contexts, content)
		if _, ok := seen[source]; !ok {
			seen[source] = struct{}{}
			result.Sources = append(result.Sources, source)
		}
	}
	return result, rows.Err()
}

func (s *Storage) Count(ctx context.Context, sourceID string) (int, error) {
	if err := s.ensureReady(ctx); err != nil {
		return 0, err
	}
	where := map[string]interface{}{
		"source": sourceID,
	}
	sqlStr, args, err := builder.BuildSelect(s.table, where, []string{"count(1)"})
	if err != nil {
		return 0, err
	}
	// gendry emits MySQL-style placeholders; lib/pq wants $N.
	sqlStr = sqlx.Rebind(sqlx.DOLLAR, sqlStr)
	var count int
	if err := s.db.QueryRowContext(ctx, sqlStr, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count source %s: %w", sourceID, err)
	}
	return count, nil
}
