// Package postgres persists query history in a Postgres database,
// separate from the engine the service queries.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register driver

	"github.com/sqlforge/sqlforge/internal/history"
)

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
}

// Open dials the history database and verifies connectivity.
func Open(ctx context.Context, cfg DBConfig) (*sql.DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("history dsn is required")
	}

	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping history db: %w", err)
	}

	return db, nil
}

const (
	defaultPageLimit = 50
	maxPageLimit     = 500
)

// Store implements history.Store on a Postgres table.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) HealthCheck(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping history db: %w", err)
	}
	return nil
}

func (s *Store) Record(ctx context.Context, entry history.Entry) error {
	query := `
INSERT INTO query_history (nl_query, sql_text, outcome, detail, row_count, duration_ms)
VALUES ($1, $2, $3, $4, $5, $6)`

	durationMS := entry.DurationMS
	if durationMS == 0 && entry.Elapsed > 0 {
		durationMS = entry.Elapsed.Milliseconds()
	}

	if _, err := s.db.ExecContext(ctx, query,
		entry.NLQuery, entry.SQL, entry.Outcome, entry.Detail, entry.RowCount, durationMS); err != nil {
		return fmt.Errorf("record history entry: %w", err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, page history.Page) ([]history.Entry, error) {
	limit := page.Limit
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	offset := page.Offset
	if offset < 0 {
		offset = 0
	}

	query := `
SELECT id, nl_query, sql_text, outcome, detail, row_count, duration_ms, created_at
FROM query_history
ORDER BY created_at DESC, id DESC
LIMIT $1 OFFSET $2`

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := make([]history.Entry, 0)
	for rows.Next() {
		var entry history.Entry
		if err := rows.Scan(
			&entry.ID,
			&entry.NLQuery,
			&entry.SQL,
			&entry.Outcome,
			&entry.Detail,
			&entry.RowCount,
			&entry.DurationMS,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history rows: %w", err)
	}
	return entries, nil
}
