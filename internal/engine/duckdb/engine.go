package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/marcboeker/go-duckdb/v2" // register driver

	"github.com/sqlforge/sqlforge/internal/engine"
)

type Config struct {
	// Path is the database file. Empty opens an in-memory database.
	Path string
}

// Engine implements engine.Engine for an embedded DuckDB database.
type Engine struct {
	db      *sql.DB
	catalog string
}

// Open opens the database file and resolves the current catalog name,
// which DuckDB derives from the file stem ("memory" when in-memory).
func Open(ctx context.Context, cfg Config) (*Engine, error) {
	db, err := sql.Open("duckdb", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, mapError(err)
	}

	catalog, err := engine.ScanStrings(ctx, db, "SELECT current_database()")
	if err != nil {
		_ = db.Close()
		return nil, mapError(err)
	}

	e := &Engine{db: db}
	if len(catalog) > 0 {
		e.catalog = catalog[0]
	}
	return e, nil
}

// NewWithDB wires an existing pool, used by tests.
func NewWithDB(db *sql.DB, catalog string) *Engine {
	return &Engine{db: db, catalog: catalog}
}

func (e *Engine) Name() string { return "duckdb" }

func (e *Engine) Ping(ctx context.Context) error {
	return mapError(e.db.PingContext(ctx))
}

func (e *Engine) Close() error {
	return e.db.Close()
}

func (e *Engine) Query(ctx context.Context, sqlText string) (engine.Result, error) {
	result, err := engine.RunQuery(ctx, e.db, sqlText)
	if err != nil {
		return engine.Result{}, mapError(err)
	}
	return result, nil
}

// Explain returns the physical plan. DuckDB emits one row per plan stage
// with the rendered tree in the explain_value column, so the trees are
// split into individual lines.
func (e *Engine) Explain(ctx context.Context, sqlText string) ([]string, error) {
	result, err := engine.RunQuery(ctx, e.db, "EXPLAIN "+sqlText)
	if err != nil {
		return nil, mapError(err)
	}

	var lines []string
	for _, row := range result.Rows {
		value, ok := row["explain_value"].(string)
		if !ok {
			continue
		}
		for _, line := range strings.Split(value, "\n") {
			if strings.TrimSpace(line) == "" {
				continue
			}
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		lines = engine.FormatPlan(result)
	}
	return lines, nil
}

func (e *Engine) ListDatabases(ctx context.Context) ([]string, error) {
	const q = `
		SELECT database_name
		FROM duckdb_databases()
		WHERE NOT internal
		ORDER BY database_name`

	databases, err := engine.ScanStrings(ctx, e.db, q)
	if err != nil {
		return nil, mapError(err)
	}
	return databases, nil
}

func (e *Engine) ListTables(ctx context.Context, database string) ([]string, error) {
	if database == "" {
		database = e.catalog
	}

	const q = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_catalog = ?
		  AND table_type = 'BASE TABLE'
		ORDER BY table_name`

	tables, err := engine.ScanStrings(ctx, e.db, q, database)
	if err != nil {
		return nil, mapError(err)
	}
	return tables, nil
}

func (e *Engine) ListColumns(ctx context.Context, database, table string) ([]string, error) {
	if database == "" {
		database = e.catalog
	}
	if table == "" {
		return nil, engine.NewError(engine.ErrKindInvalidInput, "table is required")
	}

	const q = `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_catalog = ?
		  AND table_name = ?
		ORDER BY ordinal_position`

	columns, err := engine.ScanStrings(ctx, e.db, q, database, table)
	if err != nil {
		return nil, mapError(err)
	}
	return columns, nil
}
