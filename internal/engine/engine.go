package engine

import (
	"context"
	"time"
)

// Result is a fully drained result set. Rows preserve result order; each row
// maps column name to a Go-native value.
type Result struct {
	Columns  []string
	Rows     []map[string]any
	Duration time.Duration
}

// RowCount returns the number of rows in the result.
func (r Result) RowCount() int { return len(r.Rows) }

// Engine is the contract every target database driver implements. Layers
// above this package talk only to this interface and never import the
// mysql, postgres, or duckdb packages directly.
//
// Each call acquires its own pooled connection and fully drains the result
// before returning, so callers can issue an EXPLAIN immediately after an
// execute without tripping protocols that reject interleaved statements.
type Engine interface {
	// Name identifies the driver ("mysql", "postgres", "duckdb").
	Name() string

	// Ping verifies the engine is reachable.
	Ping(ctx context.Context) error

	// Close releases the underlying connection pool.
	Close() error

	// Query executes a statement and returns all rows.
	Query(ctx context.Context, sql string) (Result, error)

	// Explain returns the engine's execution plan for the statement,
	// one formatted line per plan row.
	Explain(ctx context.Context, sql string) ([]string, error)

	// ListDatabases enumerates database (or schema) namespaces visible
	// to the connection.
	ListDatabases(ctx context.Context) ([]string, error)

	// ListTables enumerates base tables in the given database. An empty
	// database selects the configured default.
	ListTables(ctx context.Context, database string) ([]string, error)

	// ListColumns enumerates column names of a table in ordinal order.
	ListColumns(ctx context.Context, database, table string) ([]string, error)
}
