package schema

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/sqlforge/sqlforge/internal/engine"
)

// Table is one table with its column names in ordinal order.
type Table struct {
	Database string   `json:"database"`
	Name     string   `json:"name"`
	Columns  []string `json:"columns"`
}

// Snapshot is the portion of the connected engine's schema that fits the
// configured caps. Tables preserve introspection order.
type Snapshot struct {
	Tables    []Table `json:"tables"`
	Truncated bool    `json:"truncated"`
}

// Introspector walks an engine's catalog and renders it as prompt text.
// Caps bound the snapshot so prompts stay within model context limits.
type Introspector struct {
	engine             engine.Engine
	logger             *slog.Logger
	maxTables          int
	maxColumnsPerTable int
}

func NewIntrospector(eng engine.Engine, logger *slog.Logger, maxTables, maxColumnsPerTable int) *Introspector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Introspector{
		engine:             eng,
		logger:             logger,
		maxTables:          maxTables,
		maxColumnsPerTable: maxColumnsPerTable,
	}
}

// Snapshot collects tables and columns, restricted to one database when
// database is non-empty. Introspection is best effort end to end:
// failures at any level are logged and skipped, and an empty or fully
// broken catalog yields an empty snapshot rather than an error, so
// callers can still attempt generation with whatever schema text exists.
func (in *Introspector) Snapshot(ctx context.Context, database string) Snapshot {
	var snap Snapshot
	for _, db := range in.resolveDatabases(ctx, database) {
		tables, err := in.engine.ListTables(ctx, db)
		if err != nil {
			in.logger.Warn("schema introspection skipped database",
				slog.String("database", db), slog.String("error", err.Error()))
			continue
		}
		sort.Strings(tables)

		// The table cap applies per database so later databases keep
		// their share of the prompt.
		if in.maxTables > 0 && len(tables) > in.maxTables {
			tables = tables[:in.maxTables]
			snap.Truncated = true
		}

		for _, table := range tables {
			columns, err := in.engine.ListColumns(ctx, db, table)
			if err != nil {
				in.logger.Warn("schema introspection skipped table",
					slog.String("database", db), slog.String("table", table),
					slog.String("error", err.Error()))
				continue
			}
			if in.maxColumnsPerTable > 0 && len(columns) > in.maxColumnsPerTable {
				columns = columns[:in.maxColumnsPerTable]
				snap.Truncated = true
			}

			snap.Tables = append(snap.Tables, Table{Database: db, Name: table, Columns: columns})
		}
	}
	return snap
}

func (in *Introspector) resolveDatabases(ctx context.Context, database string) []string {
	if database != "" {
		return []string{database}
	}
	databases, err := in.engine.ListDatabases(ctx)
	if err != nil {
		in.logger.Warn("schema introspection could not list databases",
			slog.String("error", err.Error()))
		return nil
	}
	sort.Strings(databases)
	return databases
}

// Text renders the snapshot one table per line:
//
//	db.table: col1, col2, col3
func (s Snapshot) Text() string {
	var b strings.Builder
	for _, table := range s.Tables {
		fmt.Fprintf(&b, "%s.%s: %s\n", table.Database, table.Name, strings.Join(table.Columns, ", "))
	}
	return b.String()
}
