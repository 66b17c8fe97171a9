package engine

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// RunQuery executes a statement on the pool and drains every row into a
// Result. The *sql.Rows is always closed before returning, so the pooled
// connection is free for the caller's next statement.
func RunQuery(ctx context.Context, db *sql.DB, sqlText string) (Result, error) {
	if strings.TrimSpace(sqlText) == "" {
		return Result{}, NewError(ErrKindInvalidInput, "sql is required")
	}

	start := time.Now()
	rows, err := db.QueryContext(ctx, sqlText)
	if err != nil {
		return Result{}, err
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return Result{}, fmt.Errorf("query columns: %w", err)
	}

	resultRows := make([]map[string]any, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return Result{}, fmt.Errorf("scan row: %w", err)
		}
		row := make(map[string]any, len(columns))
		for i, column := range columns {
			row[column] = normalizeValue(values[i])
		}
		resultRows = append(resultRows, row)
	}
	if err := rows.Err(); err != nil {
		return Result{}, fmt.Errorf("iterate rows: %w", err)
	}

	return Result{
		Columns:  columns,
		Rows:     resultRows,
		Duration: time.Since(start),
	}, nil
}

// ScanStrings runs a query whose result is a single string column and
// returns all values in result order.
func ScanStrings(ctx context.Context, db *sql.DB, sqlText string, args ...any) ([]string, error) {
	rows, err := db.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	values := make([]string, 0)
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, fmt.Errorf("scan value: %w", err)
		}
		values = append(values, value)
	}
	return values, rows.Err()
}

// FormatPlan flattens an EXPLAIN result into one line per plan row. A plan
// row with a single column (Postgres, DuckDB) is emitted verbatim; wider
// rows (MySQL) are joined column by column in result-set order.
func FormatPlan(result Result) []string {
	lines := make([]string, 0, len(result.Rows))
	for _, row := range result.Rows {
		parts := make([]string, 0, len(result.Columns))
		for _, column := range result.Columns {
			value := row[column]
			if value == nil {
				continue
			}
			if len(result.Columns) == 1 {
				parts = append(parts, fmt.Sprintf("%v", value))
				continue
			}
			parts = append(parts, fmt.Sprintf("%s=%v", column, value))
		}
		lines = append(lines, strings.Join(parts, "\t"))
	}
	return lines
}

func normalizeValue(value any) any {
	switch typed := value.(type) {
	case []byte:
		return string(typed)
	default:
		return typed
	}
}
