// Package sqlcheck gates statements on a syntax parse before they reach
// an engine.
package sqlcheck

import (
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// Validate parses the statement and reports whether it is syntactically
// well formed. The reason is empty for valid statements. The grammar is
// Postgres flavored, which covers the common SELECT surface of all
// supported engines.
func Validate(sqlText string) (bool, string) {
	trimmed := strings.TrimSpace(sqlText)
	if trimmed == "" {
		return false, "empty statement"
	}

	result, err := pg_query.Parse(trimmed)
	if err != nil {
		return false, err.Error()
	}
	if result == nil || len(result.Stmts) == 0 {
		return false, "no parseable statements"
	}
	return true, ""
}
