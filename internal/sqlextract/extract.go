// Package sqlextract pulls a runnable SQL statement out of raw model
// output, which may wrap the query in markdown fences or surround it
// with prose.
package sqlextract

import (
	"regexp"
	"strings"
)

var (
	fencedSQL   = regexp.MustCompile("(?s)```sql\n(.*?)\n```")
	fencedPlain = regexp.MustCompile("(?s)```\n(.*?)\n```")
	selectStmt  = regexp.MustCompile(`(?is)SELECT .*?;`)
)

// Clean strips markdown code fences and extracts the first complete
// SELECT statement. When no terminated SELECT is found the de-fenced
// text is returned trimmed, so downstream validation decides whether it
// is usable. Clean is idempotent.
func Clean(raw string) string {
	cleaned := fencedSQL.ReplaceAllString(raw, "$1")
	cleaned = fencedPlain.ReplaceAllString(cleaned, "$1")

	if match := selectStmt.FindString(cleaned); match != "" {
		return match
	}
	return strings.TrimSpace(cleaned)
}
