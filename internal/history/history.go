// Package history records executed translations for later review.
package history

import (
	"context"
	"time"
)

// Outcome classifies how a recorded request ended.
const (
	OutcomeOK      = "ok"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
)

// Entry is one recorded translation or execution.
type Entry struct {
	ID         int64         `json:"id"`
	NLQuery    string        `json:"nl_query,omitempty"`
	SQL        string        `json:"sql"`
	Outcome    string        `json:"outcome"`
	Detail     string        `json:"detail,omitempty"`
	RowCount   int           `json:"row_count"`
	DurationMS int64         `json:"duration_ms"`
	CreatedAt  time.Time     `json:"created_at"`
	Elapsed    time.Duration `json:"-"`
}

// Page bounds a listing request.
type Page struct {
	Limit  int
	Offset int
}

// Store persists entries. Implementations must be safe for concurrent
// use.
type Store interface {
	Record(ctx context.Context, entry Entry) error
	List(ctx context.Context, page Page) ([]Entry, error)
}
