package postgres

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/sqlforge/sqlforge/internal/history"
)

func newSQLMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func assertSQLMock(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sqlmock expectations: %v", err)
	}
}

func TestRecordInsertsEntry(t *testing.T) {
	db, mock := newSQLMock(t)
	store := NewStore(db)

	mock.ExpectExec(regexp.QuoteMeta(`
INSERT INTO query_history (nl_query, sql_text, outcome, detail, row_count, duration_ms)
VALUES ($1, $2, $3, $4, $5, $6)`)).
		WithArgs("list emails", "SELECT email FROM users;", "ok", "", 3, int64(12)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := store.Record(context.Background(), history.Entry{
		NLQuery:  "list emails",
		SQL:      "SELECT email FROM users;",
		Outcome:  history.OutcomeOK,
		RowCount: 3,
		Elapsed:  12 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	assertSQLMock(t, mock)
}

func TestListReturnsNewestFirst(t *testing.T) {
	db, mock := newSQLMock(t)
	store := NewStore(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`
SELECT id, nl_query, sql_text, outcome, detail, row_count, duration_ms, created_at
FROM query_history
ORDER BY created_at DESC, id DESC
LIMIT $1 OFFSET $2`)).
		WithArgs(2, 0).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "nl_query", "sql_text", "outcome", "detail", "row_count", "duration_ms", "created_at",
		}).
			AddRow(int64(2), "", "SELECT 2;", "ok", "", 1, int64(3), now).
			AddRow(int64(1), "list users", "SELECT 1;", "error", "table gone", 0, int64(0), now.Add(-time.Minute)))

	entries, err := store.List(context.Background(), history.Page{Limit: 2})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d", len(entries))
	}
	if entries[0].ID != 2 || entries[1].Outcome != history.OutcomeError {
		t.Fatalf("entries = %+v", entries)
	}
	assertSQLMock(t, mock)
}

func TestListClampsLimit(t *testing.T) {
	db, mock := newSQLMock(t)
	store := NewStore(db)

	mock.ExpectQuery("SELECT id, nl_query").
		WithArgs(maxPageLimit, 0).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "nl_query", "sql_text", "outcome", "detail", "row_count", "duration_ms", "created_at",
		}))

	if _, err := store.List(context.Background(), history.Page{Limit: 9999, Offset: -5}); err != nil {
		t.Fatalf("List() error = %v", err)
	}
	assertSQLMock(t, mock)
}
