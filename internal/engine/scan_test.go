package engine

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

func TestRunQueryDrainsAllRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT id, name FROM users").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow(int64(1), []byte("ada")).
			AddRow(int64(2), []byte("linus")))

	result, err := RunQuery(context.Background(), db, "SELECT id, name FROM users")
	if err != nil {
		t.Fatalf("RunQuery() error = %v", err)
	}
	if result.RowCount() != 2 {
		t.Fatalf("RowCount() = %d", result.RowCount())
	}
	if len(result.Columns) != 2 || result.Columns[0] != "id" {
		t.Fatalf("Columns = %v", result.Columns)
	}
	if result.Rows[0]["name"] != "ada" {
		t.Fatalf("byte value not normalized to string: %#v", result.Rows[0]["name"])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRunQueryRejectsEmptySQL(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	_, err = RunQuery(context.Background(), db, "   ")
	if !IsInvalidInput(err) {
		t.Fatalf("err = %v, want invalid input", err)
	}
}

func TestScanStrings(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT table_name").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).
			AddRow("orders").
			AddRow("users"))

	values, err := ScanStrings(context.Background(), db, "SELECT table_name FROM t")
	if err != nil {
		t.Fatalf("ScanStrings() error = %v", err)
	}
	if len(values) != 2 || values[0] != "orders" {
		t.Fatalf("values = %v", values)
	}
}

func TestFormatPlanSingleColumn(t *testing.T) {
	result := Result{
		Columns: []string{"QUERY PLAN"},
		Rows: []map[string]any{
			{"QUERY PLAN": "Seq Scan on users"},
			{"QUERY PLAN": "  Filter: (active = true)"},
		},
	}
	lines := FormatPlan(result)
	if len(lines) != 2 || lines[0] != "Seq Scan on users" {
		t.Fatalf("lines = %v", lines)
	}
}

func TestFormatPlanWideRow(t *testing.T) {
	result := Result{
		Columns: []string{"table", "type", "rows"},
		Rows: []map[string]any{
			{"table": "users", "type": "ALL", "rows": int64(120)},
		},
	}
	lines := FormatPlan(result)
	if len(lines) != 1 {
		t.Fatalf("lines = %v", lines)
	}
	if lines[0] != "table=users\ttype=ALL\trows=120" {
		t.Fatalf("line = %q", lines[0])
	}
}

func TestErrorPredicates(t *testing.T) {
	wrapped := WrapError(ErrKindQueryFailed, "bad statement", context.DeadlineExceeded)
	if !IsQueryFailed(wrapped) {
		t.Fatal("expected query failed kind")
	}
	if IsNotFound(wrapped) {
		t.Fatal("unexpected not found kind")
	}
	if kindOf(context.Canceled) != ErrKindUnknown {
		t.Fatal("plain errors should map to unknown")
	}
}
