package api

import (
	"errors"
	"net/http"
	"testing"

	"github.com/sqlforge/sqlforge/internal/export"
	"github.com/sqlforge/sqlforge/internal/history"
	"github.com/sqlforge/sqlforge/internal/pipeline"
)

func TestHistoryListsEntries(t *testing.T) {
	fp := &fakePipeline{
		hasHistory: true,
		entries: []history.Entry{
			{ID: 2, SQL: "SELECT 2;", Outcome: history.OutcomeOK, RowCount: 1},
			{ID: 1, SQL: "SELECT 1;", Outcome: history.OutcomeError, Detail: "table gone"},
		},
	}
	handler := NewHandler(testConfig(), Dependencies{Pipeline: fp})

	rr, payload := doJSON(t, handler, http.MethodGet, "/v1/history?limit=10", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	entries, ok := payload["entries"].([]any)
	if !ok || len(entries) != 2 {
		t.Fatalf("payload = %v", payload)
	}
}

func TestHistoryNotConfigured(t *testing.T) {
	handler := NewHandler(testConfig(), Dependencies{Pipeline: &fakePipeline{hasHistory: false}})

	rr, payload := doJSON(t, handler, http.MethodGet, "/v1/history", "")
	if rr.Code != http.StatusNotImplemented {
		t.Fatalf("status = %d", rr.Code)
	}
	if payload["error_code"] != "HISTORY_NOT_CONFIGURED" {
		t.Fatalf("payload = %v", payload)
	}
}

func TestHistoryRejectsBadLimit(t *testing.T) {
	handler := NewHandler(testConfig(), Dependencies{Pipeline: &fakePipeline{hasHistory: true}})

	rr, payload := doJSON(t, handler, http.MethodGet, "/v1/history?limit=abc", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
	if payload["error_code"] != "INVALID_LIMIT" {
		t.Fatalf("payload = %v", payload)
	}
}

func TestExportRunsQueryAndUploads(t *testing.T) {
	fp := &fakePipeline{
		executeResult: pipeline.ExecuteResult{
			Rows:     []map[string]any{{"id": float64(1)}},
			RowCount: 1,
		},
	}
	exporter := &fakeExporter{
		info: export.Info{ExportID: "abc", ObjectPath: "mysql/date=2026-08-29/export-abc.parquet", RowCount: 1},
	}
	handler := NewHandler(testConfig(), Dependencies{Pipeline: fp, Exporter: exporter})

	rr, payload := doJSON(t, handler, http.MethodPost, "/v1/export", `{"sql_query":"SELECT id FROM users;"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rr.Code, rr.Body.String())
	}
	if payload["export_id"] != "abc" {
		t.Fatalf("payload = %v", payload)
	}
	if len(exporter.lastRows) != 1 {
		t.Fatalf("lastRows = %v", exporter.lastRows)
	}
}

func TestExportEmptyResult(t *testing.T) {
	fp := &fakePipeline{executeResult: pipeline.ExecuteResult{RowCount: 0}}
	handler := NewHandler(testConfig(), Dependencies{Pipeline: fp, Exporter: &fakeExporter{}})

	rr, payload := doJSON(t, handler, http.MethodPost, "/v1/export", `{"sql_query":"SELECT 1 WHERE false;"}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", rr.Code)
	}
	if payload["error_code"] != "EMPTY_RESULT" {
		t.Fatalf("payload = %v", payload)
	}
}

func TestExportUploadFailure(t *testing.T) {
	fp := &fakePipeline{executeResult: pipeline.ExecuteResult{Rows: []map[string]any{{"n": float64(1)}}, RowCount: 1}}
	handler := NewHandler(testConfig(), Dependencies{
		Pipeline: fp,
		Exporter: &fakeExporter{err: errors.New("bucket gone")},
	})

	rr, payload := doJSON(t, handler, http.MethodPost, "/v1/export", `{"sql_query":"SELECT 1;"}`)
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", rr.Code)
	}
	if payload["error_code"] != "EXPORT_FAILED" {
		t.Fatalf("payload = %v", payload)
	}
}

func TestExportNotConfigured(t *testing.T) {
	handler := NewHandler(testConfig(), Dependencies{Pipeline: &fakePipeline{}})

	rr, payload := doJSON(t, handler, http.MethodPost, "/v1/export", `{"sql_query":"SELECT 1;"}`)
	if rr.Code != http.StatusNotImplemented {
		t.Fatalf("status = %d", rr.Code)
	}
	if payload["error_code"] != "EXPORT_NOT_CONFIGURED" {
		t.Fatalf("payload = %v", payload)
	}
}

func TestAdminMiddlewareGuardsHistory(t *testing.T) {
	denied := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		})
	}
	handler := NewHandler(testConfig(), Dependencies{
		Pipeline:        &fakePipeline{hasHistory: true},
		AdminMiddleware: denied,
	})

	rr, _ := doJSON(t, handler, http.MethodGet, "/v1/history", "")
	if rr.Code != http.StatusForbidden {
		t.Fatalf("status = %d", rr.Code)
	}
}
