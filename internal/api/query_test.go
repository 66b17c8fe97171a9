package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/sqlforge/sqlforge/internal/engine"
	"github.com/sqlforge/sqlforge/internal/llm"
	"github.com/sqlforge/sqlforge/internal/pipeline"
)

func TestGenerate(t *testing.T) {
	fp := &fakePipeline{
		hasCompleter:   true,
		generateResult: pipeline.GenerateResult{SQL: "SELECT email FROM users;", Provider: "fake", Model: "m"},
	}
	handler := NewHandler(testConfig(), Dependencies{Pipeline: fp})

	rr, payload := doJSON(t, handler, http.MethodPost, "/v1/generate", `{"nl_query":"list emails"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rr.Code, rr.Body.String())
	}
	if payload["sql_query"] != "SELECT email FROM users;" {
		t.Fatalf("payload = %v", payload)
	}
	if fp.lastNLQuery != "list emails" {
		t.Fatalf("lastNLQuery = %q", fp.lastNLQuery)
	}
}

func TestGenerateRequiresQuery(t *testing.T) {
	handler := NewHandler(testConfig(), Dependencies{Pipeline: &fakePipeline{hasCompleter: true}})

	rr, payload := doJSON(t, handler, http.MethodPost, "/v1/generate", `{"nl_query":"  "}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
	if payload["error_code"] != "QUERY_REQUIRED" {
		t.Fatalf("payload = %v", payload)
	}
}

func TestGenerateWithoutCompleter(t *testing.T) {
	handler := NewHandler(testConfig(), Dependencies{Pipeline: &fakePipeline{hasCompleter: false}})

	rr, payload := doJSON(t, handler, http.MethodPost, "/v1/generate", `{"nl_query":"list emails"}`)
	if rr.Code != http.StatusNotImplemented {
		t.Fatalf("status = %d", rr.Code)
	}
	if payload["error_code"] != "GENERATE_NOT_CONFIGURED" {
		t.Fatalf("payload = %v", payload)
	}
}

func TestGenerateMapsUpstreamFailure(t *testing.T) {
	fp := &fakePipeline{
		hasCompleter: true,
		generateErr:  fmt.Errorf("generate sql: %w", &llm.Error{StatusCode: 500, Message: "chat completion failed status=500"}),
	}
	handler := NewHandler(testConfig(), Dependencies{Pipeline: fp})

	rr, payload := doJSON(t, handler, http.MethodPost, "/v1/generate", `{"nl_query":"list emails"}`)
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", rr.Code)
	}
	if payload["error_code"] != "UPSTREAM_FAILED" || payload["retryable"] != true {
		t.Fatalf("payload = %v", payload)
	}
}

func TestGenerateRejectsUnknownFields(t *testing.T) {
	handler := NewHandler(testConfig(), Dependencies{Pipeline: &fakePipeline{hasCompleter: true}})

	rr, payload := doJSON(t, handler, http.MethodPost, "/v1/generate", `{"nl_query":"x","nope":1}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
	if payload["error_code"] != "INVALID_JSON" {
		t.Fatalf("payload = %v", payload)
	}
}

func TestValidate(t *testing.T) {
	handler := NewHandler(testConfig(), Dependencies{Pipeline: &fakePipeline{}})

	rr, payload := doJSON(t, handler, http.MethodPost, "/v1/validate", `{"sql_query":"SELEKT 1;"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if payload["valid"] != false || payload["error"] != "syntax error" {
		t.Fatalf("payload = %v", payload)
	}
}

func TestExecute(t *testing.T) {
	fp := &fakePipeline{
		executeResult: pipeline.ExecuteResult{
			Columns:    []string{"email"},
			Rows:       []map[string]any{{"email": "a@example.com"}},
			RowCount:   1,
			Suggestion: "no indexes needed",
		},
	}
	handler := NewHandler(testConfig(), Dependencies{Pipeline: fp})

	rr, payload := doJSON(t, handler, http.MethodPost, "/v1/execute", `{"sql_query":"SELECT email FROM users;"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if payload["row_count"] != float64(1) {
		t.Fatalf("payload = %v", payload)
	}
	if payload["optimization_suggestion"] != "no indexes needed" {
		t.Fatalf("payload = %v", payload)
	}
}

func TestExecuteMapsEngineErrors(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"invalid input", engine.NewError(engine.ErrKindInvalidInput, "invalid sql"), http.StatusBadRequest, "INVALID_INPUT"},
		{"not found", engine.NewError(engine.ErrKindNotFound, "unknown table"), http.StatusNotFound, "NOT_FOUND"},
		{"timeout", engine.NewError(engine.ErrKindTimeout, "statement timed out"), http.StatusGatewayTimeout, "TIMEOUT"},
		{"query failed", engine.NewError(engine.ErrKindQueryFailed, "bad query"), http.StatusBadRequest, "QUERY_FAILED"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := NewHandler(testConfig(), Dependencies{Pipeline: &fakePipeline{executeErr: tc.err}})

			rr, payload := doJSON(t, handler, http.MethodPost, "/v1/execute", `{"sql_query":"SELECT 1;"}`)
			if rr.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rr.Code, tc.wantStatus)
			}
			if payload["error_code"] != tc.wantCode {
				t.Fatalf("payload = %v", payload)
			}
		})
	}
}

func TestGenerateAndExecute(t *testing.T) {
	fp := &fakePipeline{
		hasCompleter:   true,
		generateResult: pipeline.GenerateResult{SQL: "SELECT email FROM users;"},
		executeResult:  pipeline.ExecuteResult{RowCount: 2},
	}
	handler := NewHandler(testConfig(), Dependencies{Pipeline: fp})

	rr, payload := doJSON(t, handler, http.MethodPost, "/v1/generate-and-execute", `{"nl_query":"list emails"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if payload["sql_query"] != "SELECT email FROM users;" {
		t.Fatalf("payload = %v", payload)
	}
	if payload["row_count"] != float64(2) {
		t.Fatalf("payload = %v", payload)
	}
}

func TestExplain(t *testing.T) {
	fp := &fakePipeline{hasCompleter: true, explainText: "It lists user emails."}
	handler := NewHandler(testConfig(), Dependencies{Pipeline: fp})

	rr, payload := doJSON(t, handler, http.MethodPost, "/v1/explain", `{"sql_query":"SELECT email FROM users;"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if payload["explanation"] != "It lists user emails." {
		t.Fatalf("payload = %v", payload)
	}
}

func TestOptimize(t *testing.T) {
	fp := &fakePipeline{
		optimizeResult: pipeline.OptimizeResult{
			Plan:       []string{"Seq Scan on users"},
			Suggestion: "CREATE INDEX idx_users_active ON users(active);",
		},
	}
	handler := NewHandler(testConfig(), Dependencies{Pipeline: fp})

	rr, payload := doJSON(t, handler, http.MethodPost, "/v1/optimize", `{"sql_query":"SELECT * FROM users;"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	plan, ok := payload["plan"].([]any)
	if !ok || len(plan) != 1 {
		t.Fatalf("payload = %v", payload)
	}
	if payload["optimization_suggestions"] != "CREATE INDEX idx_users_active ON users(active);" {
		t.Fatalf("payload = %v", payload)
	}
}

func TestSQLRequiredOnExecute(t *testing.T) {
	handler := NewHandler(testConfig(), Dependencies{Pipeline: &fakePipeline{}})

	rr, payload := doJSON(t, handler, http.MethodPost, "/v1/execute", `{"sql_query":""}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
	if payload["error_code"] != "SQL_REQUIRED" {
		t.Fatalf("payload = %v", payload)
	}
}
