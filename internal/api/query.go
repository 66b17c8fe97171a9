package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/sqlforge/sqlforge/internal/pipeline"
)

type generateRequest struct {
	Query    string `json:"nl_query"`
	Database string `json:"database"`
}

type sqlRequest struct {
	SQL string `json:"sql_query"`
}

type validateResponse struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

type generateAndExecuteResponse struct {
	SQLQuery string `json:"sql_query"`
	pipeline.ExecuteResult
}

func handleGenerate(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Pipeline == nil || !deps.Pipeline.HasCompleter() {
		writeError(r.Context(), w, http.StatusNotImplemented, "GENERATE_NOT_CONFIGURED", "query generation is not configured", false, nil)
		return
	}

	req, ok := decodeGenerateRequest(deps, w, r)
	if !ok {
		return
	}

	result, err := deps.Pipeline.Generate(r.Context(), req.Query, req.Database)
	if err != nil {
		writeEngineError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func handleValidate(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Pipeline == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "PIPELINE_NOT_CONFIGURED", "pipeline is not configured", false, nil)
		return
	}

	req, ok := decodeSQLRequest(w, r)
	if !ok {
		return
	}

	valid, reason := deps.Pipeline.Validate(req.SQL)
	writeJSON(w, http.StatusOK, validateResponse{Valid: valid, Error: reason})
}

func handleExecute(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Pipeline == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "PIPELINE_NOT_CONFIGURED", "pipeline is not configured", false, nil)
		return
	}

	req, ok := decodeSQLRequest(w, r)
	if !ok {
		return
	}

	result, err := deps.Pipeline.Execute(r.Context(), req.SQL)
	if err != nil {
		writeEngineError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func handleGenerateAndExecute(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Pipeline == nil || !deps.Pipeline.HasCompleter() {
		writeError(r.Context(), w, http.StatusNotImplemented, "GENERATE_NOT_CONFIGURED", "query generation is not configured", false, nil)
		return
	}

	req, ok := decodeGenerateRequest(deps, w, r)
	if !ok {
		return
	}

	generated, executed, err := deps.Pipeline.GenerateAndExecute(r.Context(), req.Query, req.Database)
	if err != nil {
		writeEngineError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, generateAndExecuteResponse{SQLQuery: generated.SQL, ExecuteResult: executed})
}

func handleExplain(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Pipeline == nil || !deps.Pipeline.HasCompleter() {
		writeError(r.Context(), w, http.StatusNotImplemented, "EXPLAIN_NOT_CONFIGURED", "query explanation is not configured", false, nil)
		return
	}

	req, ok := decodeSQLRequest(w, r)
	if !ok {
		return
	}

	explanation, err := deps.Pipeline.Explain(r.Context(), req.SQL)
	if err != nil {
		writeEngineError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sql_query": req.SQL, "explanation": explanation})
}

func handleOptimize(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Pipeline == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "PIPELINE_NOT_CONFIGURED", "pipeline is not configured", false, nil)
		return
	}

	req, ok := decodeSQLRequest(w, r)
	if !ok {
		return
	}

	result, err := deps.Pipeline.Optimize(r.Context(), req.SQL)
	if err != nil {
		writeEngineError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func decodeGenerateRequest(_ Dependencies, w http.ResponseWriter, r *http.Request) (generateRequest, bool) {
	var req generateRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid request body", false, map[string]any{"details": err.Error()})
		return generateRequest{}, false
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "QUERY_REQUIRED", "nl_query is required", false, nil)
		return generateRequest{}, false
	}
	return req, true
}

func decodeSQLRequest(w http.ResponseWriter, r *http.Request) (sqlRequest, bool) {
	var req sqlRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid request body", false, map[string]any{"details": err.Error()})
		return sqlRequest{}, false
	}
	if strings.TrimSpace(req.SQL) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "SQL_REQUIRED", "sql_query is required", false, nil)
		return sqlRequest{}, false
	}
	return req, true
}
