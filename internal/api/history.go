package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/sqlforge/sqlforge/internal/history"
)

func handleHistory(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Pipeline == nil || !deps.Pipeline.HasHistory() {
		writeError(r.Context(), w, http.StatusNotImplemented, "HISTORY_NOT_CONFIGURED", "history is not configured", false, nil)
		return
	}

	page, ok := parsePage(w, r)
	if !ok {
		return
	}

	entries, err := deps.Pipeline.History(r.Context(), page)
	if err != nil {
		writeEngineError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// handleExport runs the statement and uploads the rows as Parquet.
func handleExport(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Pipeline == nil || deps.Exporter == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "EXPORT_NOT_CONFIGURED", "result export is not configured", false, nil)
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
	if result.RowCount == 0 {
		writeError(r.Context(), w, http.StatusUnprocessableEntity, "EMPTY_RESULT", "query returned no rows to export", false, nil)
		return
	}

	info, err := deps.Exporter.Export(r.Context(), result.Rows)
	if err != nil {
		writeError(r.Context(), w, http.StatusBadGateway, "EXPORT_FAILED", err.Error(), true, nil)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func parsePage(w http.ResponseWriter, r *http.Request) (history.Page, bool) {
	var page history.Page
	query := r.URL.Query()

	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeError(r.Context(), w, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a non-negative integer", false, nil)
			return history.Page{}, false
		}
		page.Limit = limit
	}
	if raw := strings.TrimSpace(query.Get("offset")); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			writeError(r.Context(), w, http.StatusBadRequest, "INVALID_OFFSET", "offset must be a non-negative integer", false, nil)
			return history.Page{}, false
		}
		page.Offset = offset
	}
	return page, true
}
