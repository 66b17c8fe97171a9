package api

import (
	"net/http"
	"strings"
)

func handleListDatabases(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Schema == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "SCHEMA_NOT_CONFIGURED", "schema dependency is not configured", false, nil)
		return
	}

	databases, err := deps.Schema.ListDatabases(r.Context())
	if err != nil {
		writeEngineError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"databases": databases})
}

func handleListTables(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Schema == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "SCHEMA_NOT_CONFIGURED", "schema dependency is not configured", false, nil)
		return
	}

	database := strings.TrimSpace(r.PathValue("database"))
	if database == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "DATABASE_REQUIRED", "database is required", false, nil)
		return
	}

	tables, err := deps.Schema.ListTables(r.Context(), database)
	if err != nil {
		writeEngineError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"database": database, "tables": tables})
}

func handleListColumns(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Schema == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "SCHEMA_NOT_CONFIGURED", "schema dependency is not configured", false, nil)
		return
	}

	table := strings.TrimSpace(r.PathValue("table"))
	if table == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "TABLE_REQUIRED", "table is required", false, nil)
		return
	}
	database := strings.TrimSpace(r.URL.Query().Get("database"))

	columns, err := deps.Schema.ListColumns(r.Context(), database, table)
	if err != nil {
		writeEngineError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"table": table, "database": database, "columns": columns})
}
