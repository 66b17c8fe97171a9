// Package api exposes the HTTP surface of the service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sqlforge/sqlforge/internal/config"
	"github.com/sqlforge/sqlforge/internal/engine"
	"github.com/sqlforge/sqlforge/internal/export"
	"github.com/sqlforge/sqlforge/internal/history"
	"github.com/sqlforge/sqlforge/internal/llm"
	"github.com/sqlforge/sqlforge/internal/observability"
	"github.com/sqlforge/sqlforge/internal/pipeline"
)

type ReadinessCheck func(ctx context.Context) error

// SchemaBrowser is the catalog surface the listing endpoints need.
type SchemaBrowser interface {
	ListDatabases(ctx context.Context) ([]string, error)
	ListTables(ctx context.Context, database string) ([]string, error)
	ListColumns(ctx context.Context, database, table string) ([]string, error)
}

// Translator is the pipeline surface the query endpoints need.
type Translator interface {
	Generate(ctx context.Context, nlQuery, database string) (pipeline.GenerateResult, error)
	Validate(sqlText string) (bool, string)
	Execute(ctx context.Context, sqlText string) (pipeline.ExecuteResult, error)
	GenerateAndExecute(ctx context.Context, nlQuery, database string) (pipeline.GenerateResult, pipeline.ExecuteResult, error)
	Explain(ctx context.Context, sqlText string) (string, error)
	Optimize(ctx context.Context, sqlText string) (pipeline.OptimizeResult, error)
	History(ctx context.Context, page history.Page) ([]history.Entry, error)
	HasCompleter() bool
	HasHistory() bool
}

// ResultExporter uploads executed result rows to the object store.
type ResultExporter interface {
	Export(ctx context.Context, rows []map[string]any) (export.Info, error)
}

type Dependencies struct {
	Logger            *slog.Logger
	Readiness         ReadinessCheck
	AuthMiddleware    func(http.Handler) http.Handler
	AdminMiddleware   func(http.Handler) http.Handler
	DependencyTimeout time.Duration
	Schema            SchemaBrowser
	Pipeline          Translator
	ModelInfo         *llm.Info
	Exporter          ResultExporter
	UI                http.Handler
}

func NewHandler(cfg config.Config, deps Dependencies) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "service": cfg.Service.Name})
	})

	mux.HandleFunc("GET /v1/ready", func(w http.ResponseWriter, r *http.Request) {
		if deps.Readiness == nil {
			writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
			return
		}
		timeout := deps.DependencyTimeout
		if timeout <= 0 {
			timeout = 2 * time.Second
		}
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		if err := deps.Readiness(ctx); err != nil {
			writeError(r.Context(), w, http.StatusServiceUnavailable, "NOT_READY", err.Error(), true, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
	})

	mux.Handle("GET /v1/metrics", promhttp.Handler())

	mux.HandleFunc("GET /v1/llm/info", func(w http.ResponseWriter, r *http.Request) {
		if deps.ModelInfo == nil {
			writeError(r.Context(), w, http.StatusNotImplemented, "LLM_NOT_CONFIGURED", "no completion model is configured", false, nil)
			return
		}
		writeJSON(w, http.StatusOK, deps.ModelInfo)
	})

	protected := http.NewServeMux()
	protected.HandleFunc("GET /v1/databases", func(w http.ResponseWriter, r *http.Request) {
		handleListDatabases(deps, w, r)
	})
	protected.HandleFunc("GET /v1/databases/{database}/tables", func(w http.ResponseWriter, r *http.Request) {
		handleListTables(deps, w, r)
	})
	protected.HandleFunc("GET /v1/tables/{table}/columns", func(w http.ResponseWriter, r *http.Request) {
		handleListColumns(deps, w, r)
	})
	protected.HandleFunc("POST /v1/generate", func(w http.ResponseWriter, r *http.Request) {
		handleGenerate(deps, w, r)
	})
	protected.HandleFunc("POST /v1/validate", func(w http.ResponseWriter, r *http.Request) {
		handleValidate(deps, w, r)
	})
	protected.HandleFunc("POST /v1/execute", func(w http.ResponseWriter, r *http.Request) {
		handleExecute(deps, w, r)
	})
	protected.HandleFunc("POST /v1/generate-and-execute", func(w http.ResponseWriter, r *http.Request) {
		handleGenerateAndExecute(deps, w, r)
	})
	protected.HandleFunc("POST /v1/explain", func(w http.ResponseWriter, r *http.Request) {
		handleExplain(deps, w, r)
	})
	protected.HandleFunc("POST /v1/optimize", func(w http.ResponseWriter, r *http.Request) {
		handleOptimize(deps, w, r)
	})

	admin := http.NewServeMux()
	admin.HandleFunc("GET /v1/history", func(w http.ResponseWriter, r *http.Request) {
		handleHistory(deps, w, r)
	})
	admin.HandleFunc("POST /v1/export", func(w http.ResponseWriter, r *http.Request) {
		handleExport(deps, w, r)
	})

	var adminHandler http.Handler = admin
	if deps.AdminMiddleware != nil {
		adminHandler = deps.AdminMiddleware(adminHandler)
	}
	protected.Handle("GET /v1/history", adminHandler)
	protected.Handle("POST /v1/export", adminHandler)

	var protectedHandler http.Handler = protected
	if cfg.Auth.Required {
		if deps.AuthMiddleware == nil {
			if deps.Logger != nil {
				deps.Logger.Error("auth required but auth middleware missing")
			}
			protectedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeError(r.Context(), w, http.StatusInternalServerError, "AUTH_MIDDLEWARE_MISSING", "auth middleware is required by configuration", false, nil)
			})
		} else {
			protectedHandler = deps.AuthMiddleware(protectedHandler)
		}
	}
	mux.Handle("GET /v1/databases", protectedHandler)
	mux.Handle("GET /v1/databases/{database}/tables", protectedHandler)
	mux.Handle("GET /v1/tables/{table}/columns", protectedHandler)
	mux.Handle("POST /v1/generate", protectedHandler)
	mux.Handle("POST /v1/validate", protectedHandler)
	mux.Handle("POST /v1/execute", protectedHandler)
	mux.Handle("POST /v1/generate-and-execute", protectedHandler)
	mux.Handle("POST /v1/explain", protectedHandler)
	mux.Handle("POST /v1/optimize", protectedHandler)
	mux.Handle("GET /v1/history", protectedHandler)
	mux.Handle("POST /v1/export", protectedHandler)
	if deps.UI != nil {
		mux.Handle("GET /{path...}", deps.UI)
	}

	middlewares := []func(http.Handler) http.Handler{
		observability.TraceMiddleware,
		observability.MetricsMiddleware,
	}
	if deps.Logger != nil {
		middlewares = append(middlewares, observability.LoggingMiddleware(deps.Logger))
	}
	return chain(mux, middlewares...)
}

func CheckEngine(eng engine.Engine) ReadinessCheck {
	return func(ctx context.Context) error {
		if eng == nil {
			return errors.New("engine is not configured")
		}
		return eng.Ping(ctx)
	}
}

func CheckHistoryDSN(cfg config.Config) ReadinessCheck {
	return func(_ context.Context) error {
		if cfg.History.Enabled && cfg.History.DSN == "" {
			return errors.New("history dsn is not configured")
		}
		return nil
	}
}

func CombineReadinessChecks(checks ...ReadinessCheck) ReadinessCheck {
	filtered := make([]ReadinessCheck, 0, len(checks))
	for _, check := range checks {
		if check != nil {
			filtered = append(filtered, check)
		}
	}
	return func(ctx context.Context) error {
		for _, check := range filtered {
			if err := check(ctx); err != nil {
				return err
			}
		}
		return nil
	}
}

func chain(base http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	wrapped := base
	for i := len(middlewares) - 1; i >= 0; i-- {
		wrapped = middlewares[i](wrapped)
	}
	return wrapped
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, code, message string, retryable bool, extra map[string]any) {
	writeJSON(w, status, map[string]any{
		"error_code": code,
		"message":    message,
		"retryable":  retryable,
		"context":    extra,
		"trace_id":   observability.TraceIDFromContext(ctx),
	})
}

// writeEngineError maps engine error kinds onto HTTP statuses. Upstream
// completion failures surface as a bad gateway.
func writeEngineError(ctx context.Context, w http.ResponseWriter, err error) {
	var upstream *llm.Error
	if errors.As(err, &upstream) {
		writeError(ctx, w, http.StatusBadGateway, "UPSTREAM_FAILED", err.Error(), true, nil)
		return
	}
	switch {
	case engine.IsInvalidInput(err):
		writeError(ctx, w, http.StatusBadRequest, "INVALID_INPUT", err.Error(), false, nil)
	case engine.IsNotFound(err):
		writeError(ctx, w, http.StatusNotFound, "NOT_FOUND", err.Error(), false, nil)
	case engine.IsTimeout(err):
		writeError(ctx, w, http.StatusGatewayTimeout, "TIMEOUT", err.Error(), true, nil)
	case engine.IsConnectionFailed(err):
		writeError(ctx, w, http.StatusServiceUnavailable, "CONNECTION_FAILED", err.Error(), true, nil)
	case engine.IsQueryFailed(err):
		writeError(ctx, w, http.StatusBadRequest, "QUERY_FAILED", err.Error(), false, nil)
	default:
		writeError(ctx, w, http.StatusInternalServerError, "INTERNAL", err.Error(), true, nil)
	}
}
