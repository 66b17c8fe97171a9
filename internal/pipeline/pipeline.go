// Package pipeline chains schema introspection, prompt construction,
// model completion, extraction, validation, and execution into the
// operations the API exposes.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sqlforge/sqlforge/internal/engine"
	"github.com/sqlforge/sqlforge/internal/history"
	"github.com/sqlforge/sqlforge/internal/llm"
	"github.com/sqlforge/sqlforge/internal/observability"
	"github.com/sqlforge/sqlforge/internal/prompt"
	"github.com/sqlforge/sqlforge/internal/schema"
	"github.com/sqlforge/sqlforge/internal/sqlcheck"
	"github.com/sqlforge/sqlforge/internal/sqlextract"
)

// Sampling per task. Generation params come from configuration; the
// prose tasks use fixed, slightly warmer settings.
var (
	suggestionParams = llm.Params{Temperature: 0.2, MaxTokens: 512}
	explainParams    = llm.Params{Temperature: 0.3, MaxTokens: 512}
)

type GenerateResult struct {
	SQL             string `json:"sql_query"`
	Provider        string `json:"provider"`
	Model           string `json:"model"`
	SchemaTruncated bool   `json:"schema_truncated,omitempty"`
}

type ExecuteResult struct {
	Columns    []string         `json:"columns"`
	Rows       []map[string]any `json:"results"`
	RowCount   int              `json:"row_count"`
	DurationMS int64            `json:"duration_ms"`
	Suggestion string           `json:"optimization_suggestion"`
}

type OptimizeResult struct {
	Plan       []string `json:"plan"`
	Suggestion string   `json:"optimization_suggestions"`
}

type Service struct {
	engine       engine.Engine
	introspector *schema.Introspector
	completer    llm.Completer
	store        history.Store
	logger       *slog.Logger
	genParams    llm.Params
}

// New wires the pipeline. completer may be nil when no model is
// configured; store may be nil when history is disabled.
func New(eng engine.Engine, introspector *schema.Introspector, completer llm.Completer, store history.Store, logger *slog.Logger, genParams llm.Params) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		engine:       eng,
		introspector: introspector,
		completer:    completer,
		store:        store,
		logger:       logger,
		genParams:    genParams,
	}
}

// HasCompleter reports whether model-backed operations are available.
func (s *Service) HasCompleter() bool { return s.completer != nil }

// HasHistory reports whether executions are recorded.
func (s *Service) HasHistory() bool { return s.store != nil }

// Generate translates a natural language request into SQL against the
// current schema, optionally scoped to one database.
func (s *Service) Generate(ctx context.Context, nlQuery, database string) (GenerateResult, error) {
	if s.completer == nil {
		return GenerateResult{}, engine.NewError(engine.ErrKindInvalidInput, "no completion model configured")
	}

	// Introspection is best effort: an empty snapshot still produces a
	// prompt, the model just works without schema context.
	snap := s.introspector.Snapshot(ctx, database)

	p := prompt.Generation(snap.Text(), nlQuery)

	start := time.Now()
	raw, err := s.completer.Complete(ctx, p.System, p.User, s.genParams)
	observability.ObserveCompletionLatency(time.Since(start))
	if err != nil {
		observability.IncrementGenerationFailures()
		return GenerateResult{}, fmt.Errorf("generate sql: %w", err)
	}

	sqlText := sqlextract.Clean(raw)
	if sqlText == "" {
		observability.IncrementGenerationFailures()
		return GenerateResult{}, fmt.Errorf("model returned no usable SQL")
	}

	observability.IncrementGenerations()
	info := s.completer.Info()
	return GenerateResult{
		SQL:             sqlText,
		Provider:        info.Provider,
		Model:           info.Model,
		SchemaTruncated: snap.Truncated,
	}, nil
}

// Validate reports whether the statement parses. It never touches the
// engine.
func (s *Service) Validate(sqlText string) (bool, string) {
	return sqlcheck.Validate(sqlText)
}

// Execute validates and runs the statement, then attaches an index
// suggestion derived from the execution plan. Suggestion failures never
// fail the execution: the result carries a fallback message instead.
func (s *Service) Execute(ctx context.Context, sqlText string) (ExecuteResult, error) {
	return s.executeRecordingQuery(ctx, "", sqlText)
}

// GenerateAndExecute runs the full translation pipeline end to end.
func (s *Service) GenerateAndExecute(ctx context.Context, nlQuery, database string) (GenerateResult, ExecuteResult, error) {
	generated, err := s.Generate(ctx, nlQuery, database)
	if err != nil {
		return GenerateResult{}, ExecuteResult{}, err
	}

	executed, err := s.executeRecordingQuery(ctx, nlQuery, generated.SQL)
	if err != nil {
		return generated, ExecuteResult{}, err
	}
	return generated, executed, nil
}

// Explain asks the model for a plain-English description of the
// statement.
func (s *Service) Explain(ctx context.Context, sqlText string) (string, error) {
	if s.completer == nil {
		return "", engine.NewError(engine.ErrKindInvalidInput, "no completion model configured")
	}
	if ok, reason := sqlcheck.Validate(sqlText); !ok {
		return "", engine.NewError(engine.ErrKindInvalidInput, fmt.Sprintf("invalid sql: %s", reason))
	}

	p := prompt.Explain(sqlText)
	start := time.Now()
	explanation, err := s.completer.Complete(ctx, p.System, p.User, explainParams)
	observability.ObserveCompletionLatency(time.Since(start))
	if err != nil {
		return "", fmt.Errorf("explain sql: %w", err)
	}
	return explanation, nil
}

// Optimize fetches the engine's execution plan and asks the model for
// index suggestions. A plan fetch failure fails the call; a model
// failure degrades to a fallback message.
func (s *Service) Optimize(ctx context.Context, sqlText string) (OptimizeResult, error) {
	if ok, reason := sqlcheck.Validate(sqlText); !ok {
		return OptimizeResult{}, engine.NewError(engine.ErrKindInvalidInput, fmt.Sprintf("invalid sql: %s", reason))
	}

	plan, err := s.engine.Explain(ctx, sqlText)
	if err != nil {
		return OptimizeResult{}, err
	}
	return OptimizeResult{
		Plan:       plan,
		Suggestion: s.suggestFromPlan(ctx, sqlText, plan),
	}, nil
}

// History lists recorded entries, newest first.
func (s *Service) History(ctx context.Context, page history.Page) ([]history.Entry, error) {
	if s.store == nil {
		return nil, engine.NewError(engine.ErrKindInvalidInput, "history is not configured")
	}
	return s.store.List(ctx, page)
}

// suggestIndexes degrades in two stages, matching the execution flow:
// no plan means no model call.
func (s *Service) suggestIndexes(ctx context.Context, sqlText string) string {
	plan, err := s.engine.Explain(ctx, sqlText)
	if err != nil {
		observability.IncrementSuggestionFallbacks()
		return fmt.Sprintf("Could not generate execution plan: %v", err)
	}
	return s.suggestFromPlan(ctx, sqlText, plan)
}

func (s *Service) suggestFromPlan(ctx context.Context, sqlText string, plan []string) string {
	if s.completer == nil {
		observability.IncrementSuggestionFallbacks()
		return "Could not generate index suggestions: no completion model configured"
	}

	p := prompt.IndexSuggestion(sqlText, plan)
	start := time.Now()
	suggestion, err := s.completer.Complete(ctx, p.System, p.User, suggestionParams)
	observability.ObserveCompletionLatency(time.Since(start))
	if err != nil {
		observability.IncrementSuggestionFallbacks()
		return fmt.Sprintf("Could not generate index suggestions: %v", err)
	}
	return suggestion
}

func (s *Service) executeRecordingQuery(ctx context.Context, nlQuery, sqlText string) (ExecuteResult, error) {
	if ok, reason := sqlcheck.Validate(sqlText); !ok {
		s.record(ctx, history.Entry{NLQuery: nlQuery, SQL: sqlText, Outcome: history.OutcomeInvalid, Detail: reason})
		return ExecuteResult{}, engine.NewError(engine.ErrKindInvalidInput, fmt.Sprintf("invalid sql: %s", reason))
	}

	result, err := s.engine.Query(ctx, sqlText)
	if err != nil {
		observability.IncrementExecutionFailures()
		s.record(ctx, history.Entry{NLQuery: nlQuery, SQL: sqlText, Outcome: history.OutcomeError, Detail: err.Error()})
		return ExecuteResult{}, err
	}
	observability.IncrementExecutions()
	observability.ObserveExecutionDuration(result.Duration)

	suggestion := s.suggestIndexes(ctx, sqlText)

	s.record(ctx, history.Entry{
		NLQuery:  nlQuery,
		SQL:      sqlText,
		Outcome:  history.OutcomeOK,
		RowCount: result.RowCount(),
		Elapsed:  result.Duration,
	})

	return ExecuteResult{
		Columns:    result.Columns,
		Rows:       result.Rows,
		RowCount:   result.RowCount(),
		DurationMS: result.Duration.Milliseconds(),
		Suggestion: suggestion,
	}, nil
}

// record is best effort. A broken history store must not fail queries.
func (s *Service) record(ctx context.Context, entry history.Entry) {
	if s.store == nil {
		return
	}
	if err := s.store.Record(ctx, entry); err != nil {
		s.logger.Warn("history record failed", slog.String("error", err.Error()))
	}
}
