package engine

import (
	"context"
	"time"
)

// WithTimeout bounds every engine call with a per-call deadline. A
// non-positive timeout returns the engine unchanged.
func WithTimeout(inner Engine, timeout time.Duration) Engine {
	if timeout <= 0 {
		return inner
	}
	return &timeoutEngine{inner: inner, timeout: timeout}
}

type timeoutEngine struct {
	inner   Engine
	timeout time.Duration
}

func (e *timeoutEngine) Name() string { return e.inner.Name() }

func (e *timeoutEngine) Close() error { return e.inner.Close() }

func (e *timeoutEngine) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	return e.inner.Ping(ctx)
}

func (e *timeoutEngine) Query(ctx context.Context, sqlText string) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	return e.inner.Query(ctx, sqlText)
}

func (e *timeoutEngine) Explain(ctx context.Context, sqlText string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	return e.inner.Explain(ctx, sqlText)
}

func (e *timeoutEngine) ListDatabases(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	return e.inner.ListDatabases(ctx)
}

func (e *timeoutEngine) ListTables(ctx context.Context, database string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	return e.inner.ListTables(ctx, database)
}

func (e *timeoutEngine) ListColumns(ctx context.Context, database, table string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	return e.inner.ListColumns(ctx, database, table)
}
