package duckdb

import (
	"context"
	"errors"
	"strings"

	"github.com/sqlforge/sqlforge/internal/engine"
)

// mapError classifies DuckDB errors by their message prefix. The driver
// surfaces DuckDB exceptions as plain errors with a stable
// "<Category> Error:" prefix.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return engine.WrapError(engine.ErrKindTimeout, "statement timed out", err)
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "Catalog Error:"):
		return engine.WrapError(engine.ErrKindNotFound, msg, err)
	case strings.Contains(msg, "Parser Error:"), strings.Contains(msg, "Binder Error:"):
		return engine.WrapError(engine.ErrKindQueryFailed, msg, err)
	case strings.Contains(msg, "IO Error:"), strings.Contains(msg, "Connection Error:"):
		return engine.WrapError(engine.ErrKindConnectionFailed, msg, err)
	}
	return engine.WrapError(engine.ErrKindUnknown, msg, err)
}
