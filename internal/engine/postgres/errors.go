package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sqlforge/sqlforge/internal/engine"
)

// Postgres SQLSTATE classes and codes this driver distinguishes.
// Reference: https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	codeInvalidPassword  = "28P01"
	codeInvalidCatalog   = "3D000"
	codeInvalidSchema    = "3F000"
	codeUndefinedTable   = "42P01"
	codeUndefinedColumn  = "42703"
	codeSyntaxError      = "42601"
	codeInsufficientPriv = "42501"
)

// mapError converts a pgx error into an engine.Error.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return engine.WrapError(engine.ErrKindTimeout, "statement timed out", err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeInvalidPassword, codeInsufficientPriv:
			return engine.WrapError(engine.ErrKindConnectionFailed,
				fmt.Sprintf("access denied: %s", pgErr.Message), err)
		case codeInvalidCatalog, codeInvalidSchema, codeUndefinedTable, codeUndefinedColumn:
			return engine.WrapError(engine.ErrKindNotFound,
				fmt.Sprintf("unknown object: %s", pgErr.Message), err)
		case codeSyntaxError:
			return engine.WrapError(engine.ErrKindQueryFailed,
				fmt.Sprintf("invalid query: %s", pgErr.Message), err)
		}
		return engine.WrapError(engine.ErrKindQueryFailed, pgErr.Message, err)
	}

	return engine.WrapError(engine.ErrKindUnknown, err.Error(), err)
}
