package mysql

import (
	"context"
	"errors"
	"fmt"

	gomysql "github.com/go-sql-driver/mysql"

	"github.com/sqlforge/sqlforge/internal/engine"
)

// MySQL server error numbers.
// Full list: https://dev.mysql.com/doc/mysql-errors/8.0/en/server-error-reference.html
const (
	errAccessDeniedDB  = 1044
	errAccessDenied    = 1045
	errUnknownDatabase = 1049
	errBadFieldError   = 1054
	errParseError      = 1064
	errUnknownTable    = 1146
)

// mapError converts a MySQL driver error into an engine.Error.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return engine.WrapError(engine.ErrKindTimeout, "statement timed out", err)
	}

	var mysqlErr *gomysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case errAccessDeniedDB, errAccessDenied:
			return engine.WrapError(engine.ErrKindConnectionFailed,
				fmt.Sprintf("access denied: %s", mysqlErr.Message), err)
		case errUnknownDatabase, errUnknownTable:
			return engine.WrapError(engine.ErrKindNotFound,
				fmt.Sprintf("unknown object: %s", mysqlErr.Message), err)
		case errBadFieldError, errParseError:
			return engine.WrapError(engine.ErrKindQueryFailed,
				fmt.Sprintf("invalid query: %s", mysqlErr.Message), err)
		}
		return engine.WrapError(engine.ErrKindQueryFailed, mysqlErr.Message, err)
	}

	if errors.Is(err, gomysql.ErrInvalidConn) || errors.Is(err, gomysql.ErrBusyBuffer) {
		return engine.WrapError(engine.ErrKindConnectionFailed, "connection error", err)
	}
	return engine.WrapError(engine.ErrKindUnknown, err.Error(), err)
}
