package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql" // register driver

	"github.com/sqlforge/sqlforge/internal/engine"
)

const (
	defaultPort            = 3306
	defaultMaxOpenConns    = 10
	defaultMaxIdleConns    = 5
	defaultConnMaxLifetime = 30 * time.Minute
	defaultConnMaxIdleTime = 10 * time.Minute
)

type Config struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
}

// Engine implements engine.Engine for MySQL over database/sql.
type Engine struct {
	db       *sql.DB
	database string
}

// Open builds the connection pool and verifies connectivity.
func Open(ctx context.Context, cfg Config) (*Engine, error) {
	db, err := buildPool(cfg)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, mapError(err)
	}
	return &Engine{db: db, database: cfg.Database}, nil
}

// NewWithDB wires an existing pool, used by tests.
func NewWithDB(db *sql.DB, database string) *Engine {
	return &Engine{db: db, database: database}
}

func (e *Engine) Name() string { return "mysql" }

func (e *Engine) Ping(ctx context.Context) error {
	return mapError(e.db.PingContext(ctx))
}

func (e *Engine) Close() error {
	return e.db.Close()
}

func (e *Engine) Query(ctx context.Context, sqlText string) (engine.Result, error) {
	result, err := engine.RunQuery(ctx, e.db, sqlText)
	if err != nil {
		return engine.Result{}, mapError(err)
	}
	return result, nil
}

func (e *Engine) Explain(ctx context.Context, sqlText string) ([]string, error) {
	result, err := engine.RunQuery(ctx, e.db, "EXPLAIN "+sqlText)
	if err != nil {
		return nil, mapError(err)
	}
	return engine.FormatPlan(result), nil
}

func (e *Engine) ListDatabases(ctx context.Context) ([]string, error) {
	const q = `
		SELECT schema_name
		FROM information_schema.schemata
		WHERE schema_name NOT IN ('information_schema', 'mysql', 'performance_schema', 'sys')
		ORDER BY schema_name`

	databases, err := engine.ScanStrings(ctx, e.db, q)
	if err != nil {
		return nil, mapError(err)
	}
	return databases, nil
}

func (e *Engine) ListTables(ctx context.Context, database string) ([]string, error) {
	database, err := e.resolveDatabase(database)
	if err != nil {
		return nil, err
	}

	const q = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = ?
		  AND table_type = 'BASE TABLE'
		ORDER BY table_name`

	tables, err := engine.ScanStrings(ctx, e.db, q, database)
	if err != nil {
		return nil, mapError(err)
	}
	return tables, nil
}

func (e *Engine) ListColumns(ctx context.Context, database, table string) ([]string, error) {
	database, err := e.resolveDatabase(database)
	if err != nil {
		return nil, err
	}
	if table == "" {
		return nil, engine.NewError(engine.ErrKindInvalidInput, "table is required")
	}

	const q = `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_schema = ?
		  AND table_name = ?
		ORDER BY ordinal_position`

	columns, err := engine.ScanStrings(ctx, e.db, q, database, table)
	if err != nil {
		return nil, mapError(err)
	}
	return columns, nil
}

func (e *Engine) resolveDatabase(database string) (string, error) {
	if database != "" {
		return database, nil
	}
	if e.database != "" {
		return e.database, nil
	}
	return "", engine.NewError(engine.ErrKindInvalidInput, "database is required")
}

func buildPool(cfg Config) (*sql.DB, error) {
	db, err := sql.Open("mysql", buildDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen == 0 {
		maxOpen = defaultMaxOpenConns
	}
	maxIdle := cfg.MaxIdleConns
	if maxIdle == 0 {
		maxIdle = defaultMaxIdleConns
	}
	maxLifetime := cfg.ConnMaxLifetime
	if maxLifetime == 0 {
		maxLifetime = defaultConnMaxLifetime
	}
	maxIdleTime := cfg.ConnMaxIdleTime
	if maxIdleTime == 0 {
		maxIdleTime = defaultConnMaxIdleTime
	}

	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(maxLifetime)
	db.SetConnMaxIdleTime(maxIdleTime)
	return db, nil
}

func buildDSN(cfg Config) string {
	port := cfg.Port
	if port == 0 {
		port = defaultPort
	}
	// format: user:pass@tcp(host:port)/dbname?parseTime=true
	return fmt.Sprintf(
		"%s:%s@tcp(%s:%d)/%s?parseTime=true",
		cfg.User, cfg.Password, cfg.Host, port, cfg.Database,
	)
}
