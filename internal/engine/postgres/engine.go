package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register driver

	"github.com/sqlforge/sqlforge/internal/engine"
)

const (
	defaultPort            = 5432
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

// Engine implements engine.Engine for Postgres via the pgx stdlib driver.
//
// Postgres cannot query across databases on one connection, so the
// "databases" this engine exposes are the non-system schemas of the
// connected database.
type Engine struct {
	db     *sql.DB
	schema string
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
	return &Engine{db: db, schema: "public"}, nil
}

// NewWithDB wires an existing pool, used by tests.
func NewWithDB(db *sql.DB, defaultSchema string) *Engine {
	if defaultSchema == "" {
		defaultSchema = "public"
	}
	return &Engine{db: db, schema: defaultSchema}
}

func (e *Engine) Name() string { return "postgres" }

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
		WHERE schema_name NOT IN ('pg_catalog', 'information_schema')
		  AND schema_name NOT LIKE 'pg_toast%'
		  AND schema_name NOT LIKE 'pg_temp%'
		ORDER BY schema_name`

	schemas, err := engine.ScanStrings(ctx, e.db, q)
	if err != nil {
		return nil, mapError(err)
	}
	return schemas, nil
}

func (e *Engine) ListTables(ctx context.Context, database string) ([]string, error) {
	if database == "" {
		database = e.schema
	}

	const q = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1
		  AND table_type = 'BASE TABLE'
		ORDER BY table_name`

	tables, err := engine.ScanStrings(ctx, e.db, q, database)
	if err != nil {
		return nil, mapError(err)
	}
	return tables, nil
}

func (e *Engine) ListColumns(ctx context.Context, database, table string) ([]string, error) {
	if database == "" {
		database = e.schema
	}
	if table == "" {
		return nil, engine.NewError(engine.ErrKindInvalidInput, "table is required")
	}

	const q = `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_schema = $1
		  AND table_name = $2
		ORDER BY ordinal_position`

	columns, err := engine.ScanStrings(ctx, e.db, q, database, table)
	if err != nil {
		return nil, mapError(err)
	}
	return columns, nil
}

func buildPool(cfg Config) (*sql.DB, error) {
	db, err := sql.Open("pgx", buildDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
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
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   fmt.Sprintf("%s:%d", cfg.Host, port),
		Path:   "/" + cfg.Database,
	}
	return u.String()
}
