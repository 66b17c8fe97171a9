package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/sqlforge/sqlforge/internal/config"
	"github.com/sqlforge/sqlforge/internal/migrations"
	"github.com/sqlforge/sqlforge/internal/observability"
)

func main() {
	direction := flag.String("direction", "up", "migration direction: up or down")
	steps := flag.Int("steps", 0, "number of migrations to apply, 0 for all pending (up) or 1 (down)")
	flag.Parse()

	cfg, err := config.LoadFromEnv("sqlforge-migrate")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stdout)

	if cfg.History.DSN == "" {
		logger.Error("history database DSN is not configured, set SQLFORGE_HISTORY_DSN")
		os.Exit(1)
	}

	db, err := sql.Open("pgx", cfg.History.DSN)
	if err != nil {
		logger.Error("failed to open history db", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := db.PingContext(ctx); err != nil {
		logger.Error("failed to reach history db", slog.Any("error", err))
		os.Exit(1)
	}

	runner := migrations.NewRunner()

	var applied int
	switch *direction {
	case "up":
		applied, err = runner.Up(ctx, db, *steps)
	case "down":
		n := *steps
		if n <= 0 {
			n = 1
		}
		applied, err = runner.Down(ctx, db, n)
	default:
		logger.Error("unknown direction", slog.String("direction", *direction))
		os.Exit(1)
	}
	if err != nil {
		logger.Error("migration failed", slog.String("direction", *direction), slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("migrations complete",
		slog.String("direction", *direction),
		slog.Int("applied", applied))
}
