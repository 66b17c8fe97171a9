package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sqlforge/sqlforge/internal/api"
	"github.com/sqlforge/sqlforge/internal/api/uistatic"
	"github.com/sqlforge/sqlforge/internal/auth"
	"github.com/sqlforge/sqlforge/internal/config"
	"github.com/sqlforge/sqlforge/internal/engine"
	duckdbengine "github.com/sqlforge/sqlforge/internal/engine/duckdb"
	mysqlengine "github.com/sqlforge/sqlforge/internal/engine/mysql"
	postgresengine "github.com/sqlforge/sqlforge/internal/engine/postgres"
	"github.com/sqlforge/sqlforge/internal/export"
	"github.com/sqlforge/sqlforge/internal/history"
	historypostgres "github.com/sqlforge/sqlforge/internal/history/postgres"
	"github.com/sqlforge/sqlforge/internal/llm"
	"github.com/sqlforge/sqlforge/internal/observability"
	"github.com/sqlforge/sqlforge/internal/pipeline"
	"github.com/sqlforge/sqlforge/internal/schema"
	s3store "github.com/sqlforge/sqlforge/internal/storage/s3"
)

func main() {
	cfg, err := config.LoadFromEnv("sqlforge-api")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stdout)

	eng, err := openEngine(context.Background(), cfg)
	if err != nil {
		logger.Error("failed to open engine", slog.String("driver", cfg.Engine.Driver), slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = eng.Close() }()
	eng = engine.WithTimeout(eng, cfg.Engine.QueryTimeout)

	var completer llm.Completer
	var modelInfo *llm.Info
	if cfg.AI.Enabled {
		client, err := llm.NewClient(llm.Config{
			BaseURL: cfg.AI.BaseURL,
			APIKey:  cfg.AI.APIKey,
			Model:   cfg.AI.Model,
			Timeout: cfg.AI.Timeout,
		})
		if err != nil {
			logger.Error("failed to initialize completion client", slog.Any("error", err))
			os.Exit(1)
		}
		completer = client
		info := client.Info()
		modelInfo = &info
	}

	var store history.Store
	if cfg.History.Enabled {
		historyDB, err := historypostgres.Open(context.Background(), historypostgres.DBConfig{
			DSN:             cfg.History.DSN,
			MaxOpenConns:    cfg.History.MaxOpenConns,
			MaxIdleConns:    cfg.History.MaxIdleConns,
			ConnMaxIdleTime: cfg.History.ConnMaxIdleTime,
			ConnMaxLifetime: cfg.History.ConnMaxLifetime,
		})
		if err != nil {
			logger.Error("failed to open history db", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() { _ = historyDB.Close() }()
		store = historypostgres.NewStore(historyDB)
	}

	var exporter api.ResultExporter
	if cfg.ObjectStore.Enabled {
		objectStore, err := s3store.New(context.Background(), s3store.Config{
			Endpoint:         cfg.ObjectStore.Endpoint,
			Region:           cfg.ObjectStore.Region,
			Bucket:           cfg.ObjectStore.Bucket,
			AccessKeyID:      cfg.ObjectStore.AccessKeyID,
			SecretAccessKey:  cfg.ObjectStore.SecretAccessKey,
			UseSSL:           cfg.ObjectStore.UseSSL,
			Prefix:           cfg.ObjectStore.Prefix,
			AutoCreateBucket: cfg.ObjectStore.AutoCreateBucket,
		})
		if err != nil {
			logger.Error("failed to initialize object store", slog.Any("error", err))
			os.Exit(1)
		}
		exporter = export.NewExporter(objectStore, cfg.Engine.Driver)
	}

	introspector := schema.NewIntrospector(eng, logger, cfg.Schema.MaxTables, cfg.Schema.MaxColumnsPerTable)
	svc := pipeline.New(eng, introspector, completer, store, logger, llm.Params{
		Temperature: cfg.AI.Temperature,
		MaxTokens:   cfg.AI.MaxTokens,
		TopP:        cfg.AI.TopP,
	})

	deps := api.Dependencies{
		Logger:    logger,
		Schema:    eng,
		Pipeline:  svc,
		ModelInfo: modelInfo,
		Exporter:  exporter,
		UI:        uistatic.Handler(),
		Readiness: api.CombineReadinessChecks(
			api.CheckEngine(eng),
			api.CheckHistoryDSN(cfg),
		),
		DependencyTimeout: time.Second,
	}
	if cfg.Auth.Required {
		validator, err := auth.NewStaticAPIKeyValidator(cfg.Auth.StaticKeys)
		if err != nil {
			logger.Error("failed to parse static auth keys", slog.Any("error", err))
			os.Exit(1)
		}
		deps.AuthMiddleware = auth.Middleware(logger, validator)
		deps.AdminMiddleware = auth.RequireRole(auth.RoleAdmin)
	}

	handler := api.NewHandler(cfg, deps)
	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting api server",
			slog.String("addr", cfg.HTTP.Address),
			slog.String("engine", cfg.Engine.Driver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down api server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		_ = server.Close()
		os.Exit(1)
	}
}

func openEngine(ctx context.Context, cfg config.Config) (engine.Engine, error) {
	switch cfg.Engine.Driver {
	case "mysql":
		return mysqlengine.Open(ctx, mysqlengine.Config{
			Host:            cfg.Engine.Host,
			Port:            cfg.Engine.Port,
			User:            cfg.Engine.User,
			Password:        cfg.Engine.Password,
			Database:        cfg.Engine.Database,
			MaxOpenConns:    cfg.Engine.MaxOpenConns,
			MaxIdleConns:    cfg.Engine.MaxIdleConns,
			ConnMaxIdleTime: cfg.Engine.ConnMaxIdleTime,
			ConnMaxLifetime: cfg.Engine.ConnMaxLifetime,
		})
	case "postgres":
		return postgresengine.Open(ctx, postgresengine.Config{
			Host:            cfg.Engine.Host,
			Port:            cfg.Engine.Port,
			User:            cfg.Engine.User,
			Password:        cfg.Engine.Password,
			Database:        cfg.Engine.Database,
			MaxOpenConns:    cfg.Engine.MaxOpenConns,
			MaxIdleConns:    cfg.Engine.MaxIdleConns,
			ConnMaxIdleTime: cfg.Engine.ConnMaxIdleTime,
			ConnMaxLifetime: cfg.Engine.ConnMaxLifetime,
		})
	case "duckdb":
		return duckdbengine.Open(ctx, duckdbengine.Config{Path: cfg.Engine.Path})
	}
	return nil, fmt.Errorf("unsupported engine driver %q", cfg.Engine.Driver)
}
