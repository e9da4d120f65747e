package main

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/bryanwahyu/phish-detector/internal/application"
	appai "github.com/bryanwahyu/phish-detector/internal/application/ai"
	apphistory "github.com/bryanwahyu/phish-detector/internal/application/history"
	"github.com/bryanwahyu/phish-detector/internal/config"
	"github.com/bryanwahyu/phish-detector/internal/domain/chat"
	domain "github.com/bryanwahyu/phish-detector/internal/domain/history"
	"github.com/bryanwahyu/phish-detector/internal/infra/ai/openai"
	"github.com/bryanwahyu/phish-detector/internal/infra/db/memory"
	mysqlp "github.com/bryanwahyu/phish-detector/internal/infra/db/mysql"
	"github.com/bryanwahyu/phish-detector/internal/infra/db/postgres"
	minioStore "github.com/bryanwahyu/phish-detector/internal/infra/storage"
	"github.com/bryanwahyu/phish-detector/internal/middleware"
)

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}
	level, err := zap.ParseAtomicLevel(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("log.level: %w", err)
	}
	zc.Level = level
	return zc.Build()
}

type schemaRepo interface {
	domain.Repository
	EnsureSchema(ctx context.Context) error
}

// buildHistory returns nil when the audit log is disabled.
func buildHistory(ctx context.Context, cfg *config.Config, logger *zap.Logger, checkers map[string]middleware.HealthChecker) (*apphistory.Service, func(), error) {
	noop := func() {}

	var (
		repo domain.Repository
		db   *sql.DB
		err  error
	)
	switch strings.ToLower(cfg.History.Driver) {
	case "none":
		return nil, noop, nil
	case "memory":
		repo = memory.NewHistoryRepository(cfg.History.MemoryLimit)
	case "mysql":
		if db, err = mysqlp.Connect(ctx, cfg.MySQLDSN()); err != nil {
			return nil, noop, fmt.Errorf("mysql connect error: %w", err)
		}
		repo = mysqlp.NewHistoryRepository(db)
	case "postgres":
		if db, err = postgres.Connect(ctx, cfg.PostgresDSN()); err != nil {
			return nil, noop, fmt.Errorf("postgres connect error: %w", err)
		}
		repo = postgres.NewHistoryRepository(db)
	default:
		return nil, noop, fmt.Errorf("unknown history driver %q", cfg.History.Driver)
	}

	closeFn := noop
	if db != nil {
		closeFn = func() { db.Close() }
		checkers["database"] = &middleware.DatabaseHealthChecker{DB: db}
		if err := repo.(schemaRepo).EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, noop, fmt.Errorf("ensure schema: %w", err)
		}
	}

	svc := &apphistory.Service{
		Repo:   repo,
		Clock:  application.SystemClock{},
		Logger: logger.Named("history"),
	}

	if cfg.Minio.Enabled {
		store, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			closeFn()
			return nil, noop, fmt.Errorf("minio init error: %w", err)
		}
		svc.Archive = store
		checkers["archive"] = middleware.CheckerFunc(store.Check)
	}

	return svc, closeFn, nil
}

func buildResponder(cfg *config.Config, logger *zap.Logger) chat.Responder {
	rules := chat.NewSelector()
	if strings.ToLower(cfg.Chat.Provider) != "openai" {
		return rules
	}
	var client *openai.Client
	if cfg.OpenAI.BaseURL != "" {
		client = openai.NewClientWithBaseURL(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL)
	} else {
		client = openai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	}
	return appai.NewService(client, rules, logger.Named("ai"))
}
