/*
Package db opens the PostgreSQL connection pool and applies the embedded schema migrations.
*/
package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"

	"vcturbo/internal/pkg/logx"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// NewPool initializes a new PostgreSQL connection pool and executes database migrations.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database DSN: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 5
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute
	config.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	sqlDB := stdlib.OpenDBFromPool(pool)
	defer sqlDB.Close()

	if err := runMigrations(ctx, sqlDB); err != nil {
		pool.Close()
		return nil, err
	}

	return pool, nil
}

// gooseLogger routes goose output through the component logger.
type gooseLogger struct {
	logger zerolog.Logger
}

func (l gooseLogger) Printf(format string, v ...any) {
	l.logger.Info().Msgf(format, v...)
}

func (l gooseLogger) Fatalf(format string, v ...any) {
	l.logger.Fatal().Msgf(format, v...)
}

// runMigrations applies all pending migrations from the embedded file system.
func runMigrations(ctx context.Context, db *sql.DB) error {
	logger := logx.Component("migrations")

	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(gooseLogger{logger: logger})

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	logger.Info().Msg("Database migrations applied successfully.")
	return nil
}
