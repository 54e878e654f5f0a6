package postgres

import (
	"context"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	"github.com/simaogato/portfolio-tracker/internal/logging"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func setupGoose(ctx context.Context) error {
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(logging.FromContext(ctx))
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}
	return nil
}

// Migrate applies every pending migration
func Migrate(ctx context.Context, db *DB) error {
	if err := setupGoose(ctx); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, db.DB, "migrations"); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// MigrateDown rolls back the most recent migration
func MigrateDown(ctx context.Context, db *DB) error {
	if err := setupGoose(ctx); err != nil {
		return err
	}
	if err := goose.DownContext(ctx, db.DB, "migrations"); err != nil {
		return fmt.Errorf("failed to roll back migration: %w", err)
	}
	return nil
}

// MigrationVersion reports the current schema version
func MigrationVersion(ctx context.Context, db *DB) (int64, error) {
	if err := setupGoose(ctx); err != nil {
		return 0, err
	}
	version, err := goose.GetDBVersionContext(ctx, db.DB)
	if err != nil {
		return 0, fmt.Errorf("failed to read migration version: %w", err)
	}
	return version, nil
}
