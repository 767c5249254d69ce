package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/postgres/*.sql
var postgresMigrations embed.FS

//go:embed migrations/sqlite/*.sql
var sqliteMigrations embed.FS

// goose keeps its base FS and dialect in package state.
var gooseMu sync.Mutex

func MigratePostgres(ctx context.Context, db *DB) error {
	if db == nil || db.Pool == nil {
		return fmt.Errorf("database pool is not initialized")
	}

	// The wrapper keeps no idle connections of its own, and closing it
	// would tear down the shared pool, so it is left open.
	sqlDB := stdlib.OpenDBFromPool(db.Pool)

	return migrate(ctx, sqlDB, postgresMigrations, "migrations/postgres", "pgx")
}

func MigrateSQLite(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("sqlite handle is not initialized")
	}
	return migrate(ctx, db, sqliteMigrations, "migrations/sqlite", "sqlite3")
}

func migrate(ctx context.Context, db *sql.DB, fsys embed.FS, dir string, dialect string) error {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return fmt.Errorf("open migrations dir: %w", err)
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(sub)
	defer goose.SetBaseFS(nil)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("apply %s migrations: %w", dialect, err)
	}

	version, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	slog.Info("database schema ensured", "dialect", dialect, "version", version)
	return nil
}
