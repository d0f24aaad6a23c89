// Package database opens the configured SQL backend, migrates it and hands
// back the pool together with a matching repository manager.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	_ "modernc.org/sqlite"             // registers the "sqlite" driver

	"github.com/dmitrijs2005/cinepos/internal/config"
	"github.com/dmitrijs2005/cinepos/internal/dbx"
	"github.com/dmitrijs2005/cinepos/internal/filex"
	"github.com/dmitrijs2005/cinepos/internal/repositories/repomanager"
)

// sqlOpen is a seam for tests.
var sqlOpen = sql.Open

// Open connects to the database described by cfg and runs migrations.
//
// SQLite is limited to a single connection: writers serialize on it and an
// in-memory database lives exactly as long as that connection.
func Open(ctx context.Context, cfg *config.Config) (*sql.DB, repomanager.RepositoryManager, error) {
	dialect := dbx.Dialect(cfg.DatabaseDriver)
	rm, err := repomanager.NewSQLRepositoryManager(dialect)
	if err != nil {
		return nil, nil, err
	}

	dsn, err := dataSource(cfg)
	if err != nil {
		return nil, nil, err
	}

	db, err := sqlOpen(string(dialect), dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("db open error: %w", err)
	}

	if dialect == dbx.DialectSQLite {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		db.SetMaxOpenConns(10)
		db.SetConnMaxIdleTime(5 * time.Minute)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("db ping error: %w", err)
	}

	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migration error: %w", err)
	}

	return db, rm, nil
}

func dataSource(cfg *config.Config) (string, error) {
	if cfg.DatabaseDriver != string(dbx.DialectSQLite) {
		if cfg.DatabaseDSN == "" {
			return "", fmt.Errorf("database dsn is required for %s", cfg.DatabaseDriver)
		}
		return cfg.DatabaseDSN, nil
	}

	if cfg.InMemory {
		return ":memory:", nil
	}
	if cfg.DatabaseDSN == "" {
		return "", fmt.Errorf("database dsn is required")
	}

	if dir := filepath.Dir(cfg.DatabaseDSN); dir != "." {
		if _, err := filex.EnsureDir(dir); err != nil {
			return "", err
		}
	}
	return "file:" + cfg.DatabaseDSN + "?_pragma=busy_timeout(5000)", nil
}
