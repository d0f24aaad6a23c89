// Package repomanager provides a concrete RepositoryManager for the SQL
// backends (SQLite and PostgreSQL), wiring together repository constructors
// and database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/cinepos/internal/dbx"
	"github.com/dmitrijs2005/cinepos/internal/migrations"
	"github.com/dmitrijs2005/cinepos/internal/repositories/accounts"
	"github.com/dmitrijs2005/cinepos/internal/repositories/products"
	"github.com/dmitrijs2005/cinepos/internal/repositories/sales"
	"github.com/dmitrijs2005/cinepos/internal/repositories/seats"
	"github.com/pressly/goose/v3"
)

// SQLRepositoryManager vends SQL-backed repository implementations for one
// dialect and exposes a schema migration hook.
type SQLRepositoryManager struct {
	dialect dbx.Dialect
}

// NewSQLRepositoryManager constructs a RepositoryManager for dialect.
func NewSQLRepositoryManager(d dbx.Dialect) (RepositoryManager, error) {
	switch d {
	case dbx.DialectSQLite, dbx.DialectPostgres:
		return &SQLRepositoryManager{dialect: d}, nil
	}
	return nil, fmt.Errorf("unsupported dialect %q", d)
}

func (m *SQLRepositoryManager) Dialect() dbx.Dialect {
	return m.dialect
}

// Seats returns a seats.Repository bound to the provided DBTX.
func (m *SQLRepositoryManager) Seats(db dbx.DBTX) seats.Repository {
	return seats.NewSQLRepository(db, m.dialect)
}

// Accounts returns an accounts.Repository bound to the provided DBTX.
func (m *SQLRepositoryManager) Accounts(db dbx.DBTX) accounts.Repository {
	return accounts.NewSQLRepository(db, m.dialect)
}

// Products returns a products.Repository bound to the provided DBTX.
func (m *SQLRepositoryManager) Products(db dbx.DBTX) products.Repository {
	return products.NewSQLRepository(db, m.dialect)
}

// Sales returns a sales.Repository bound to the provided DBTX.
func (m *SQLRepositoryManager) Sales(db dbx.DBTX) sales.Repository {
	return sales.NewSQLRepository(db, m.dialect)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *SQLRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect(gooseDialect(m.dialect)); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return err
	}
	return nil
}

func gooseDialect(d dbx.Dialect) string {
	if d == dbx.DialectPostgres {
		return "postgres"
	}
	return "sqlite3"
}
