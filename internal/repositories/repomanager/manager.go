package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/cinepos/internal/dbx"
	"github.com/dmitrijs2005/cinepos/internal/repositories/accounts"
	"github.com/dmitrijs2005/cinepos/internal/repositories/products"
	"github.com/dmitrijs2005/cinepos/internal/repositories/sales"
	"github.com/dmitrijs2005/cinepos/internal/repositories/seats"
)

// RepositoryManager vends repositories bound to a DBTX, so services can use
// the same repositories on the pool or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Dialect() dbx.Dialect
	Seats(db dbx.DBTX) seats.Repository
	Accounts(db dbx.DBTX) accounts.Repository
	Products(db dbx.DBTX) products.Repository
	Sales(db dbx.DBTX) sales.Repository
}
