// Package accounts persists account versions in the accounts table.
package accounts

import (
	"context"
	"time"

	"github.com/dmitrijs2005/cinepos/internal/dbx"
	"github.com/dmitrijs2005/cinepos/internal/models"
	"github.com/dmitrijs2005/cinepos/internal/store"
)

// accounts carry no payload beyond their version bookkeeping
var schema = store.Schema[models.Account]{
	Table:   "accounts",
	Meta:    func(a *models.Account) *models.Meta { return &a.Meta },
	Values:  func(*models.Account) []any { return nil },
	Targets: func(*models.Account) []any { return nil },
}

type SQLRepository struct {
	t *store.Table[models.Account]
}

func NewSQLRepository(db dbx.DBTX, d dbx.Dialect) *SQLRepository {
	return &SQLRepository{t: store.NewTable(db, d, schema)}
}

func (r *SQLRepository) Insert(ctx context.Context, account *models.Account) error {
	return r.t.Insert(ctx, account)
}

func (r *SQLRepository) Latest(ctx context.Context, id string) (*models.Account, error) {
	return r.t.Latest(ctx, id)
}

func (r *SQLRepository) AsOf(ctx context.Context, id string, at time.Time) (*models.Account, error) {
	return r.t.AsOf(ctx, id, at)
}

func (r *SQLRepository) All(ctx context.Context) ([]models.Account, error) {
	return r.t.LatestAll(ctx, "")
}
