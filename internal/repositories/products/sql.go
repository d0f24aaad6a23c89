// Package products persists concession product versions.
// Prices are stored as decimal strings so both SQLite and PostgreSQL keep
// them exact.
package products

import (
	"context"
	"time"

	"github.com/dmitrijs2005/cinepos/internal/dbx"
	"github.com/dmitrijs2005/cinepos/internal/models"
	"github.com/dmitrijs2005/cinepos/internal/store"
)

var schema = store.Schema[models.Product]{
	Table:   "products",
	Columns: []string{"name", "price", "stock", "kind"},
	Meta:    func(p *models.Product) *models.Meta { return &p.Meta },
	Values: func(p *models.Product) []any {
		return []any{p.Name, p.Price.String(), int64(p.Stock), string(p.Kind)}
	},
	Targets: func(p *models.Product) []any {
		return []any{&p.Name, &p.Price, &p.Stock, &p.Kind}
	},
}

type SQLRepository struct {
	t *store.Table[models.Product]
}

func NewSQLRepository(db dbx.DBTX, d dbx.Dialect) *SQLRepository {
	return &SQLRepository{t: store.NewTable(db, d, schema)}
}

func (r *SQLRepository) Insert(ctx context.Context, product *models.Product) error {
	return r.t.Insert(ctx, product)
}

func (r *SQLRepository) Latest(ctx context.Context, id string) (*models.Product, error) {
	return r.t.Latest(ctx, id)
}

func (r *SQLRepository) AsOf(ctx context.Context, id string, at time.Time) (*models.Product, error) {
	return r.t.AsOf(ctx, id, at)
}

func (r *SQLRepository) All(ctx context.Context) ([]models.Product, error) {
	return r.t.LatestAll(ctx, "")
}

func (r *SQLRepository) AllAsOf(ctx context.Context, at time.Time) ([]models.Product, error) {
	return r.t.AllAsOf(ctx, at, "")
}

func (r *SQLRepository) CountVersions(ctx context.Context, id string) (int64, error) {
	return r.t.Count(ctx, id)
}
