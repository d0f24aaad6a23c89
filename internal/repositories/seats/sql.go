// Package seats persists seat versions in the seats table.
package seats

import (
	"context"
	"time"

	"github.com/dmitrijs2005/cinepos/internal/dbx"
	"github.com/dmitrijs2005/cinepos/internal/models"
	"github.com/dmitrijs2005/cinepos/internal/store"
)

var schema = store.Schema[models.Seat]{
	Table:   "seats",
	Columns: []string{"status", "occupancy", "kind"},
	Meta:    func(s *models.Seat) *models.Meta { return &s.Meta },
	Values: func(s *models.Seat) []any {
		return []any{string(s.Status), string(s.Occupancy), string(s.Kind)}
	},
	Targets: func(s *models.Seat) []any {
		return []any{&s.Status, &s.Occupancy, &s.Kind}
	},
}

type SQLRepository struct {
	t *store.Table[models.Seat]
}

func NewSQLRepository(db dbx.DBTX, d dbx.Dialect) *SQLRepository {
	return &SQLRepository{t: store.NewTable(db, d, schema)}
}

func (r *SQLRepository) Insert(ctx context.Context, seat *models.Seat) error {
	return r.t.Insert(ctx, seat)
}

func (r *SQLRepository) Latest(ctx context.Context, id string) (*models.Seat, error) {
	return r.t.Latest(ctx, id)
}

func (r *SQLRepository) AsOf(ctx context.Context, id string, at time.Time) (*models.Seat, error) {
	return r.t.AsOf(ctx, id, at)
}

func (r *SQLRepository) All(ctx context.Context) ([]models.Seat, error) {
	return r.t.LatestAll(ctx, "")
}

func (r *SQLRepository) AllAsOf(ctx context.Context, at time.Time) ([]models.Seat, error) {
	return r.t.AllAsOf(ctx, at, "")
}

func (r *SQLRepository) CountVersions(ctx context.Context, id string) (int64, error) {
	return r.t.Count(ctx, id)
}
