// Package sales persists sales and their lines. Both live in version tables
// (sales, sale_lines); a sale's lines are the current versions of the line
// rows pointing at it.
package sales

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dmitrijs2005/cinepos/internal/dbx"
	"github.com/dmitrijs2005/cinepos/internal/models"
	"github.com/dmitrijs2005/cinepos/internal/store"
)

var saleSchema = store.Schema[models.Sale]{
	Table:   "sales",
	Columns: []string{"account_id", "seat_id"},
	Meta:    func(s *models.Sale) *models.Meta { return &s.Meta },
	Values: func(s *models.Sale) []any {
		return []any{s.Account.ID, s.Seat.ID}
	},
	Targets: func(s *models.Sale) []any {
		return []any{&s.Account.ID, &s.Seat.ID}
	},
}

var lineSchema = store.Schema[models.SaleLine]{
	Table:   "sale_lines",
	Columns: []string{"sale_id", "product_id", "product_name", "product_kind", "quantity", "unit_price"},
	Meta:    func(l *models.SaleLine) *models.Meta { return &l.Meta },
	Values: func(l *models.SaleLine) []any {
		return []any{l.SaleID, l.Product.ID, l.Product.Name, string(l.Product.Kind), int64(l.Quantity), l.UnitPrice.String()}
	},
	Targets: func(l *models.SaleLine) []any {
		return []any{&l.SaleID, &l.Product.ID, &l.Product.Name, &l.Product.Kind, &l.Quantity, &l.UnitPrice}
	},
	Finish: func(l *models.SaleLine) error {
		// the stored snapshot price is the product price at sale time
		l.Product.Price = l.UnitPrice
		return nil
	},
}

type SQLRepository struct {
	sales *store.Table[models.Sale]
	lines *store.Table[models.SaleLine]
}

func NewSQLRepository(db dbx.DBTX, d dbx.Dialect) *SQLRepository {
	return &SQLRepository{
		sales: store.NewTable(db, d, saleSchema),
		lines: store.NewTable(db, d, lineSchema),
	}
}

func (r *SQLRepository) Insert(ctx context.Context, sale *models.Sale) error {
	if err := r.sales.Insert(ctx, sale); err != nil {
		return err
	}
	for i := range sale.Lines {
		line := &sale.Lines[i]
		line.SaleID = sale.ID
		if err := r.lines.Insert(ctx, line); err != nil {
			return fmt.Errorf("sale %s: %w", sale.ID, err)
		}
	}
	return nil
}

func (r *SQLRepository) Latest(ctx context.Context, id string) (*models.Sale, error) {
	sale, err := r.sales.Latest(ctx, id)
	if err != nil {
		return nil, err
	}
	lines, err := r.lines.LatestAll(ctx, "v.sale_id = ?", id)
	if err != nil {
		return nil, err
	}
	sale.Lines = sortLines(lines)
	return sale, nil
}

func (r *SQLRepository) AsOf(ctx context.Context, id string, at time.Time) (*models.Sale, error) {
	sale, err := r.sales.AsOf(ctx, id, at)
	if err != nil {
		return nil, err
	}
	lines, err := r.lines.AllAsOf(ctx, at, "v.sale_id = ?", id)
	if err != nil {
		return nil, err
	}
	sale.Lines = sortLines(lines)
	return sale, nil
}

func (r *SQLRepository) All(ctx context.Context) ([]models.Sale, error) {
	sales, err := r.sales.LatestAll(ctx, "")
	if err != nil {
		return nil, err
	}
	lines, err := r.lines.LatestAll(ctx, "")
	if err != nil {
		return nil, err
	}
	return attach(sales, lines), nil
}

func (r *SQLRepository) AllAsOf(ctx context.Context, at time.Time) ([]models.Sale, error) {
	sales, err := r.sales.AllAsOf(ctx, at, "")
	if err != nil {
		return nil, err
	}
	lines, err := r.lines.AllAsOf(ctx, at, "")
	if err != nil {
		return nil, err
	}
	return attach(sales, lines), nil
}

func (r *SQLRepository) ByAccount(ctx context.Context, accountID string) ([]models.Sale, error) {
	sales, err := r.sales.LatestAll(ctx, "v.account_id = ?", accountID)
	if err != nil {
		return nil, err
	}
	lines, err := r.lines.LatestAll(ctx, "v.sale_id IN (SELECT s.id FROM sales s WHERE s.account_id = ?)", accountID)
	if err != nil {
		return nil, err
	}
	return attach(sales, lines), nil
}

func (r *SQLRepository) BySeat(ctx context.Context, seatID string) ([]models.Sale, error) {
	sales, err := r.sales.LatestAll(ctx, "v.seat_id = ?", seatID)
	if err != nil {
		return nil, err
	}
	lines, err := r.lines.LatestAll(ctx, "v.sale_id IN (SELECT s.id FROM sales s WHERE s.seat_id = ?)", seatID)
	if err != nil {
		return nil, err
	}
	return attach(sales, lines), nil
}

func (r *SQLRepository) CountVersions(ctx context.Context, id string) (int64, error) {
	return r.sales.Count(ctx, id)
}

func attach(sales []models.Sale, lines []models.SaleLine) []models.Sale {
	bySale := make(map[string][]models.SaleLine, len(sales))
	for _, l := range lines {
		bySale[l.SaleID] = append(bySale[l.SaleID], l)
	}
	for i := range sales {
		sales[i].Lines = sortLines(bySale[sales[i].ID])
	}
	return sales
}

// sortLines orders lines the way they were added to the sale.
func sortLines(lines []models.SaleLine) []models.SaleLine {
	sort.SliceStable(lines, func(i, j int) bool {
		if !lines[i].CreatedAt.Equal(lines[j].CreatedAt) {
			return lines[i].CreatedAt.Before(lines[j].CreatedAt)
		}
		return lines[i].ID < lines[j].ID
	})
	return lines
}
