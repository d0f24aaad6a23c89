package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"sort"
	"strings"
	"time"

	"github.com/dmitrijs2005/cinepos/internal/common"
	"github.com/dmitrijs2005/cinepos/internal/dbx"
	"github.com/dmitrijs2005/cinepos/internal/locks"
	"github.com/dmitrijs2005/cinepos/internal/models"
	"github.com/dmitrijs2005/cinepos/internal/repositories/products"
	"github.com/dmitrijs2005/cinepos/internal/repositories/repomanager"
	"github.com/google/uuid"
)

// ProductService owns concession products and their stock counters.
type ProductService struct {
	deps
}

func NewProductService(db *sql.DB, rm repomanager.RepositoryManager, opts ...Option) *ProductService {
	return &ProductService{deps: newDeps(db, rm, opts)}
}

func (s *ProductService) repo(db dbx.DBTX) products.Repository {
	return s.repomanager.Products(db)
}

// FindAll returns every current, non-deleted product ordered by name.
func (s *ProductService) FindAll(ctx context.Context) ([]models.Product, error) {
	all, err := s.repo(s.db).All(ctx)
	if err != nil {
		return nil, err
	}
	return liveProducts(all), nil
}

func (s *ProductService) FindAllAsOf(ctx context.Context, at time.Time) ([]models.Product, error) {
	all, err := s.repo(s.db).AllAsOf(ctx, at)
	if err != nil {
		return nil, err
	}
	return liveProducts(all), nil
}

func (s *ProductService) FindByID(ctx context.Context, id string) (*models.Product, error) {
	return s.current(ctx, s.db, id)
}

func (s *ProductService) FindAsOf(ctx context.Context, id string, at time.Time) (*models.Product, error) {
	p, err := s.repo(s.db).AsOf(ctx, id, at)
	if err != nil {
		return nil, err
	}
	if p.Deleted {
		return nil, fmt.Errorf("product %s: %w", id, common.ErrNotFound)
	}
	return p, nil
}

// Validate checks the rules every stored product version must hold.
func (s *ProductService) Validate(p *models.Product) error {
	var problems []string
	if strings.TrimSpace(p.Name) == "" {
		problems = append(problems, "name is empty")
	}
	if p.Kind == "" {
		problems = append(problems, "kind is unset")
	} else if kind, err := models.ParseProductKind(string(p.Kind)); err != nil {
		problems = append(problems, err.Error())
	} else {
		p.Kind = kind
	}
	if p.Stock < 0 {
		problems = append(problems, "stock is negative")
	}
	if p.Price.IsNegative() {
		problems = append(problems, "price is negative")
	}
	if len(problems) > 0 {
		return fmt.Errorf("product %q: %w: %s", p.Name, common.ErrValidation, strings.Join(problems, ", "))
	}
	return nil
}

// AdjustStock adds delta (possibly negative) to the stock of product id.
// A result below zero fails with common.ErrInsufficientStock, which also
// matches common.ErrInvalidState, and stores nothing.
func (s *ProductService) AdjustStock(ctx context.Context, id string, delta int) (*models.Product, error) {
	var out *models.Product
	err := s.mutate(ctx, id, func(ctx context.Context, tx dbx.DBTX) error {
		p, err := s.adjustStockTx(ctx, tx, id, delta)
		out = p
		return err
	})
	return out, err
}

// adjustStockTx applies a stock change within tx. The caller holds the
// product lock.
func (s *ProductService) adjustStockTx(ctx context.Context, tx dbx.DBTX, id string, delta int) (*models.Product, error) {
	cur, err := s.current(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if cur.Stock+delta < 0 {
		return nil, fmt.Errorf("product %s: stock %d, change %d: %w: %w",
			cur.ID, cur.Stock, delta, common.ErrInvalidState, common.ErrInsufficientStock)
	}
	if delta == 0 {
		return cur, nil
	}

	next := *cur
	next.Meta = cur.Meta.Next(s.now())
	next.Stock = cur.Stock + delta
	if err := s.repo(tx).Insert(ctx, &next); err != nil {
		return nil, err
	}

	s.log.Debug(ctx, "stock adjusted", "product", next.ID, "delta", delta, "stock", next.Stock)
	return &next, nil
}

// Save validates and stores a new product. An empty ID is generated.
func (s *ProductService) Save(ctx context.Context, p models.Product) (*models.Product, error) {
	if err := s.Validate(&p); err != nil {
		return nil, err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	err := s.mutate(ctx, p.ID, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repo(tx)
		now := s.now()

		prev, err := repo.Latest(ctx, p.ID)
		switch {
		case err == nil && !prev.Deleted:
			return fmt.Errorf("product %s: %w", p.ID, common.ErrDuplicate)
		case err == nil:
			p.Meta = prev.Meta.Next(now)
			p.CreatedAt = p.UpdatedAt
			p.Deleted = false
		case errors.Is(err, common.ErrNotFound):
			p.Meta = models.NewMeta(p.ID, now)
		default:
			return err
		}
		return repo.Insert(ctx, &p)
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Update stores name, price and kind of p as the next version of an
// existing product. p.Version must be the current version. Stock is kept
// from the current version; it only moves through AdjustStock.
func (s *ProductService) Update(ctx context.Context, p models.Product) (*models.Product, error) {
	if p.Version == 0 {
		return nil, fmt.Errorf("product %s: version is required: %w", p.ID, common.ErrValidation)
	}
	if err := s.Validate(&p); err != nil {
		return nil, err
	}

	err := s.mutate(ctx, p.ID, func(ctx context.Context, tx dbx.DBTX) error {
		cur, err := s.current(ctx, tx, p.ID)
		if err != nil {
			return err
		}
		if p.Version != cur.Version {
			return fmt.Errorf("product %s: updating version %d, current is %d: %w",
				p.ID, p.Version, cur.Version, common.ErrConcurrentModification)
		}
		p.Meta = cur.Meta.Next(s.now())
		p.Stock = cur.Stock
		return s.repo(tx).Insert(ctx, &p)
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *ProductService) SoftDelete(ctx context.Context, id string) error {
	return s.mutate(ctx, id, func(ctx context.Context, tx dbx.DBTX) error {
		cur, err := s.current(ctx, tx, id)
		if err != nil {
			return err
		}
		next := *cur
		next.Meta = cur.Meta.Next(s.now())
		next.Deleted = true
		return s.repo(tx).Insert(ctx, &next)
	})
}

// LoadFromFeed saves every candidate product from records. Parse errors and
// invalid products are logged and skipped; storage failures abort the import.
func (s *ProductService) LoadFromFeed(ctx context.Context, records iter.Seq2[models.Product, error]) (ImportReport, error) {
	var report ImportReport
	for p, err := range records {
		if err != nil {
			s.log.Warn(ctx, "product record skipped", "error", err)
			report.Skipped++
			continue
		}
		if _, err := s.Save(ctx, p); err != nil {
			if errors.Is(err, common.ErrValidation) || errors.Is(err, common.ErrDuplicate) {
				s.log.Warn(ctx, "product record skipped", "product", p.Name, "error", err)
				report.Skipped++
				continue
			}
			return report, err
		}
		report.Imported++
	}
	s.log.Info(ctx, "product feed loaded", "imported", report.Imported, "skipped", report.Skipped)
	return report, nil
}

func (s *ProductService) mutate(ctx context.Context, id string, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("product id is empty: %w", common.ErrValidation)
	}
	unlock, err := s.locker.Lock(ctx, locks.Key("product", id))
	if err != nil {
		return err
	}
	defer unlock()
	return dbx.WithTx(ctx, s.db, nil, fn)
}

func (s *ProductService) current(ctx context.Context, db dbx.DBTX, id string) (*models.Product, error) {
	p, err := s.repo(db).Latest(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Deleted {
		return nil, fmt.Errorf("product %s: %w", id, common.ErrNotFound)
	}
	return p, nil
}

func liveProducts(all []models.Product) []models.Product {
	out := make([]models.Product, 0, len(all))
	for _, p := range all {
		if !p.Deleted {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
