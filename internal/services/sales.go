package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/cinepos/internal/common"
	"github.com/dmitrijs2005/cinepos/internal/dbx"
	"github.com/dmitrijs2005/cinepos/internal/locks"
	"github.com/dmitrijs2005/cinepos/internal/models"
	"github.com/dmitrijs2005/cinepos/internal/repositories/sales"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

// ReceiptExporter renders a committed sale somewhere durable and returns
// where it went.
type ReceiptExporter interface {
	Export(ctx context.Context, sale models.Sale) (string, error)
}

// SaleService orchestrates seats, products and accounts into sales:
// Draft → Committed → Cancelled.
type SaleService struct {
	deps
	seats    *SeatService
	products *ProductService
	accounts *AccountService
}

// NewSaleService builds a SaleService on top of the other managers. It
// shares the database, repositories, locker, logger and clock of seats
// unless opts override them.
func NewSaleService(seats *SeatService, products *ProductService, accounts *AccountService, opts ...Option) *SaleService {
	d := seats.deps
	for _, o := range opts {
		o(&d)
	}
	return &SaleService{deps: d, seats: seats, products: products, accounts: accounts}
}

func (s *SaleService) repo(db dbx.DBTX) sales.Repository {
	return s.repomanager.Sales(db)
}

// Begin opens a draft for account on seat. The seat must be ACTIVE and FREE.
func (s *SaleService) Begin(ctx context.Context, accountID, seatID string) (*Draft, error) {
	acc, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	seat, err := s.seats.FindByID(ctx, seatID)
	if err != nil {
		return nil, err
	}
	if !seat.Bookable() {
		return nil, fmt.Errorf("seat %s is %s/%s: %w", seat.ID, seat.Status, seat.Occupancy, common.ErrSeatUnavailable)
	}

	d := &Draft{
		ID:        uuid.NewString(),
		Account:   *acc,
		Seat:      *seat,
		StartedAt: s.now(),
	}
	s.log.Debug(ctx, "draft started", "draft", d.ID, "account", acc.ID, "seat", seat.ID)
	return d, nil
}

// AddLine takes qty units of product from stock and books them on the draft.
// Lines are merged per product; a new line snapshots the current price.
func (s *SaleService) AddLine(ctx context.Context, d *Draft, productID string, qty int) (*models.SaleLine, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != DraftOpen {
		return nil, fmt.Errorf("draft %s is %s: %w", d.ID, d.state, common.ErrInvalidState)
	}
	if qty < 1 {
		return nil, fmt.Errorf("quantity %d: %w", qty, common.ErrValidation)
	}

	idx := d.lineIndex(productID)
	if idx < 0 && len(d.lines) >= MaxDraftProducts {
		return nil, fmt.Errorf("draft %s: %w: %w", d.ID, common.ErrInvalidState, common.ErrDraftLimit)
	}

	p, err := s.products.AdjustStock(ctx, productID, -qty)
	if err != nil {
		return nil, err
	}

	if idx >= 0 {
		d.lines[idx].Quantity += qty
		line := d.lines[idx]
		return &line, nil
	}

	snapshot := *p
	snapshot.Stock += qty
	line := models.SaleLine{
		Meta:      models.Meta{ID: uuid.NewString(), CreatedAt: s.now()},
		SaleID:    d.ID,
		Product:   snapshot,
		Quantity:  qty,
		UnitPrice: p.Price,
	}
	d.lines = append(d.lines, line)
	return &line, nil
}

// Commit occupies the seat and stores the sale with its lines in one
// transaction. If the seat was taken meanwhile it fails with
// common.ErrSeatUnavailable; stock taken by AddLine is not given back, use
// Abort for that.
func (s *SaleService) Commit(ctx context.Context, d *Draft) (*models.Sale, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != DraftOpen {
		return nil, fmt.Errorf("draft %s is %s: %w", d.ID, d.state, common.ErrInvalidState)
	}

	unlock, err := s.locker.Lock(ctx, locks.Key("seat", d.Seat.ID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	var sale models.Sale
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		active, err := s.repo(tx).BySeat(ctx, d.Seat.ID)
		if err != nil {
			return err
		}
		for _, other := range active {
			if !other.Deleted {
				return fmt.Errorf("seat %s is in sale %s: %w", d.Seat.ID, other.ID, common.ErrSeatUnavailable)
			}
		}

		acc, err := s.accounts.current(ctx, tx, d.Account.ID)
		if err != nil {
			return err
		}

		seat, err := s.seats.transitionTx(ctx, tx, d.Seat.ID, models.OccupancyOccupied)
		if err != nil {
			if errors.Is(err, common.ErrStorage) {
				return err
			}
			return fmt.Errorf("%w: %v", common.ErrSeatUnavailable, err)
		}

		now := s.now()
		sale = models.Sale{
			Meta:    models.NewMeta(d.ID, now),
			Account: *acc,
			Seat:    *seat,
		}
		for _, l := range d.lines {
			created := l.CreatedAt
			l.Meta = models.NewMeta(l.ID, now)
			l.CreatedAt = created
			l.SaleID = d.ID
			sale.Lines = append(sale.Lines, l)
		}
		return s.repo(tx).Insert(ctx, &sale)
	})
	if err != nil {
		s.log.Warn(ctx, "sale commit failed", "draft", d.ID, "seat", d.Seat.ID, "error", err)
		return nil, err
	}

	d.state = DraftCommitted
	s.log.Info(ctx, "sale committed", "sale", sale.ID, "account", sale.Account.ID, "seat", sale.Seat.ID,
		"lines", len(sale.Lines), "total", sale.Total().StringFixed(2))
	return &sale, nil
}

// Abort gives the stock of every draft line back and closes the draft.
// If some lines cannot be restored the draft stays open holding just those
// lines, so Abort can be retried.
func (s *SaleService) Abort(ctx context.Context, d *Draft) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != DraftOpen {
		return fmt.Errorf("draft %s is %s: %w", d.ID, d.state, common.ErrInvalidState)
	}

	var (
		errs   error
		unpaid []models.SaleLine
	)
	for _, l := range d.lines {
		if _, err := s.products.AdjustStock(ctx, l.Product.ID, l.Quantity); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("restore stock of %s: %w", l.Product.ID, err))
			unpaid = append(unpaid, l)
		}
	}
	d.lines = unpaid

	if errs != nil {
		s.log.Error(ctx, "draft abort incomplete", "draft", d.ID, "pending_lines", len(unpaid), "error", errs)
		return errs
	}
	d.state = DraftAborted
	s.log.Debug(ctx, "draft aborted", "draft", d.ID)
	return nil
}

// Cancel refunds a committed sale: the seat is freed, each line's stock is
// given back and the sale and its lines are soft-deleted. Everything happens
// in one transaction; if any step fails nothing is stored and the returned
// *CancelError lists each failed step. Seats and products deleted since the
// sale are skipped with a warning.
func (s *SaleService) Cancel(ctx context.Context, saleID string) (*models.Sale, error) {
	pre, err := s.live(ctx, s.db, saleID)
	if err != nil {
		return nil, err
	}

	keys := []string{locks.Key("sale", pre.ID), locks.Key("seat", pre.Seat.ID)}
	for _, l := range pre.Lines {
		keys = append(keys, locks.Key("product", l.Product.ID))
	}
	unlock, err := locks.LockAll(ctx, s.locker, keys...)
	if err != nil {
		return nil, err
	}
	defer unlock()

	log := s.log.With("sale", pre.ID)

	var cancelled models.Sale
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		cur, err := s.live(ctx, tx, saleID)
		if err != nil {
			return err
		}

		var errs error

		_, err = s.seats.transitionTx(ctx, tx, cur.Seat.ID, models.OccupancyFree)
		switch {
		case err == nil:
			log.Debug(ctx, "seat released", "seat", cur.Seat.ID)
		case errors.Is(err, common.ErrNotFound), errors.Is(err, common.ErrInvalidState):
			log.Warn(ctx, "seat not released", "seat", cur.Seat.ID, "error", err)
		default:
			errs = multierr.Append(errs, fmt.Errorf("release seat %s: %w", cur.Seat.ID, err))
		}

		for _, l := range cur.Lines {
			_, err := s.products.adjustStockTx(ctx, tx, l.Product.ID, l.Quantity)
			switch {
			case err == nil:
				log.Debug(ctx, "stock restored", "product", l.Product.ID, "quantity", l.Quantity)
			case errors.Is(err, common.ErrNotFound):
				log.Warn(ctx, "stock not restored", "product", l.Product.ID, "error", err)
			default:
				errs = multierr.Append(errs, fmt.Errorf("restore stock of %s: %w", l.Product.ID, err))
			}
		}

		now := s.now()
		cancelled = *cur
		cancelled.Meta = cur.Meta.Next(now)
		cancelled.Deleted = true
		cancelled.Lines = make([]models.SaleLine, 0, len(cur.Lines))
		for _, l := range cur.Lines {
			l.Meta = l.Meta.Next(now)
			l.Deleted = true
			cancelled.Lines = append(cancelled.Lines, l)
		}
		if err := s.repo(tx).Insert(ctx, &cancelled); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("mark sale deleted: %w", err))
		}

		if errs != nil {
			return &CancelError{SaleID: cur.ID, Err: errs}
		}
		return nil
	})
	if err != nil {
		log.Error(ctx, "sale cancel failed", "error", err)
		return nil, err
	}

	if err := s.hydrate(ctx, &cancelled, nil); err != nil {
		return nil, err
	}
	log.Info(ctx, "sale cancelled", "seat", cancelled.Seat.ID)
	return &cancelled, nil
}

// FindByID returns a current, non-cancelled sale.
func (s *SaleService) FindByID(ctx context.Context, id string) (*models.Sale, error) {
	sale, err := s.live(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if err := s.hydrate(ctx, sale, nil); err != nil {
		return nil, err
	}
	return sale, nil
}

// FindAsOf returns sale id as it stood at at.
func (s *SaleService) FindAsOf(ctx context.Context, id string, at time.Time) (*models.Sale, error) {
	sale, err := s.repo(s.db).AsOf(ctx, id, at)
	if err != nil {
		return nil, err
	}
	if sale.Deleted {
		return nil, fmt.Errorf("sale %s: %w", id, common.ErrNotFound)
	}
	sale.Lines = liveLines(sale.Lines)
	if err := s.hydrate(ctx, sale, &at); err != nil {
		return nil, err
	}
	return sale, nil
}

// FindAll returns every current, non-cancelled sale.
func (s *SaleService) FindAll(ctx context.Context) ([]models.Sale, error) {
	all, err := s.repo(s.db).All(ctx)
	if err != nil {
		return nil, err
	}
	return s.liveSales(ctx, all, nil)
}

// FindAllByDate returns the sales that were active at at.
func (s *SaleService) FindAllByDate(ctx context.Context, at time.Time) ([]models.Sale, error) {
	all, err := s.repo(s.db).AllAsOf(ctx, at)
	if err != nil {
		return nil, err
	}
	return s.liveSales(ctx, all, &at)
}

// FindByAccount returns the current, non-cancelled sales of an account.
func (s *SaleService) FindByAccount(ctx context.Context, accountID string) ([]models.Sale, error) {
	id, err := normalizeAccountID(accountID)
	if err != nil {
		return nil, err
	}
	all, err := s.repo(s.db).ByAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.liveSales(ctx, all, nil)
}

// Revenue sums seat prices and line totals of every sale active at at.
func (s *SaleService) Revenue(ctx context.Context, at time.Time) (decimal.Decimal, error) {
	list, err := s.FindAllByDate(ctx, at)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, sale := range list {
		total = total.Add(sale.Total())
	}
	return total, nil
}

// Export hands a committed sale to the receipt exporter. A failure is
// reported to the caller but leaves the sale untouched.
func (s *SaleService) Export(ctx context.Context, sale models.Sale) (string, error) {
	if s.exporter == nil {
		return "", nil
	}
	location, err := s.exporter.Export(ctx, sale)
	if err != nil {
		s.log.Warn(ctx, "receipt export failed", "sale", sale.ID, "error", err)
		return "", fmt.Errorf("export receipt of sale %s: %w", sale.ID, err)
	}
	s.log.Info(ctx, "receipt exported", "sale", sale.ID, "location", location)
	return location, nil
}

func (s *SaleService) live(ctx context.Context, db dbx.DBTX, id string) (*models.Sale, error) {
	sale, err := s.repo(db).Latest(ctx, id)
	if err != nil {
		return nil, err
	}
	if sale.Deleted {
		return nil, fmt.Errorf("sale %s: %w", id, common.ErrNotFound)
	}
	sale.Lines = liveLines(sale.Lines)
	return sale, nil
}

func (s *SaleService) liveSales(ctx context.Context, all []models.Sale, at *time.Time) ([]models.Sale, error) {
	out := make([]models.Sale, 0, len(all))
	for _, sale := range all {
		if sale.Deleted {
			continue
		}
		sale.Lines = liveLines(sale.Lines)
		if err := s.hydrate(ctx, &sale, at); err != nil {
			return nil, err
		}
		out = append(out, sale)
	}
	return out, nil
}

// hydrate replaces the account and seat references of sale with their
// current versions, or their versions as of at when at is set.
func (s *SaleService) hydrate(ctx context.Context, sale *models.Sale, at *time.Time) error {
	acc, err := s.accounts.repo(s.db).Latest(ctx, sale.Account.ID)
	switch {
	case err == nil:
		sale.Account = *acc
	case !errors.Is(err, common.ErrNotFound):
		return err
	}

	seats := s.seats.repo(s.db)
	var seat *models.Seat
	if at != nil {
		seat, err = seats.AsOf(ctx, sale.Seat.ID, *at)
	} else {
		seat, err = seats.Latest(ctx, sale.Seat.ID)
	}
	switch {
	case err == nil:
		sale.Seat = *seat
	case !errors.Is(err, common.ErrNotFound):
		return err
	}
	return nil
}

func liveLines(lines []models.SaleLine) []models.SaleLine {
	out := make([]models.SaleLine, 0, len(lines))
	for _, l := range lines {
		if !l.Deleted {
			out = append(out, l)
		}
	}
	return out
}
