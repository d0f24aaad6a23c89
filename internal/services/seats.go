package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"sort"
	"time"

	"github.com/dmitrijs2005/cinepos/internal/common"
	"github.com/dmitrijs2005/cinepos/internal/dbx"
	"github.com/dmitrijs2005/cinepos/internal/locks"
	"github.com/dmitrijs2005/cinepos/internal/models"
	"github.com/dmitrijs2005/cinepos/internal/repositories/repomanager"
	"github.com/dmitrijs2005/cinepos/internal/repositories/seats"
)

// SeatService owns the seat lifecycle and the occupancy state machine.
type SeatService struct {
	deps
}

func NewSeatService(db *sql.DB, rm repomanager.RepositoryManager, opts ...Option) *SeatService {
	return &SeatService{deps: newDeps(db, rm, opts)}
}

func (s *SeatService) repo(db dbx.DBTX) seats.Repository {
	return s.repomanager.Seats(db)
}

// FindAll returns every current, non-deleted seat in grid order.
func (s *SeatService) FindAll(ctx context.Context) ([]models.Seat, error) {
	all, err := s.repo(s.db).All(ctx)
	if err != nil {
		return nil, err
	}
	return liveSeats(all), nil
}

// FindAllAsOf returns every seat as it was at at, skipping seats that did
// not exist yet or were deleted by then.
func (s *SeatService) FindAllAsOf(ctx context.Context, at time.Time) ([]models.Seat, error) {
	all, err := s.repo(s.db).AllAsOf(ctx, at)
	if err != nil {
		return nil, err
	}
	return liveSeats(all), nil
}

// FindBookable returns the seats that can currently be offered to a customer.
func (s *SeatService) FindBookable(ctx context.Context) ([]models.Seat, error) {
	all, err := s.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, seat := range all {
		if seat.Bookable() {
			out = append(out, seat)
		}
	}
	return out, nil
}

func (s *SeatService) FindByID(ctx context.Context, id string) (*models.Seat, error) {
	return s.current(ctx, s.db, id)
}

func (s *SeatService) FindAsOf(ctx context.Context, id string, at time.Time) (*models.Seat, error) {
	id, err := normalizeSeatID(id)
	if err != nil {
		return nil, err
	}
	seat, err := s.repo(s.db).AsOf(ctx, id, at)
	if err != nil {
		return nil, err
	}
	if seat.Deleted {
		return nil, fmt.Errorf("seat %s: %w", id, common.ErrNotFound)
	}
	return seat, nil
}

// Reserve moves a FREE, ACTIVE seat to RESERVED.
func (s *SeatService) Reserve(ctx context.Context, id string) (*models.Seat, error) {
	return s.transition(ctx, id, models.OccupancyReserved)
}

// Occupy moves a FREE, ACTIVE seat to OCCUPIED.
func (s *SeatService) Occupy(ctx context.Context, id string) (*models.Seat, error) {
	return s.transition(ctx, id, models.OccupancyOccupied)
}

// Release frees a RESERVED or OCCUPIED seat.
func (s *SeatService) Release(ctx context.Context, id string) (*models.Seat, error) {
	return s.transition(ctx, id, models.OccupancyFree)
}

func (s *SeatService) transition(ctx context.Context, id string, to models.Occupancy) (*models.Seat, error) {
	var out *models.Seat
	err := s.mutate(ctx, id, func(ctx context.Context, tx dbx.DBTX) error {
		seat, err := s.transitionTx(ctx, tx, id, to)
		out = seat
		return err
	})
	return out, err
}

// transitionTx applies an occupancy change within tx. The caller holds the
// seat lock.
func (s *SeatService) transitionTx(ctx context.Context, tx dbx.DBTX, id string, to models.Occupancy) (*models.Seat, error) {
	cur, err := s.current(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if to != models.OccupancyFree && cur.Status != models.SeatActive {
		return nil, fmt.Errorf("seat %s is %s: %w", cur.ID, cur.Status, common.ErrInvalidState)
	}
	if !cur.Occupancy.CanTransition(to) {
		return nil, fmt.Errorf("seat %s: %s -> %s: %w", cur.ID, cur.Occupancy, to, common.ErrInvalidState)
	}

	next := *cur
	next.Meta = cur.Meta.Next(s.now())
	next.Occupancy = to
	if err := s.repo(tx).Insert(ctx, &next); err != nil {
		return nil, err
	}

	s.log.Debug(ctx, "seat occupancy changed", "seat", next.ID, "from", cur.Occupancy, "to", to, "version", next.Version)
	return &next, nil
}

// SetStatus changes the operational status of a seat, e.g. for maintenance.
func (s *SeatService) SetStatus(ctx context.Context, id string, status models.SeatStatus) (*models.Seat, error) {
	status, err := models.ParseSeatStatus(string(status))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrValidation, err)
	}

	var out *models.Seat
	err = s.mutate(ctx, id, func(ctx context.Context, tx dbx.DBTX) error {
		cur, err := s.current(ctx, tx, id)
		if err != nil {
			return err
		}
		if cur.Status == status {
			out = cur
			return nil
		}
		next := *cur
		next.Meta = cur.Meta.Next(s.now())
		next.Status = status
		if err := s.repo(tx).Insert(ctx, &next); err != nil {
			return err
		}
		out = &next
		return nil
	})
	return out, err
}

// SoftDelete appends a deleted version; history stays queryable.
func (s *SeatService) SoftDelete(ctx context.Context, id string) error {
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

// Save stores a new seat. A seat whose id already has a live version is
// rejected with common.ErrDuplicate; a previously deleted id is revived.
func (s *SeatService) Save(ctx context.Context, seat models.Seat) (*models.Seat, error) {
	if err := validateSeat(&seat); err != nil {
		return nil, err
	}

	err := s.mutate(ctx, seat.ID, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repo(tx)
		now := s.now()

		prev, err := repo.Latest(ctx, seat.ID)
		switch {
		case err == nil && !prev.Deleted:
			return fmt.Errorf("seat %s: %w", seat.ID, common.ErrDuplicate)
		case err == nil:
			seat.Meta = prev.Meta.Next(now)
			seat.CreatedAt = seat.UpdatedAt
			seat.Deleted = false
		case errors.Is(err, common.ErrNotFound):
			seat.Meta = models.NewMeta(seat.ID, now)
		default:
			return err
		}
		return repo.Insert(ctx, &seat)
	})
	if err != nil {
		return nil, err
	}
	return &seat, nil
}

// EnsureGrid seeds the full A1–E7 grid when no seat has ever been stored.
// Row E holds the VIP seats. It returns how many seats were created.
func (s *SeatService) EnsureGrid(ctx context.Context) (int, error) {
	existing, err := s.repo(s.db).All(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}

	n := 0
	for _, id := range models.GridSeatIDs() {
		kind := models.SeatNormal
		if id[0] == models.SeatRows[len(models.SeatRows)-1] {
			kind = models.SeatVIP
		}
		_, err := s.Save(ctx, models.Seat{
			Meta:      models.Meta{ID: id},
			Status:    models.SeatActive,
			Occupancy: models.OccupancyFree,
			Kind:      kind,
		})
		if err != nil && !errors.Is(err, common.ErrDuplicate) {
			return n, err
		}
		if err == nil {
			n++
		}
	}
	s.log.Info(ctx, "seat grid created", "seats", n)
	return n, nil
}

// LoadFromFeed saves every candidate seat from records. Parse errors,
// invalid seats and duplicates are logged and skipped; storage failures
// abort the import.
func (s *SeatService) LoadFromFeed(ctx context.Context, records iter.Seq2[models.Seat, error]) (ImportReport, error) {
	var report ImportReport
	for seat, err := range records {
		if err != nil {
			s.log.Warn(ctx, "seat record skipped", "error", err)
			report.Skipped++
			continue
		}
		if _, err := s.Save(ctx, seat); err != nil {
			if errors.Is(err, common.ErrValidation) || errors.Is(err, common.ErrDuplicate) {
				s.log.Warn(ctx, "seat record skipped", "seat", seat.ID, "error", err)
				report.Skipped++
				continue
			}
			return report, err
		}
		report.Imported++
	}
	s.log.Info(ctx, "seat feed loaded", "imported", report.Imported, "skipped", report.Skipped)
	return report, nil
}

// mutate runs fn in a transaction while holding the lock of seat id.
func (s *SeatService) mutate(ctx context.Context, id string, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	id, err := normalizeSeatID(id)
	if err != nil {
		return err
	}
	unlock, err := s.locker.Lock(ctx, locks.Key("seat", id))
	if err != nil {
		return err
	}
	defer unlock()
	return dbx.WithTx(ctx, s.db, nil, fn)
}

// current returns the live version of seat id, or common.ErrNotFound.
func (s *SeatService) current(ctx context.Context, db dbx.DBTX, id string) (*models.Seat, error) {
	id, err := normalizeSeatID(id)
	if err != nil {
		return nil, err
	}
	seat, err := s.repo(db).Latest(ctx, id)
	if err != nil {
		return nil, err
	}
	if seat.Deleted {
		return nil, fmt.Errorf("seat %s: %w", id, common.ErrNotFound)
	}
	return seat, nil
}

func normalizeSeatID(id string) (string, error) {
	norm, err := models.ParseSeatID(id)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrValidation, err)
	}
	return norm, nil
}

func validateSeat(seat *models.Seat) error {
	id, err := normalizeSeatID(seat.ID)
	if err != nil {
		return err
	}
	seat.ID = id
	if seat.Status, err = models.ParseSeatStatus(string(seat.Status)); err != nil {
		return fmt.Errorf("seat %s: %w: %v", id, common.ErrValidation, err)
	}
	if seat.Occupancy, err = models.ParseOccupancy(string(seat.Occupancy)); err != nil {
		return fmt.Errorf("seat %s: %w: %v", id, common.ErrValidation, err)
	}
	if seat.Kind, err = models.ParseSeatKind(string(seat.Kind)); err != nil {
		return fmt.Errorf("seat %s: %w: %v", id, common.ErrValidation, err)
	}
	return nil
}

// liveSeats drops deleted seats and sorts the rest row by row.
func liveSeats(all []models.Seat) []models.Seat {
	out := make([]models.Seat, 0, len(all))
	for _, seat := range all {
		if !seat.Deleted {
			out = append(out, seat)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Row() != out[j].Row() {
			return out[i].Row() < out[j].Row()
		}
		return out[i].Column() < out[j].Column()
	})
	return out
}
