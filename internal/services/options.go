package services

import (
	"database/sql"
	"time"

	"github.com/dmitrijs2005/cinepos/internal/locks"
	"github.com/dmitrijs2005/cinepos/internal/logging"
	"github.com/dmitrijs2005/cinepos/internal/repositories/repomanager"
)

// deps are the collaborators every service shares.
type deps struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	locker      locks.Locker
	log         logging.Logger
	now         func() time.Time
	exporter    ReceiptExporter
}

// Option customizes a service at construction time.
type Option func(*deps)

// WithLocker sets the per-id locker. Services that must see each other's
// locks need the same Locker.
func WithLocker(l locks.Locker) Option {
	return func(d *deps) { d.locker = l }
}

func WithLogger(l logging.Logger) Option {
	return func(d *deps) { d.log = l }
}

// WithClock replaces time.Now as the source of version timestamps.
func WithClock(now func() time.Time) Option {
	return func(d *deps) { d.now = now }
}

// WithReceiptExporter sets where SaleService.Export sends committed sales.
func WithReceiptExporter(e ReceiptExporter) Option {
	return func(d *deps) { d.exporter = e }
}

func newDeps(db *sql.DB, rm repomanager.RepositoryManager, opts []Option) deps {
	d := deps{
		db:          db,
		repomanager: rm,
		locker:      locks.NewKeyedMutex(),
		log:         logging.Discard(),
		now:         func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(&d)
	}
	return d
}

// ImportReport summarizes a best-effort feed import.
type ImportReport struct {
	Imported int
	Skipped  int
}
