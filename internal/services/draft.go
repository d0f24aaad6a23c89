package services

import (
	"sync"
	"time"

	"github.com/dmitrijs2005/cinepos/internal/models"
	"github.com/shopspring/decimal"
)

// MaxDraftProducts caps how many distinct products one sale may carry.
const MaxDraftProducts = 3

// DraftState tracks a draft through its short life.
type DraftState int

const (
	DraftOpen DraftState = iota
	DraftCommitted
	DraftAborted
)

func (s DraftState) String() string {
	switch s {
	case DraftOpen:
		return "open"
	case DraftCommitted:
		return "committed"
	case DraftAborted:
		return "aborted"
	}
	return "unknown"
}

// Draft is a sale being assembled. It is not persisted until committed;
// stock for its lines is already taken from the products.
type Draft struct {
	mu sync.Mutex

	ID        string
	Account   models.Account
	Seat      models.Seat
	StartedAt time.Time

	lines []models.SaleLine
	state DraftState
}

// Lines returns a copy of the draft lines.
func (d *Draft) Lines() []models.SaleLine {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]models.SaleLine(nil), d.lines...)
}

func (d *Draft) State() DraftState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Total is what the customer would pay if the draft were committed now.
func (d *Draft) Total() decimal.Decimal {
	d.mu.Lock()
	defer d.mu.Unlock()
	return models.Sale{Seat: d.Seat, Lines: d.lines}.Total()
}

func (d *Draft) lineIndex(productID string) int {
	for i, l := range d.lines {
		if l.Product.ID == productID {
			return i
		}
	}
	return -1
}
