package sales

import (
	"context"
	"time"

	"github.com/dmitrijs2005/cinepos/internal/models"
)

// Repository stores sales together with their lines. Loaded sales carry only
// the IDs of their account and seat; resolving those is up to the caller.
type Repository interface {
	// Insert writes the sale version and every line version in Lines.
	Insert(ctx context.Context, sale *models.Sale) error
	Latest(ctx context.Context, id string) (*models.Sale, error)
	AsOf(ctx context.Context, id string, at time.Time) (*models.Sale, error)
	All(ctx context.Context) ([]models.Sale, error)
	AllAsOf(ctx context.Context, at time.Time) ([]models.Sale, error)
	ByAccount(ctx context.Context, accountID string) ([]models.Sale, error)
	BySeat(ctx context.Context, seatID string) ([]models.Sale, error)
	CountVersions(ctx context.Context, id string) (int64, error)
}
