package seats

import (
	"context"
	"time"

	"github.com/dmitrijs2005/cinepos/internal/models"
)

// Repository stores seat versions. Reads return deleted versions too; callers
// decide what a deleted seat means for them.
type Repository interface {
	Insert(ctx context.Context, seat *models.Seat) error
	Latest(ctx context.Context, id string) (*models.Seat, error)
	AsOf(ctx context.Context, id string, at time.Time) (*models.Seat, error)
	All(ctx context.Context) ([]models.Seat, error)
	AllAsOf(ctx context.Context, at time.Time) ([]models.Seat, error)
	CountVersions(ctx context.Context, id string) (int64, error)
}
