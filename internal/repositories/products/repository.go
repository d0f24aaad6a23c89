package products

import (
	"context"
	"time"

	"github.com/dmitrijs2005/cinepos/internal/models"
)

type Repository interface {
	Insert(ctx context.Context, product *models.Product) error
	Latest(ctx context.Context, id string) (*models.Product, error)
	AsOf(ctx context.Context, id string, at time.Time) (*models.Product, error)
	All(ctx context.Context) ([]models.Product, error)
	AllAsOf(ctx context.Context, at time.Time) ([]models.Product, error)
	CountVersions(ctx context.Context, id string) (int64, error)
}
