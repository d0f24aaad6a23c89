package accounts

import (
	"context"
	"time"

	"github.com/dmitrijs2005/cinepos/internal/models"
)

type Repository interface {
	Insert(ctx context.Context, account *models.Account) error
	Latest(ctx context.Context, id string) (*models.Account, error)
	AsOf(ctx context.Context, id string, at time.Time) (*models.Account, error)
	All(ctx context.Context) ([]models.Account, error)
}
