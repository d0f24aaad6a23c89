package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/cinepos/internal/common"
	"github.com/dmitrijs2005/cinepos/internal/dbx"
	"github.com/dmitrijs2005/cinepos/internal/locks"
	"github.com/dmitrijs2005/cinepos/internal/models"
	"github.com/dmitrijs2005/cinepos/internal/repositories/accounts"
	"github.com/dmitrijs2005/cinepos/internal/repositories/repomanager"
)

// AccountService owns customer identities.
type AccountService struct {
	deps
}

func NewAccountService(db *sql.DB, rm repomanager.RepositoryManager, opts ...Option) *AccountService {
	return &AccountService{deps: newDeps(db, rm, opts)}
}

func (s *AccountService) repo(db dbx.DBTX) accounts.Repository {
	return s.repomanager.Accounts(db)
}

func (s *AccountService) FindAll(ctx context.Context) ([]models.Account, error) {
	all, err := s.repo(s.db).All(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Account, 0, len(all))
	for _, a := range all {
		if !a.Deleted {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *AccountService) FindByID(ctx context.Context, id string) (*models.Account, error) {
	id, err := normalizeAccountID(id)
	if err != nil {
		return nil, err
	}
	return s.current(ctx, s.db, id)
}

// Create registers account id, stored uppercase. An id with a live version
// fails with common.ErrDuplicate; a deleted one is revived.
func (s *AccountService) Create(ctx context.Context, id string) (*models.Account, error) {
	id, err := normalizeAccountID(id)
	if err != nil {
		return nil, err
	}

	var acc models.Account
	err = s.mutate(ctx, id, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repo(tx)
		now := s.now()

		prev, err := repo.Latest(ctx, id)
		switch {
		case err == nil && !prev.Deleted:
			return fmt.Errorf("account %s: %w", id, common.ErrDuplicate)
		case err == nil:
			acc.Meta = prev.Meta.Next(now)
			acc.CreatedAt = acc.UpdatedAt
			acc.Deleted = false
		case errors.Is(err, common.ErrNotFound):
			acc.Meta = models.NewMeta(id, now)
		default:
			return err
		}
		return repo.Insert(ctx, &acc)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "account created", "account", id)
	return &acc, nil
}

func (s *AccountService) SoftDelete(ctx context.Context, id string) error {
	id, err := normalizeAccountID(id)
	if err != nil {
		return err
	}
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

func (s *AccountService) mutate(ctx context.Context, id string, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	unlock, err := s.locker.Lock(ctx, locks.Key("account", id))
	if err != nil {
		return err
	}
	defer unlock()
	return dbx.WithTx(ctx, s.db, nil, fn)
}

func (s *AccountService) current(ctx context.Context, db dbx.DBTX, id string) (*models.Account, error) {
	acc, err := s.repo(db).Latest(ctx, id)
	if err != nil {
		return nil, err
	}
	if acc.Deleted {
		return nil, fmt.Errorf("account %s: %w", id, common.ErrNotFound)
	}
	return acc, nil
}

func normalizeAccountID(id string) (string, error) {
	norm, err := models.NormalizeAccountID(id)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrValidation, err)
	}
	return norm, nil
}
