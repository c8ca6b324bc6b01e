package repository

import (
	"adaudit/features/accounts"
	"context"
	"errors"
)

var ErrAccountNotFound = errors.New("account not found")

type AccountRepository interface {
	List(ctx context.Context) ([]accounts.Account, error)
	GetByID(ctx context.Context, id string) (*accounts.Account, error)
	Save(ctx context.Context, account accounts.Account) error
	Delete(ctx context.Context, id string) error
}
