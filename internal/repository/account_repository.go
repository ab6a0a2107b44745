package repository

import (
	"context"
	"strings"

	"github.com/d60-Lab/college-connect/internal/model"
)

type AccountRepository interface {
	GetByEmail(ctx context.Context, email string) (*model.Account, error)
	Create(ctx context.Context, a *model.Account) (bool, error)
}

type accountRepository struct{ store Store }

func NewAccountRepository(store Store) AccountRepository { return &accountRepository{store: store} }

func normalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	return getJSON[model.Account](ctx, r.store, accountKey(normalizeEmail(email)))
}

func (r *accountRepository) Create(ctx context.Context, a *model.Account) (bool, error) {
	return createJSON(ctx, r.store, accountKey(normalizeEmail(a.Email)), a)
}
