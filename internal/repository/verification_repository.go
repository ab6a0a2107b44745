package repository

import (
	"context"

	"github.com/d60-Lab/college-connect/internal/model"
)

type VerificationRepository interface {
	Get(ctx context.Context, userID string) (*model.VerificationRecord, error)
	Save(ctx context.Context, rec *model.VerificationRecord) error
	List(ctx context.Context) ([]*model.VerificationRecord, error)
}

type verificationRepository struct{ store Store }

func NewVerificationRepository(store Store) VerificationRepository {
	return &verificationRepository{store: store}
}

func (r *verificationRepository) Get(ctx context.Context, userID string) (*model.VerificationRecord, error) {
	return getJSON[model.VerificationRecord](ctx, r.store, verificationKey(userID))
}

func (r *verificationRepository) Save(ctx context.Context, rec *model.VerificationRecord) error {
	return putJSON(ctx, r.store, verificationKey(rec.UserID), rec)
}

func (r *verificationRepository) List(ctx context.Context) ([]*model.VerificationRecord, error) {
	return scanJSON[model.VerificationRecord](ctx, r.store, prefixVerification)
}
