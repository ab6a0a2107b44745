package repository

import (
	"context"

	"github.com/d60-Lab/college-connect/internal/model"
)

type UserRepository interface {
	Get(ctx context.Context, id string) (*model.UserProfile, error)
	// Create 仅在 user:{id} 不存在时写入
	Create(ctx context.Context, u *model.UserProfile) (bool, error)
	Save(ctx context.Context, u *model.UserProfile) error
	List(ctx context.Context) ([]*model.UserProfile, error)
	// ClaimDisplayID 占用展示 ID，已被占用返回 false
	ClaimDisplayID(ctx context.Context, displayID, id string) (bool, error)
	ResolveDisplayID(ctx context.Context, displayID string) (string, error)
	// ReleaseDisplayID 释放仍指向 id 的展示 ID
	ReleaseDisplayID(ctx context.Context, displayID, id string) error
}

type userRepository struct{ store Store }

func NewUserRepository(store Store) UserRepository { return &userRepository{store: store} }

func (r *userRepository) Get(ctx context.Context, id string) (*model.UserProfile, error) {
	return getJSON[model.UserProfile](ctx, r.store, userKey(id))
}

func (r *userRepository) Create(ctx context.Context, u *model.UserProfile) (bool, error) {
	return createJSON(ctx, r.store, userKey(u.ID), u)
}

func (r *userRepository) Save(ctx context.Context, u *model.UserProfile) error {
	return putJSON(ctx, r.store, userKey(u.ID), u)
}

func (r *userRepository) List(ctx context.Context) ([]*model.UserProfile, error) {
	users, err := scanJSON[model.UserProfile](ctx, r.store, prefixUser)
	if err != nil {
		return nil, err
	}
	out := users[:0]
	for _, u := range users {
		if u.ID != "" {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *userRepository) ClaimDisplayID(ctx context.Context, displayID, id string) (bool, error) {
	return r.store.SetIfAbsent(ctx, displayIDKey(displayID), []byte(id))
}

func (r *userRepository) ResolveDisplayID(ctx context.Context, displayID string) (string, error) {
	raw, err := r.store.Get(ctx, displayIDKey(displayID))
	if err != nil {
		return "", err
	}
	if len(raw) == 0 {
		return "", ErrNotFound
	}
	return string(raw), nil
}

func (r *userRepository) ReleaseDisplayID(ctx context.Context, displayID, id string) error {
	_, err := r.store.DeleteIfEquals(ctx, displayIDKey(displayID), []byte(id))
	return err
}
