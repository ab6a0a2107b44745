package repository

import (
	"context"

	"github.com/d60-Lab/college-connect/internal/model"
)

type NotificationRepository interface {
	Get(ctx context.Context, ownerID, id string) (*model.Notification, error)
	Save(ctx context.Context, n *model.Notification) error
	// CreateIfAbsent 用于固定 ID 的通知，重复写入不覆盖已读状态
	CreateIfAbsent(ctx context.Context, n *model.Notification) (bool, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*model.Notification, error)
}

type notificationRepository struct{ store Store }

func NewNotificationRepository(store Store) NotificationRepository {
	return &notificationRepository{store: store}
}

func (r *notificationRepository) Get(ctx context.Context, ownerID, id string) (*model.Notification, error) {
	return getJSON[model.Notification](ctx, r.store, notificationKey(ownerID, id))
}

func (r *notificationRepository) Save(ctx context.Context, n *model.Notification) error {
	return putJSON(ctx, r.store, notificationKey(n.UserID, n.ID), n)
}

func (r *notificationRepository) CreateIfAbsent(ctx context.Context, n *model.Notification) (bool, error) {
	return createJSON(ctx, r.store, notificationKey(n.UserID, n.ID), n)
}

func (r *notificationRepository) ListByOwner(ctx context.Context, ownerID string) ([]*model.Notification, error) {
	return scanJSON[model.Notification](ctx, r.store, notificationPrefix(ownerID))
}
