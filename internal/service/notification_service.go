package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/juju/clock"

	"github.com/d60-Lab/college-connect/internal/metrics"
	"github.com/d60-Lab/college-connect/internal/model"
	"github.com/d60-Lab/college-connect/internal/repository"
)

// PushInput 一条待写入的通知
type PushInput struct {
	OwnerID        string
	Type           model.NotificationType
	Title          string
	Message        string
	FromUser       string
	PostID         string
	ConversationID string
}

// NotificationService 通知扇出：只追加，拥有者只读或标记已读
type NotificationService interface {
	Push(ctx context.Context, in PushInput) (*model.Notification, error)
	// PushOnce 使用固定 ID，已存在时不重复写入
	PushOnce(ctx context.Context, id string, in PushInput) (bool, error)
	ListAll(ctx context.Context, ownerID string) ([]*model.Notification, error)
	MarkRead(ctx context.Context, ownerID, id string) (*model.Notification, error)
	MarkAllRead(ctx context.Context, ownerID string) (int, error)
	UnreadCount(ctx context.Context, ownerID string) (int, error)
}

type notificationService struct {
	repo    repository.NotificationRepository
	metrics metrics.Recorder
	clock   clock.Clock
}

func NewNotificationService(repo repository.NotificationRepository, rec metrics.Recorder, clk clock.Clock) NotificationService {
	return &notificationService{repo: repo, metrics: rec, clock: clk}
}

func (s *notificationService) build(id string, in PushInput) *model.Notification {
	return &model.Notification{
		ID:             id,
		UserID:         in.OwnerID,
		Type:           in.Type,
		Title:          in.Title,
		FromUser:       in.FromUser,
		Message:        in.Message,
		PostID:         in.PostID,
		ConversationID: in.ConversationID,
		CreatedAt:      s.clock.Now().UTC(),
	}
}

func (s *notificationService) Push(ctx context.Context, in PushInput) (*model.Notification, error) {
	if in.OwnerID == "" || in.Type == "" {
		return nil, invalid("notification owner and type are required")
	}
	n := s.build(newID(), in)
	if err := s.repo.Save(ctx, n); err != nil {
		return nil, fmt.Errorf("save notification: %w", err)
	}
	s.metrics.NotificationPushed(string(in.Type))
	return n, nil
}

func (s *notificationService) PushOnce(ctx context.Context, id string, in PushInput) (bool, error) {
	if in.OwnerID == "" || in.Type == "" || id == "" {
		return false, invalid("notification id, owner and type are required")
	}
	created, err := s.repo.CreateIfAbsent(ctx, s.build(id, in))
	if err != nil {
		return false, fmt.Errorf("create notification: %w", err)
	}
	if created {
		s.metrics.NotificationPushed(string(in.Type))
	}
	return created, nil
}

func (s *notificationService) ListAll(ctx context.Context, ownerID string) ([]*model.Notification, error) {
	list, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	sortByTime(list,
		func(n *model.Notification) time.Time { return n.CreatedAt },
		func(n *model.Notification) string { return n.ID },
		true)
	return list, nil
}

func (s *notificationService) MarkRead(ctx context.Context, ownerID, id string) (*model.Notification, error) {
	n, err := s.repo.Get(ctx, ownerID, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("Notification not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get notification: %w", err)
	}
	if n.Read {
		return n, nil
	}
	n.Read = true
	if err := s.repo.Save(ctx, n); err != nil {
		return nil, fmt.Errorf("save notification: %w", err)
	}
	return n, nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, ownerID string) (int, error) {
	list, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return 0, fmt.Errorf("list notifications: %w", err)
	}
	updated := 0
	for _, n := range list {
		if n.Read {
			continue
		}
		n.Read = true
		if err := s.repo.Save(ctx, n); err != nil {
			return updated, fmt.Errorf("save notification: %w", err)
		}
		updated++
	}
	return updated, nil
}

func (s *notificationService) UnreadCount(ctx context.Context, ownerID string) (int, error) {
	list, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return 0, fmt.Errorf("list notifications: %w", err)
	}
	count := 0
	for _, n := range list {
		if !n.Read {
			count++
		}
	}
	return count, nil
}
