package repository

import (
	"context"

	"github.com/d60-Lab/college-connect/internal/model"
)

type ConversationRepository interface {
	Get(ctx context.Context, ownerID, id string) (*model.Conversation, error)
	Save(ctx context.Context, c *model.Conversation) error
	CreateIfAbsent(ctx context.Context, c *model.Conversation) (bool, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*model.Conversation, error)
}

type conversationRepository struct{ store Store }

func NewConversationRepository(store Store) ConversationRepository {
	return &conversationRepository{store: store}
}

func (r *conversationRepository) Get(ctx context.Context, ownerID, id string) (*model.Conversation, error) {
	return getJSON[model.Conversation](ctx, r.store, conversationKey(ownerID, id))
}

func (r *conversationRepository) Save(ctx context.Context, c *model.Conversation) error {
	return putJSON(ctx, r.store, conversationKey(c.UserID, c.ID), c)
}

func (r *conversationRepository) CreateIfAbsent(ctx context.Context, c *model.Conversation) (bool, error) {
	return createJSON(ctx, r.store, conversationKey(c.UserID, c.ID), c)
}

func (r *conversationRepository) ListByOwner(ctx context.Context, ownerID string) ([]*model.Conversation, error) {
	return scanJSON[model.Conversation](ctx, r.store, conversationPrefix(ownerID))
}

type MessageRepository interface {
	Create(ctx context.Context, m *model.Message) error
	ListByConversation(ctx context.Context, conversationID string) ([]*model.Message, error)
}

type messageRepository struct{ store Store }

func NewMessageRepository(store Store) MessageRepository { return &messageRepository{store: store} }

func (r *messageRepository) Create(ctx context.Context, m *model.Message) error {
	return putJSON(ctx, r.store, messageKey(m.ConversationID, m.ID), m)
}

func (r *messageRepository) ListByConversation(ctx context.Context, conversationID string) ([]*model.Message, error) {
	return scanJSON[model.Message](ctx, r.store, messagePrefix(conversationID))
}
