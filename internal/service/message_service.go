package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/juju/clock"
	"go.uber.org/zap"

	"github.com/d60-Lab/college-connect/internal/metrics"
	"github.com/d60-Lab/college-connect/internal/model"
	"github.com/d60-Lab/college-connect/internal/repository"
	"github.com/d60-Lab/college-connect/pkg/logger"
)

const messagePreviewLen = 50

// ConversationID 双方各自计算即可得到同一个 ID
func ConversationID(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return "conv_" + a + "_" + b
}

// MessagingOptions 私信行为配置
type MessagingOptions struct {
	PollInterval    time.Duration
	NotifyOnMessage bool
}

// MessageService 一对一私信；客户端按 PollInterval 轮询拉取
type MessageService interface {
	StartConversation(ctx context.Context, userA, userB string) (string, error)
	ListConversations(ctx context.Context, userID string) ([]*model.Conversation, error)
	// ListMessages since 非零时只返回其后的消息；调用者必须是会话参与者
	ListMessages(ctx context.Context, callerID, conversationID string, since time.Time) ([]*model.Message, error)
	Send(ctx context.Context, conversationID, senderID, recipientID, content string) (*model.Message, error)
	MarkConversationRead(ctx context.Context, userID, conversationID string) (*model.Conversation, error)
	PollInterval() time.Duration
}

type messageService struct {
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
	users         repository.UserRepository
	notifications NotificationService
	metrics       metrics.Recorder
	clock         clock.Clock
	sanitizer     *textSanitizer
	opts          MessagingOptions
}

func NewMessageService(
	conversations repository.ConversationRepository,
	messages repository.MessageRepository,
	users repository.UserRepository,
	notifications NotificationService,
	rec metrics.Recorder,
	clk clock.Clock,
	opts MessagingOptions,
) MessageService {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 3 * time.Second
	}
	return &messageService{
		conversations: conversations,
		messages:      messages,
		users:         users,
		notifications: notifications,
		metrics:       rec,
		clock:         clk,
		sanitizer:     newTextSanitizer(),
		opts:          opts,
	}
}

func (s *messageService) PollInterval() time.Duration { return s.opts.PollInterval }

func (s *messageService) profile(ctx context.Context, userID string) (*model.UserProfile, error) {
	p, err := s.users.Get(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("User not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

func summaryFor(convID, ownerID string, other *model.UserProfile) *model.Conversation {
	return &model.Conversation{
		ID:                      convID,
		UserID:                  ownerID,
		OtherUserID:             other.ID,
		OtherUserName:           other.FullName,
		OtherUserProfilePicture: other.ProfilePicture,
		OtherUserDepartment:     other.Department,
	}
}

func (s *messageService) StartConversation(ctx context.Context, userA, userB string) (string, error) {
	if strings.TrimSpace(userB) == "" {
		return "", invalid("Recipient is required")
	}
	if userA == userB {
		return "", invalid("Cannot start a conversation with yourself")
	}
	a, err := s.profile(ctx, userA)
	if err != nil {
		return "", err
	}
	b, err := s.profile(ctx, userB)
	if err != nil {
		return "", err
	}

	convID := ConversationID(userA, userB)
	// 已有摘要保持不变，避免覆盖未读状态与最后一条消息
	if _, err := s.conversations.CreateIfAbsent(ctx, summaryFor(convID, userA, b)); err != nil {
		return "", fmt.Errorf("create conversation summary: %w", err)
	}
	if _, err := s.conversations.CreateIfAbsent(ctx, summaryFor(convID, userB, a)); err != nil {
		return "", fmt.Errorf("create conversation summary: %w", err)
	}
	return convID, nil
}

func (s *messageService) ListConversations(ctx context.Context, userID string) ([]*model.Conversation, error) {
	list, err := s.conversations.ListByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	sortByTime(list,
		func(c *model.Conversation) time.Time { return c.LastMessageAt },
		func(c *model.Conversation) string { return c.ID },
		true)
	return list, nil
}

// ownSummary 调用者在该会话下的摘要；不存在视为无权访问
func (s *messageService) ownSummary(ctx context.Context, userID, conversationID string) (*model.Conversation, error) {
	c, err := s.conversations.Get(ctx, userID, conversationID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("Conversation not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	return c, nil
}

func (s *messageService) ListMessages(ctx context.Context, callerID, conversationID string, since time.Time) ([]*model.Message, error) {
	if _, err := s.ownSummary(ctx, callerID, conversationID); err != nil {
		return nil, err
	}
	all, err := s.messages.ListByConversation(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	out := all
	if !since.IsZero() {
		out = make([]*model.Message, 0, len(all))
		for _, m := range all {
			if m.CreatedAt.After(since) {
				out = append(out, m)
			}
		}
	}
	sortByTime(out,
		func(m *model.Message) time.Time { return m.CreatedAt },
		func(m *model.Message) string { return m.ID },
		false)
	return out, nil
}

func (s *messageService) Send(ctx context.Context, conversationID, senderID, recipientID, content string) (*model.Message, error) {
	if s.sanitizer.Blank(content) {
		return nil, invalid("Message content is required")
	}
	if strings.TrimSpace(recipientID) == "" {
		return nil, invalid("Recipient is required")
	}
	if senderID == recipientID || conversationID != ConversationID(senderID, recipientID) {
		return nil, invalid("Conversation does not match participants")
	}
	sender, err := s.profile(ctx, senderID)
	if err != nil {
		return nil, err
	}
	recipient, err := s.profile(ctx, recipientID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	m := &model.Message{
		ID:             newID(),
		ConversationID: conversationID,
		SenderID:       senderID,
		RecipientID:    recipientID,
		Content:        content,
		CreatedAt:      now,
	}
	if err := s.messages.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}

	if err := s.touchSummary(ctx, conversationID, senderID, recipient, content, now, false); err != nil {
		return nil, err
	}
	if err := s.touchSummary(ctx, conversationID, recipientID, sender, content, now, true); err != nil {
		return nil, err
	}
	s.metrics.MessageSent()

	if s.opts.NotifyOnMessage {
		if _, err := s.notifications.Push(ctx, PushInput{
			OwnerID:        recipientID,
			Type:           model.NotificationMessage,
			FromUser:       sender.FullName,
			Message:        fmt.Sprintf("%s: %s", sender.FullName, truncate(content, messagePreviewLen)),
			ConversationID: conversationID,
		}); err != nil {
			logger.Warn("message notification failed", zap.String("conversation", conversationID), zap.Error(err))
		}
	}
	return m, nil
}

// touchSummary 更新 owner 一侧的最后消息，缺失时补建
func (s *messageService) touchSummary(ctx context.Context, convID, ownerID string, other *model.UserProfile, content string, at time.Time, unread bool) error {
	c, err := s.conversations.Get(ctx, ownerID, convID)
	if errors.Is(err, repository.ErrNotFound) {
		c = summaryFor(convID, ownerID, other)
	} else if err != nil {
		return fmt.Errorf("get conversation: %w", err)
	}
	// 对方资料可能已更新，每次发送都刷新
	c.OtherUserName = other.FullName
	c.OtherUserProfilePicture = other.ProfilePicture
	c.OtherUserDepartment = other.Department
	c.LastMessage = content
	c.LastMessageAt = at
	c.Unread = unread
	if err := s.conversations.Save(ctx, c); err != nil {
		return fmt.Errorf("save conversation: %w", err)
	}
	return nil
}

func (s *messageService) MarkConversationRead(ctx context.Context, userID, conversationID string) (*model.Conversation, error) {
	c, err := s.ownSummary(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}
	if !c.Unread {
		return c, nil
	}
	c.Unread = false
	if err := s.conversations.Save(ctx, c); err != nil {
		return nil, fmt.Errorf("save conversation: %w", err)
	}
	return c, nil
}
