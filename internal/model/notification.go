package model

import "time"

type NotificationType string

const (
	NotificationVerificationApproved NotificationType = "verification-approved"
	NotificationLike                 NotificationType = "like"
	NotificationComment              NotificationType = "comment"
	NotificationMessage              NotificationType = "message"
)

// Notification 通知，key: notification:{userId}:{id}
type Notification struct {
	ID             string           `json:"id"`
	UserID         string           `json:"userId"`
	Type           NotificationType `json:"type"`
	Title          string           `json:"title,omitempty"`
	FromUser       string           `json:"fromUser,omitempty"`
	Message        string           `json:"message"`
	PostID         string           `json:"postId,omitempty"`
	ConversationID string           `json:"conversationId,omitempty"`
	Read           bool             `json:"read"`
	CreatedAt      time.Time        `json:"createdAt"`
}
