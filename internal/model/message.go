package model

import "time"

// Conversation 每个参与者各存一份视图，key: conversation:{userId}:{id}
type Conversation struct {
	ID                      string    `json:"id"`
	UserID                  string    `json:"userId"`
	OtherUserID             string    `json:"otherUserId"`
	OtherUserName           string    `json:"otherUserName"`
	OtherUserProfilePicture string    `json:"otherUserProfilePicture,omitempty"`
	OtherUserDepartment     string    `json:"otherUserDepartment,omitempty"`
	LastMessage             string    `json:"lastMessage"`
	LastMessageAt           time.Time `json:"lastMessageAt"`
	Unread                  bool      `json:"unread"`
}

// Message 私信，key: message:{conversationId}:{id}
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	SenderID       string    `json:"senderId"`
	RecipientID    string    `json:"recipientId"`
	Content        string    `json:"content"`
	Read           bool      `json:"read"`
	CreatedAt      time.Time `json:"createdAt"`
}
