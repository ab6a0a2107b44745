package repository

// Repositories 聚合所有基于同一 Store 的仓储
type Repositories struct {
	Store         Store
	Users         UserRepository
	Accounts      AccountRepository
	Verifications VerificationRepository
	Posts         PostRepository
	Comments      CommentRepository
	Notifications NotificationRepository
	Conversations ConversationRepository
	Messages      MessageRepository
}

func NewRepositories(store Store) *Repositories {
	return &Repositories{
		Store:         store,
		Users:         NewUserRepository(store),
		Accounts:      NewAccountRepository(store),
		Verifications: NewVerificationRepository(store),
		Posts:         NewPostRepository(store),
		Comments:      NewCommentRepository(store),
		Notifications: NewNotificationRepository(store),
		Conversations: NewConversationRepository(store),
		Messages:      NewMessageRepository(store),
	}
}
