package repository

// key 前缀约定，每类记录只写自己的前缀
const (
	prefixUser         = "user:"
	prefixDisplayID    = "displayid:"
	prefixAccount      = "account:"
	prefixVerification = "verification:"
	prefixPost         = "post:"
	prefixComment      = "comment:"
	prefixNotification = "notification:"
	prefixConversation = "conversation:"
	prefixMessage      = "message:"
)

func userKey(id string) string { return prefixUser + id }
func displayIDKey(displayID string) string { return prefixDisplayID + displayID }
func accountKey(email string) string { return prefixAccount + email }
func verificationKey(id string) string { return prefixVerification + id }
func postKey(id string) string { return prefixPost + id }

func commentPrefix(postID string) string { return prefixComment + postID + ":" }
func commentKey(postID, commentID string) string { return commentPrefix(postID) + commentID }

func notificationPrefix(ownerID string) string { return prefixNotification + ownerID + ":" }
func notificationKey(ownerID, id string) string { return notificationPrefix(ownerID) + id }
func conversationPrefix(ownerID string) string { return prefixConversation + ownerID + ":" }
func conversationKey(ownerID, id string) string { return conversationPrefix(ownerID) + id }
func messagePrefix(conversationID string) string { return prefixMessage + conversationID + ":" }
func messageKey(conversationID, id string) string {
	return messagePrefix(conversationID) + id
}
