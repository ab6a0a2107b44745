package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/college-connect/internal/middleware"
	"github.com/d60-Lab/college-connect/pkg/response"
)

type startConversationRequest struct {
	RecipientID string `json:"recipientId" binding:"required"`
}

type sendMessageRequest struct {
	Content     string `json:"content" binding:"required"`
	RecipientID string `json:"recipientId" binding:"required"`
}

// StartConversation 发起会话
// @Summary 发起（或打开）与某用户的会话
// @Tags 私信
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body startConversationRequest true "对方用户 ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /messages/start [post]
func (h *Handler) StartConversation(c *gin.Context) {
	var req startConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	id, err := h.messages.StartConversation(c.Request.Context(), middleware.UserID(c), req.RecipientID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"conversationId": id})
}

// ListConversations 会话列表
// @Summary 会话列表，按最后消息时间倒序
// @Tags 私信
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /messages/conversations [get]
func (h *Handler) ListConversations(c *gin.Context) {
	list, err := h.messages.ListConversations(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{
		"conversations":  list,
		"pollIntervalMs": h.messages.PollInterval().Milliseconds(),
	})
}

// ListMessages 会话消息
// @Summary 会话消息，按时间正序；since 用于增量轮询
// @Tags 私信
// @Produce json
// @Security BearerAuth
// @Param conversationId path string true "会话 ID"
// @Param since query string false "RFC3339 时间，只返回其后的消息"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /messages/{conversationId} [get]
func (h *Handler) ListMessages(c *gin.Context) {
	var since time.Time
	if raw := c.Query("since"); raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			response.BadRequest(c, "Invalid since timestamp")
			return
		}
		since = t
	}
	list, err := h.messages.ListMessages(c.Request.Context(), middleware.UserID(c), c.Param("conversationId"), since)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{
		"messages":       list,
		"serverTime":     h.opts.Now().UTC(),
		"pollIntervalMs": h.messages.PollInterval().Milliseconds(),
	})
}

// SendMessage 发送消息
// @Summary 发送私信
// @Tags 私信
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param conversationId path string true "会话 ID"
// @Param request body sendMessageRequest true "消息"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /messages/{conversationId} [post]
func (h *Handler) SendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	m, err := h.messages.Send(c.Request.Context(), c.Param("conversationId"), middleware.UserID(c), req.RecipientID, req.Content)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"message": m})
}

// MarkConversationRead 清除会话未读
// @Summary 标记会话已读
// @Tags 私信
// @Produce json
// @Security BearerAuth
// @Param conversationId path string true "会话 ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} response.ErrorBody
// @Router /messages/{conversationId}/read [post]
func (h *Handler) MarkConversationRead(c *gin.Context) {
	conv, err := h.messages.MarkConversationRead(c.Request.Context(), middleware.UserID(c), c.Param("conversationId"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"conversation": conv})
}
