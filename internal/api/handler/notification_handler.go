package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/college-connect/internal/middleware"
	"github.com/d60-Lab/college-connect/pkg/response"
)

// ListNotifications 通知列表
// @Summary 通知列表，按时间倒序
// @Tags 通知
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /notifications [get]
func (h *Handler) ListNotifications(c *gin.Context) {
	list, err := h.notifications.ListAll(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"notifications": list})
}

// MarkNotificationRead 标记已读
// @Summary 标记单条通知已读
// @Tags 通知
// @Produce json
// @Security BearerAuth
// @Param id path string true "通知 ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} response.ErrorBody
// @Router /notifications/{id}/read [post]
func (h *Handler) MarkNotificationRead(c *gin.Context) {
	n, err := h.notifications.MarkRead(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"notification": n})
}

// MarkAllNotificationsRead 全部已读
// @Summary 全部标记已读
// @Tags 通知
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /notifications/read-all [post]
func (h *Handler) MarkAllNotificationsRead(c *gin.Context) {
	n, err := h.notifications.MarkAllRead(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"updated": n})
}

// UnreadNotificationCount 未读数
// @Summary 未读通知数
// @Tags 通知
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /notifications/unread-count [get]
func (h *Handler) UnreadNotificationCount(c *gin.Context) {
	n, err := h.notifications.UnreadCount(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"count": n})
}
