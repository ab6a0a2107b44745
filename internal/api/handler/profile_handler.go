package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/college-connect/internal/middleware"
	"github.com/d60-Lab/college-connect/internal/model"
	"github.com/d60-Lab/college-connect/internal/service"
	"github.com/d60-Lab/college-connect/pkg/response"
)

// GetProfile 当前用户资料
// @Summary 获取自己的资料
// @Tags 资料
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /profile [get]
func (h *Handler) GetProfile(c *gin.Context) {
	p, err := h.profiles.Get(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"profile": p})
}

// CompleteProfile 完善资料
// @Summary 完善资料（院系、年级、简介、头像）
// @Tags 资料
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param department formData string true "院系"
// @Param year formData string true "年级"
// @Param bio formData string false "简介"
// @Param profilePicture formData file false "头像"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} response.ErrorBody
// @Router /profile/complete [post]
func (h *Handler) CompleteProfile(c *gin.Context) {
	pic, closeFn, err := formBlob(c, "profilePicture")
	if err != nil {
		response.BadRequest(c, "Invalid profile picture upload")
		return
	}
	defer closeFn()

	p, err := h.profiles.CompleteProfile(c.Request.Context(), middleware.UserID(c), service.CompleteProfileInput{
		Department: c.PostForm("department"),
		Year:       c.PostForm("year"),
		Bio:        c.PostForm("bio"),
		Picture:    pic,
	})
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"profile": p})
}

// GetUser 按展示 ID 或内部 ID 查看他人资料（仅公开字段）
// @Summary 查看用户
// @Tags 用户
// @Produce json
// @Security BearerAuth
// @Param userId path string true "展示 ID 或用户 ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} response.ErrorBody
// @Router /users/{userId} [get]
func (h *Handler) GetUser(c *gin.Context) {
	p, err := h.profiles.Lookup(c.Request.Context(), c.Param("userId"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"profile": p.Public()})
}

// SearchUsers 搜索用户
// @Summary 按展示 ID 或姓名搜索
// @Tags 用户
// @Produce json
// @Security BearerAuth
// @Param q query string true "关键字"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} response.ErrorBody
// @Router /users/search [get]
func (h *Handler) SearchUsers(c *gin.Context) {
	users, err := h.search.Search(c.Request.Context(), c.Query("q"), middleware.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	out := make([]model.PublicProfile, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	response.Success(c, gin.H{"users": out})
}
