package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/college-connect/internal/middleware"
	"github.com/d60-Lab/college-connect/internal/service"
	"github.com/d60-Lab/college-connect/pkg/response"
)

type commentRequest struct {
	Content string `json:"content" binding:"required"`
}

// CreatePost 发帖（仅认证用户）
// @Summary 发帖
// @Tags 帖子
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param content formData string true "内容"
// @Param isCollegeCommunityOnly formData bool false "仅本校可见"
// @Param image formData file false "图片"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} response.ErrorBody
// @Failure 403 {object} response.ErrorBody
// @Router /posts [post]
func (h *Handler) CreatePost(c *gin.Context) {
	img, closeFn, err := formBlob(c, "image")
	if err != nil {
		response.BadRequest(c, "Invalid image upload")
		return
	}
	defer closeFn()

	p, err := h.posts.CreatePost(c.Request.Context(), middleware.UserID(c), service.CreatePostInput{
		Content:                c.PostForm("content"),
		IsCollegeCommunityOnly: formBool(c.PostForm("isCollegeCommunityOnly")),
		Image:                  img,
	})
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"post": p})
}

// ListPosts 信息流
// @Summary 帖子列表，按时间倒序
// @Tags 帖子
// @Produce json
// @Security BearerAuth
// @Param collegeCommunityOnly query bool false "只看本校社区帖"
// @Success 200 {object} map[string]interface{}
// @Router /posts [get]
func (h *Handler) ListPosts(c *gin.Context) {
	posts, err := h.posts.ListFeed(c.Request.Context(), middleware.UserID(c), formBool(c.Query("collegeCommunityOnly")))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"posts": posts})
}

// ListUserPosts 某用户的帖子
// @Summary 用户帖子列表
// @Tags 帖子
// @Produce json
// @Security BearerAuth
// @Param userId path string true "展示 ID 或用户 ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} response.ErrorBody
// @Router /users/{userId}/posts [get]
func (h *Handler) ListUserPosts(c *gin.Context) {
	ctx := c.Request.Context()
	u, err := h.profiles.Lookup(ctx, c.Param("userId"))
	if err != nil {
		fail(c, err)
		return
	}
	posts, err := h.posts.ListByAuthor(ctx, u.ID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"posts": posts})
}

// ToggleLike 点赞/取消点赞
// @Summary 切换点赞
// @Tags 帖子
// @Produce json
// @Security BearerAuth
// @Param id path string true "帖子 ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} response.ErrorBody
// @Router /posts/{id}/like [post]
func (h *Handler) ToggleLike(c *gin.Context) {
	p, liked, err := h.posts.ToggleLike(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"post": p, "liked": liked})
}

// AddComment 评论
// @Summary 发表评论
// @Tags 帖子
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "帖子 ID"
// @Param request body commentRequest true "评论内容"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /posts/{id}/comment [post]
func (h *Handler) AddComment(c *gin.Context) {
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	cm, err := h.posts.AddComment(c.Request.Context(), c.Param("id"), middleware.UserID(c), req.Content)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"comment": cm})
}

// ListComments 评论列表
// @Summary 评论列表，按时间正序
// @Tags 帖子
// @Produce json
// @Security BearerAuth
// @Param id path string true "帖子 ID"
// @Success 200 {object} map[string]interface{}
// @Router /posts/{id}/comments [get]
func (h *Handler) ListComments(c *gin.Context) {
	list, err := h.posts.ListComments(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"comments": list})
}
