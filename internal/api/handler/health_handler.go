package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/college-connect/internal/storage"
	"github.com/d60-Lab/college-connect/pkg/response"
)

// Health 存活检查
// @Summary 健康检查
// @Tags 系统
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *Handler) Health(c *gin.Context) {
	response.Success(c, gin.H{
		"status":               "ok",
		"version":              h.opts.Version,
		"timestamp":            h.opts.Now().UTC(),
		"allowedEmailSuffixes": h.opts.AllowedEmailSuffixes,
	})
}

// Test 连通性测试
// @Summary 连通性测试
// @Tags 系统
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /test [get]
func (h *Handler) Test(c *gin.Context) {
	response.Success(c, gin.H{
		"message":   "College Connect API is reachable",
		"timestamp": h.opts.Now().UTC(),
	})
}

// Media 公开媒体：S3 重定向到预签名地址，本地直接回文件
// @Summary 获取公开媒体
// @Tags 系统
// @Param bucket path string true "bucket"
// @Param key path string true "对象 key"
// @Success 302
// @Success 200
// @Failure 404 {object} response.ErrorBody
// @Router /media/{bucket}/{key} [get]
func (h *Handler) Media(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	loc, err := h.media.Locate(c.Request.Context(), c.Param("bucket"), key)
	if errors.Is(err, storage.ErrUnknownBucket) || errors.Is(err, storage.ErrObjectMissing) {
		response.NotFound(c, "Media not found")
		return
	}
	if err != nil {
		response.InternalError(c, err)
		return
	}
	c.Header("Cache-Control", "public, max-age=300")
	if loc.RedirectURL != "" {
		c.Redirect(http.StatusFound, loc.RedirectURL)
		return
	}
	c.File(loc.FilePath)
}
