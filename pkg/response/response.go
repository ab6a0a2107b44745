package response

import (
	"net/http"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/college-connect/pkg/logger"
)

// ErrorBody 统一错误响应体
type ErrorBody struct {
	Error string `json:"error"`
}

// Success 200，data 原样输出
func Success(c *gin.Context, data any) {
	if data == nil {
		data = gin.H{"message": "ok"}
	}
	c.JSON(http.StatusOK, data)
}

func BadRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorBody{Error: msg})
}

func Unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorBody{Error: msg})
}

func Forbidden(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusForbidden, ErrorBody{Error: msg})
}

func NotFound(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusNotFound, ErrorBody{Error: msg})
}

func TooManyRequests(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorBody{Error: msg})
}

// InternalError 记录原始错误并上报 Sentry，对外只返回通用信息
func InternalError(c *gin.Context, err error) {
	logger.Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	if hub := sentrygin.GetHubFromContext(c); hub != nil && err != nil {
		hub.CaptureException(err)
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorBody{Error: "internal server error"})
}
