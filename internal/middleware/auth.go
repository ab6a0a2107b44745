package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/college-connect/internal/service"
	"github.com/d60-Lab/college-connect/pkg/response"
)

const userIDKey = "userID"

// Authenticator 校验 bearer token 并返回用户 ID
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (string, error)
}

// Auth 要求 Authorization: Bearer <token>，失败返回 401 {error}
func Auth(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			response.Unauthorized(c, "No token provided")
			return
		}
		uid, err := a.Authenticate(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			var se *service.Error
			if errors.As(err, &se) && errors.Is(err, service.ErrUnauthorized) {
				response.Unauthorized(c, se.Msg)
				return
			}
			response.InternalError(c, err)
			return
		}
		c.Set(userIDKey, uid)
		c.Next()
	}
}

// UserID 返回 Auth 写入的用户 ID
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
