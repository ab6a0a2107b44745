package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

// HTTPObserver 记录请求指标
type HTTPObserver interface {
	ObserveHTTP(route, method string, status int, d time.Duration)
}

// Metrics 按路由模板（而非原始路径）打点，避免标签基数膨胀
func Metrics(o HTTPObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		o.ObserveHTTP(c.FullPath(), c.Request.Method, c.Writer.Status(), time.Since(start))
	}
}
