package router

import (
	"net/http"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/d60-Lab/college-connect/config"
	"github.com/d60-Lab/college-connect/internal/api/handler"
	"github.com/d60-Lab/college-connect/internal/metrics"
	"github.com/d60-Lab/college-connect/internal/middleware"

	_ "github.com/d60-Lab/college-connect/docs"
)

// Deps 路由需要的组件
type Deps struct {
	Handler     *handler.Handler
	Auth        middleware.Authenticator
	Metrics     *metrics.Collector
	Gatherer    prometheus.Gatherer
	RateLimiter *middleware.RateLimiter
	// SentryEnabled 为 true 时挂载 sentrygin
	SentryEnabled bool
}

// Setup 组装 gin 引擎
func Setup(cfg *config.Config, d Deps) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.MaxMultipartMemory = cfg.Blob.MaxUploadBytes
	r.Use(middleware.Recovery())
	if d.SentryEnabled {
		r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	if cfg.Tracing.Enabled {
		r.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	}
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(cfg.Server.CORSOrigins))
	if d.Metrics != nil {
		r.Use(middleware.Metrics(d.Metrics))
	}

	h := d.Handler
	r.GET("/health", h.Health)
	r.GET("/test", h.Test)
	r.GET("/media/:bucket/*key", h.Media)
	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(metrics.Handler(d.Gatherer)))
	}
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/")
	api.Use(gzip.Gzip(gzip.DefaultCompression))
	if d.RateLimiter != nil {
		api.Use(d.RateLimiter.Middleware())
	}

	auth := api.Group("/auth")
	{
		auth.POST("/signup", h.SignUp)
		auth.POST("/signin", h.SignIn)
	}

	authed := api.Group("/")
	authed.Use(middleware.Auth(d.Auth))
	{
		authed.POST("/verification/submit", h.SubmitVerification)
		authed.GET("/verification/status", h.VerificationStatus)

		authed.GET("/profile", h.GetProfile)
		authed.POST("/profile/complete", h.CompleteProfile)

		authed.POST("/posts", h.CreatePost)
		authed.GET("/posts", h.ListPosts)
		authed.POST("/posts/:id/like", h.ToggleLike)
		authed.POST("/posts/:id/comment", h.AddComment)
		authed.GET("/posts/:id/comments", h.ListComments)

		authed.GET("/notifications", h.ListNotifications)
		authed.POST("/notifications/read-all", h.MarkAllNotificationsRead)
		authed.GET("/notifications/unread-count", h.UnreadNotificationCount)
		authed.POST("/notifications/:id/read", h.MarkNotificationRead)

		authed.GET("/users/search", h.SearchUsers)
		authed.GET("/users/:userId", h.GetUser)
		authed.GET("/users/:userId/posts", h.ListUserPosts)

		authed.POST("/messages/start", h.StartConversation)
		authed.GET("/messages/conversations", h.ListConversations)
		authed.GET("/messages/:conversationId", h.ListMessages)
		authed.POST("/messages/:conversationId", h.SendMessage)
		authed.POST("/messages/:conversationId/read", h.MarkConversationRead)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})
	return r
}
