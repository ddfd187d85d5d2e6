package api

import (
	"net/http"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/d60-Lab/timeline-sync/config"
	"github.com/d60-Lab/timeline-sync/internal/api/handler"
	"github.com/d60-Lab/timeline-sync/internal/api/middleware"
	"github.com/d60-Lab/timeline-sync/internal/auth"
	"github.com/d60-Lab/timeline-sync/pkg/tracing"
)

// NewRouter 组装路由与中间件；rdb 可为 nil（限流退化为进程内）
func NewRouter(cfg *config.Config, h *handler.Handler, resolver auth.Resolver, rdb *redis.Client) *gin.Engine {
	gin.SetMode(ginMode(cfg.Server.Mode))

	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery(), gzip.Gzip(gzip.DefaultCompression))
	if cfg.Trace.Enabled {
		r.Use(otelgin.Middleware(tracing.ServiceName))
	}

	rateLimit := middleware.RateLimit(rdb, cfg.RateLimit.Requests, cfg.RateLimit.Window)

	v1 := r.Group("/v1")
	v1.GET("/heartbeat", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1.GET("/tokens/sandbox/:app_uuid", rateLimit, middleware.BearerAuth(resolver), h.SandboxToken)

	user := v1.Group("", middleware.UserAuth(resolver), rateLimit)
	{
		user.GET("/sync", h.Sync)
		user.PUT("/user/pins/:pin_id", h.PutUserPin)
		user.DELETE("/user/pins/:pin_id", h.DeleteUserPin)
		user.GET("/user/subscriptions", h.ListSubscriptions)
		user.POST("/user/subscriptions/:topic", h.Subscribe)
		user.DELETE("/user/subscriptions/:topic", h.Unsubscribe)
	}

	shared := v1.Group("/shared", middleware.APIKeyAuth(resolver), rateLimit)
	{
		shared.PUT("/pins/:pin_id", h.PutSharedPin)
		shared.DELETE("/pins/:pin_id", h.DeleteSharedPin)
	}

	return r
}

func ginMode(mode string) string {
	if mode == "release" {
		return gin.ReleaseMode
	}
	return gin.DebugMode
}
