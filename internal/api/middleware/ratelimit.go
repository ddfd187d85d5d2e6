package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/d60-Lab/timeline-sync/pkg/logger"
	"github.com/d60-Lab/timeline-sync/pkg/response"
)

// RateLimit 按凭证（退化按来源 IP）限流。
// 配置了 redis 时用固定窗口计数（多实例共享额度），否则退化为进程内令牌桶。
// redis 故障时放行：限流是保护措施，不能成为单点。
func RateLimit(rdb *redis.Client, requests int, window time.Duration) gin.HandlerFunc {
	if requests <= 0 {
		requests = 60
	}
	if window <= 0 {
		window = time.Minute
	}
	if rdb == nil {
		return localRateLimit(requests, window)
	}
	return func(c *gin.Context) {
		key := "ratelimit:" + c.FullPath() + ":" + credential(c)
		count, err := rdb.Incr(c.Request.Context(), key).Result()
		if err != nil {
			logger.Warn("rate limit check failed, allowing", zap.Error(err))
			c.Next()
			return
		}
		if count == 1 {
			rdb.Expire(c.Request.Context(), key, window)
		}
		if count > int64(requests) {
			response.RateLimited(c)
			return
		}
		c.Next()
	}
}

func credential(c *gin.Context) string {
	if t := c.GetHeader("X-User-Token"); t != "" {
		return t
	}
	if k := c.GetHeader("X-API-Key"); k != "" {
		return k
	}
	return c.ClientIP()
}

func localRateLimit(requests int, window time.Duration) gin.HandlerFunc {
	var (
		mu       sync.Mutex
		limiters = make(map[string]*rate.Limiter)
	)
	limit := rate.Every(window / time.Duration(requests))
	return func(c *gin.Context) {
		key := c.FullPath() + ":" + credential(c)
		mu.Lock()
		l, ok := limiters[key]
		if !ok {
			l = rate.NewLimiter(limit, requests)
			limiters[key] = l
		}
		mu.Unlock()
		if !l.Allow() {
			response.RateLimited(c)
			return
		}
		c.Next()
	}
}
