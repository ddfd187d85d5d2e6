package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimitedRouter(rdb *redis.Client, requests int, window time.Duration) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ping", RateLimit(rdb, requests, window), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func doPing(r *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-User-Token", token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimitRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	r := newLimitedRouter(rdb, 2, time.Minute)

	assert.Equal(t, http.StatusOK, doPing(r, "u1").Code)
	assert.Equal(t, http.StatusOK, doPing(r, "u1").Code)

	w := doPing(r, "u1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"errorCode":"RATE_LIMIT_EXCEEDED"}`, w.Body.String())

	// 限流按凭证隔离
	assert.Equal(t, http.StatusOK, doPing(r, "u2").Code)

	// 窗口过期后额度恢复
	mr.FastForward(2 * time.Minute)
	assert.Equal(t, http.StatusOK, doPing(r, "u1").Code)
}

func TestRateLimitRedisDownAllows(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	mr.Close()

	r := newLimitedRouter(rdb, 1, time.Minute)
	for i := 0; i < 5; i++ {
		require.Equal(t, http.StatusOK, doPing(r, "u1").Code)
	}
}

func TestRateLimitLocalFallback(t *testing.T) {
	r := newLimitedRouter(nil, 2, time.Minute)

	assert.Equal(t, http.StatusOK, doPing(r, "u1").Code)
	assert.Equal(t, http.StatusOK, doPing(r, "u1").Code)
	assert.Equal(t, http.StatusTooManyRequests, doPing(r, "u1").Code)
	assert.Equal(t, http.StatusOK, doPing(r, "u2").Code)
}
