package response

import (
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/timeline-sync/pkg/logger"
)

// 错误码为固定线上契约，客户端按字符串匹配
const (
	CodeInvalidJSON       = "INVALID_JSON"
	CodeInvalidAPIKey     = "INVALID_API_KEY"
	CodeNotFound          = "NOT_FOUND"
	CodeInvalidUserToken  = "INVALID_USER_TOKEN"
	CodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	CodeInternalError     = "INTERNAL_SERVER_ERROR"
)

// Error 错误响应体：{"errorCode": "..."}
type Error struct {
	ErrorCode string `json:"errorCode"`
}

func abort(c *gin.Context, status int, code string) {
	c.AbortWithStatusJSON(status, Error{ErrorCode: code})
}

func InvalidJSON(c *gin.Context)      { abort(c, http.StatusBadRequest, CodeInvalidJSON) }
func InvalidAPIKey(c *gin.Context)    { abort(c, http.StatusForbidden, CodeInvalidAPIKey) }
func NotFound(c *gin.Context)         { abort(c, http.StatusNotFound, CodeNotFound) }
func InvalidUserToken(c *gin.Context) { abort(c, http.StatusGone, CodeInvalidUserToken) }
func RateLimited(c *gin.Context)      { abort(c, http.StatusTooManyRequests, CodeRateLimitExceeded) }

// Unauthorized 用于 Bearer 鉴权端点（sandbox token 下发）
func Unauthorized(c *gin.Context) { abort(c, http.StatusUnauthorized, CodeInvalidUserToken) }

// InternalError 记录并上报异常，响应体不泄露细节
func InternalError(c *gin.Context, err error) {
	logger.Error("internal error",
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	sentry.CaptureException(err)
	abort(c, http.StatusInternalServerError, CodeInternalError)
}
