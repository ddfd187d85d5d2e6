package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/timeline-sync/internal/auth"
	"github.com/d60-Lab/timeline-sync/pkg/response"
)

const (
	ctxIdentity = "identity"
	ctxAppUUID  = "app_uuid"
	ctxUID      = "uid"
)

// UserAuth 解析 X-User-Token；失败即 410 INVALID_USER_TOKEN
func UserAuth(r auth.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("X-User-Token")
		if token == "" {
			response.InvalidUserToken(c)
			return
		}
		ident, err := r.ResolveUserToken(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, auth.ErrUnauthenticated) {
				response.InvalidUserToken(c)
				return
			}
			response.InternalError(c, err)
			return
		}
		c.Set(ctxIdentity, ident)
		c.Next()
	}
}

// APIKeyAuth 解析 X-API-Key；待权限模型落地前，未知 key 一律 403
func APIKeyAuth(r auth.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("X-API-Key")
		if key == "" {
			response.InvalidAPIKey(c)
			return
		}
		appUUID, err := r.ResolveAPIKey(c.Request.Context(), key)
		if err != nil {
			if errors.Is(err, auth.ErrUnauthenticated) {
				response.InvalidAPIKey(c)
				return
			}
			response.InternalError(c, err)
			return
		}
		c.Set(ctxAppUUID, appUUID)
		c.Next()
	}
}

// BearerAuth Authorization: Bearer 或 access_token 查询参数，经账号服务 /me 换 uid
func BearerAuth(r auth.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("access_token")
		if token == "" {
			header := c.GetHeader("Authorization")
			if parts := strings.SplitN(header, " ", 2); len(parts) == 2 && parts[0] == "Bearer" {
				token = parts[1]
			}
		}
		if token == "" {
			response.Unauthorized(c)
			return
		}
		uid, err := r.ResolveBearer(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, auth.ErrUnauthenticated) {
				response.Unauthorized(c)
				return
			}
			response.InternalError(c, err)
			return
		}
		c.Set(ctxUID, uid)
		c.Next()
	}
}

// Identity 取 UserAuth 放入的解析结果
func Identity(c *gin.Context) *auth.Identity {
	return c.MustGet(ctxIdentity).(*auth.Identity)
}

// AppUUID 取 APIKeyAuth 放入的 app_uuid
func AppUUID(c *gin.Context) string {
	return c.MustGet(ctxAppUUID).(string)
}

// UID 取 BearerAuth 放入的 uid
func UID(c *gin.Context) int64 {
	return c.MustGet(ctxUID).(int64)
}
