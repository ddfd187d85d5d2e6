package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/d60-Lab/timeline-sync/internal/service"
	"github.com/d60-Lab/timeline-sync/pkg/logger"
	"github.com/d60-Lab/timeline-sync/pkg/response"
)

// Handler HTTP 处理器集合
type Handler struct {
	pins    service.PinService
	sync    service.SyncService
	subs    service.SubscriptionService
	sandbox service.SandboxTokenService
	baseURL string
}

func New(pins service.PinService, sync service.SyncService, subs service.SubscriptionService, sandbox service.SandboxTokenService, baseURL string) *Handler {
	return &Handler{pins: pins, sync: sync, subs: subs, sandbox: sandbox, baseURL: baseURL}
}

// writeError 业务错误到线上错误码的统一映射
func (h *Handler) writeError(c *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		// 具体规则只进日志，响应体保持固定错误码
		logger.Info("pin rejected", zap.String("rule", verr.Rule))
		response.InvalidJSON(c)
	case errors.Is(err, service.ErrNotFound):
		response.NotFound(c)
	default:
		response.InternalError(c, err)
	}
}

// bindError 请求体绑定失败：区分字段校验失败与 JSON 语法错误，均为 400
func bindError(c *gin.Context, err error) {
	var ferr validator.ValidationErrors
	if errors.As(err, &ferr) && len(ferr) > 0 {
		logger.Info("payload rejected",
			zap.String("field", ferr[0].Namespace()),
			zap.String("tag", ferr[0].Tag()),
		)
	} else {
		logger.Debug("malformed request body", zap.Error(err))
	}
	response.InvalidJSON(c)
}
