package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/timeline-sync/internal/api/middleware"
)

// ListSubscriptions 当前用户已订阅的 topic 名
// @Summary 订阅列表
// @Tags subscription
// @Produce json
// @Success 200 {object} map[string][]string
// @Failure 410 {object} response.Error
// @Router /v1/user/subscriptions [get]
func (h *Handler) ListSubscriptions(c *gin.Context) {
	names, err := h.subs.List(c.Request.Context(), middleware.Identity(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"topics": names})
}

// Subscribe 订阅 topic（幂等）
// @Summary 订阅
// @Tags subscription
// @Produce json
// @Param topic path string true "topic 名"
// @Success 200 {object} map[string]interface{}
// @Failure 410 {object} response.Error
// @Router /v1/user/subscriptions/{topic} [post]
func (h *Handler) Subscribe(c *gin.Context) {
	if err := h.subs.Subscribe(c.Request.Context(), middleware.Identity(c), c.Param("topic")); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

// Unsubscribe 退订 topic（幂等，未订阅时同样 200）
// @Summary 退订
// @Tags subscription
// @Produce json
// @Param topic path string true "topic 名"
// @Success 200 {object} map[string]interface{}
// @Failure 410 {object} response.Error
// @Router /v1/user/subscriptions/{topic} [delete]
func (h *Handler) Unsubscribe(c *gin.Context) {
	if err := h.subs.Unsubscribe(c.Request.Context(), middleware.Identity(c), c.Param("topic")); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}
