package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/timeline-sync/internal/api/middleware"
	"github.com/d60-Lab/timeline-sync/internal/service"
)

const jsonContentType = "application/json; charset=utf-8"

// PutUserPin 创建或更新个人 pin
// @Summary 个人 pin 写入（同 id 重复 PUT 为原地更新）
// @Tags pin
// @Accept json
// @Produce json
// @Param pin_id path string true "pin 客户端 id"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} response.Error
// @Failure 410 {object} response.Error
// @Router /v1/user/pins/{pin_id} [put]
func (h *Handler) PutUserPin(c *gin.Context) {
	var payload service.PinPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		bindError(c, err)
		return
	}
	snap, err := h.pins.UpsertUserPin(c.Request.Context(), middleware.Identity(c), c.Param("pin_id"), &payload)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Data(http.StatusOK, jsonContentType, snap)
}

// DeleteUserPin 删除个人 pin
// @Summary 个人 pin 删除（硬删除，产生终态 delete 事件）
// @Tags pin
// @Produce json
// @Param pin_id path string true "pin 客户端 id"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} response.Error
// @Failure 410 {object} response.Error
// @Router /v1/user/pins/{pin_id} [delete]
func (h *Handler) DeleteUserPin(c *gin.Context) {
	snap, err := h.pins.DeleteUserPin(c.Request.Context(), middleware.Identity(c), c.Param("pin_id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Data(http.StatusOK, jsonContentType, snap)
}

// PutSharedPin 创建或更新共享 pin，按 X-Pin-Topics 扇出
// @Summary 共享 pin 写入（扇出到更新时刻的订阅者）
// @Tags pin
// @Accept json
// @Produce json
// @Param pin_id path string true "pin 客户端 id"
// @Param X-Pin-Topics header string true "逗号分隔 topic 列表"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} response.Error
// @Failure 403 {object} response.Error
// @Router /v1/shared/pins/{pin_id} [put]
func (h *Handler) PutSharedPin(c *gin.Context) {
	var payload service.PinPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		bindError(c, err)
		return
	}
	topics := splitTopics(c.GetHeader("X-Pin-Topics"))
	snap, err := h.pins.UpsertSharedPin(c.Request.Context(), middleware.AppUUID(c), topics, c.Param("pin_id"), &payload)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Data(http.StatusOK, jsonContentType, snap)
}

// DeleteSharedPin 删除共享 pin
// @Summary 共享 pin 删除
// @Tags pin
// @Produce json
// @Param pin_id path string true "pin 客户端 id"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Router /v1/shared/pins/{pin_id} [delete]
func (h *Handler) DeleteSharedPin(c *gin.Context) {
	snap, err := h.pins.DeleteSharedPin(c.Request.Context(), middleware.AppUUID(c), c.Param("pin_id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Data(http.StatusOK, jsonContentType, snap)
}

func splitTopics(header string) []string {
	var topics []string
	for _, name := range strings.Split(header, ",") {
		if name = strings.TrimSpace(name); name != "" {
			topics = append(topics, name)
		}
	}
	return topics
}
