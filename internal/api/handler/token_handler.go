package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/timeline-sync/internal/api/middleware"
)

// SandboxToken 获取（或首次生成）沙箱凭证
// @Summary 沙箱凭证下发，(uid, app) 幂等
// @Tags token
// @Produce json
// @Param app_uuid path string true "应用 uuid"
// @Success 200 {object} map[string]string
// @Failure 401 {object} response.Error
// @Router /v1/tokens/sandbox/{app_uuid} [get]
func (h *Handler) SandboxToken(c *gin.Context) {
	appUUID := c.Param("app_uuid")
	token, err := h.sandbox.GetOrCreate(c.Request.Context(), middleware.UID(c), appUUID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"uuid": appUUID, "token": token})
}
