package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/timeline-sync/internal/api/middleware"
	"github.com/d60-Lab/timeline-sync/pkg/response"
)

type syncUpdate struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type syncResponse struct {
	Updates []syncUpdate `json:"updates"`
	SyncURL string       `json:"syncURL"`
}

// Sync 增量拉取时间线事件
// @Summary 按游标增量同步
// @Tags sync
// @Produce json
// @Param timeline query int false "上次返回的游标"
// @Success 200 {object} syncResponse
// @Failure 400 {object} response.Error
// @Failure 410 {object} response.Error
// @Router /v1/sync [get]
func (h *Handler) Sync(c *gin.Context) {
	var cursor int64
	if raw := c.Query("timeline"); raw != "" {
		var err error
		if cursor, err = strconv.ParseInt(raw, 10, 64); err != nil {
			response.InvalidJSON(c)
			return
		}
	}

	ident := middleware.Identity(c)
	result, err := h.sync.Sync(c.Request.Context(), ident.UserID, cursor)
	if err != nil {
		response.InternalError(c, err)
		return
	}

	resp := syncResponse{
		Updates: make([]syncUpdate, 0, len(result.Events)),
		SyncURL: h.baseURL + "/v1/sync",
	}
	for _, e := range result.Events {
		resp.Updates = append(resp.Updates, syncUpdate{Type: e.Type, Data: json.RawMessage(e.PinData)})
	}
	if result.NextCursor != nil {
		resp.SyncURL += "?timeline=" + strconv.FormatInt(*result.NextCursor, 10)
	}
	c.JSON(http.StatusOK, resp)
}
