package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Timilehin-bello/melodious-sub000/internal/dispatcher"
	"github.com/Timilehin-bello/melodious-sub000/internal/output"
	"github.com/gin-gonic/gin"
)

// DebugHandler 运维调试接口，只读
type DebugHandler struct {
	dispatcher *dispatcher.Dispatcher
	sessionID  string
}

// NewDebugHandler 创建调试接口
func NewDebugHandler(d *dispatcher.Dispatcher, sessionID string) *DebugHandler {
	return &DebugHandler{dispatcher: d, sessionID: sessionID}
}

// Health 健康检查
func (h *DebugHandler) Health(c *gin.Context) {
	respond(c, http.StatusOK, "ok", gin.H{
		"service": "melodious",
		"session": h.sessionID,
	})
}

// Inspect 与 rollup inspect 相同的路由表，GET /inspect/<method>/<argument>
func (h *DebugHandler) Inspect(c *gin.Context) {
	route := strings.TrimPrefix(c.Param("path"), "/")
	if route == "" {
		respond(c, http.StatusBadRequest, "inspect route is required", nil)
		return
	}

	res := h.dispatcher.Inspect([]byte(route))
	reports := make([]json.RawMessage, 0, len(res.Outputs))
	for _, o := range res.Outputs {
		if o.Kind != output.KindReport {
			continue
		}
		if json.Valid(o.Payload) {
			reports = append(reports, o.Payload)
		} else {
			quoted, _ := json.Marshal(string(o.Payload))
			reports = append(reports, quoted)
		}
	}

	status := http.StatusOK
	if res.Status == dispatcher.StatusReject {
		status = http.StatusBadRequest
	}
	respond(c, status, string(res.Status), reports)
}

// respond 统一响应，2xx 视为成功
func respond(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success: statusCode >= 200 && statusCode < 300,
		Message: message,
		Data:    data,
	})
}
