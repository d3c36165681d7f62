package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/wupeiyao/larkchat/internal/infrastructure/websocket"
)

// WSHandler 同步通知 WebSocket 处理器
type WSHandler struct {
	server *websocket.Server
}

// NewWSHandler 创建 WebSocket 处理器
func NewWSHandler(server *websocket.Server) *WSHandler {
	return &WSHandler{server: server}
}

// Docs 订阅文档同步通知，每轮同步结束推送 {"type":"doc_sync","data":SyncReport}
// @Summary 文档同步通知
// @Tags 文档
// @Router /ws [get]
func (h *WSHandler) Docs(c *gin.Context) {
	h.server.ServeTopic(c.Writer, c.Request, websocket.TopicDocs)
}
