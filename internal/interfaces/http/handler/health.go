package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wupeiyao/larkchat/internal/infrastructure/singleton"
)

// Health 健康检查，单实例锁依赖 service 字段识别本服务
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": singleton.ServiceName})
}
