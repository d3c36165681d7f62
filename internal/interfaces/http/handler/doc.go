package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wupeiyao/larkchat/internal/domain/doc"
	"github.com/wupeiyao/larkchat/internal/interfaces/http/response"
)

// DocHandler 知识库文档处理器
type DocHandler struct {
	service DocService
}

// NewDocHandler 创建文档处理器
func NewDocHandler(service DocService) *DocHandler {
	return &DocHandler{service: service}
}

// List 已同步的文档列表
// @Summary 文档列表
// @Tags 文档
// @Produce json
// @Success 200 {object} response.Response{data=[]doc.DocView}
// @Failure 500 {object} response.ErrorResponse
// @Router /doc/list [get]
func (h *DocHandler) List(c *gin.Context) {
	views, err := h.service.List(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, views)
}

// Load 立即同步飞书文档，等待同步完成后返回报告
// 已有同步在执行时等待其完成并返回同一份报告
// @Summary 同步文档
// @Tags 文档
// @Produce json
// @Success 200 {object} response.Response{data=doc.SyncReport}
// @Failure 502 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /doc/load [post]
func (h *DocHandler) Load(c *gin.Context) {
	report, err := h.service.Load(c.Request.Context(), doc.TriggerManual)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, report)
}

// Search 向量检索
// @Summary 检索文档
// @Tags 文档
// @Produce json
// @Param query query string true "检索内容"
// @Param limit query int false "返回条数，默认 5，最大 20"
// @Success 200 {object} response.Response{data=[]doc.SearchHit}
// @Failure 400 {object} response.ErrorResponse
// @Failure 502 {object} response.ErrorResponse
// @Router /doc/search [get]
func (h *DocHandler) Search(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			response.BadRequest(c, "limit 必须是整数")
			return
		}
		limit = n
	}

	hits, err := h.service.Search(c.Request.Context(), c.Query("query"), limit)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, hits)
}
