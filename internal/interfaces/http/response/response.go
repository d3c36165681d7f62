package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wupeiyao/larkchat/internal/domain/conversation"
	"github.com/wupeiyao/larkchat/internal/domain/doc"
)

// 业务错误码
const (
	CodeBadRequest     = 40000
	CodeNotFound       = 40400
	CodeSyncInProgress = 40900
	CodeInternal       = 50000
	CodeUpstream       = 50200
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponse 错误响应
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, httpCode int, errCode int, message string) {
	c.JSON(httpCode, ErrorResponse{
		Code:    errCode,
		Message: message,
	})
}

// ErrorWithDetail 带详情的错误响应
func ErrorWithDetail(c *gin.Context, httpCode int, errCode int, message, detail string) {
	c.JSON(httpCode, ErrorResponse{
		Code:    errCode,
		Message: message,
		Detail:  detail,
	})
}

// BadRequest 参数错误
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, CodeBadRequest, message)
}

// FromError 按领域错误选择状态码
func FromError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, conversation.ErrConversationNotFound):
		ErrorWithDetail(c, http.StatusNotFound, CodeNotFound, "会话不存在", err.Error())
	case errors.Is(err, conversation.ErrEmptyMessage):
		ErrorWithDetail(c, http.StatusBadRequest, CodeBadRequest, "参数错误", err.Error())
	case errors.Is(err, doc.ErrSyncInProgress):
		ErrorWithDetail(c, http.StatusConflict, CodeSyncInProgress, "文档同步进行中", err.Error())
	case errors.Is(err, doc.ErrUpstream):
		ErrorWithDetail(c, http.StatusBadGateway, CodeUpstream, "上游服务调用失败", err.Error())
	default:
		ErrorWithDetail(c, http.StatusInternalServerError, CodeInternal, "服务器内部错误", err.Error())
	}
}
