package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/wupeiyao/larkchat/internal/interfaces/http/response"
)

// ConversationHandler 会话与问答处理器
type ConversationHandler struct {
	conversations ConversationService
	chat          ChatService
}

// NewConversationHandler 创建会话处理器
func NewConversationHandler(conversations ConversationService, chat ChatService) *ConversationHandler {
	return &ConversationHandler{conversations: conversations, chat: chat}
}

// chatRequest 问答参数，GET 取查询参数，POST 也可以用 JSON 请求体
type chatRequest struct {
	ConversationID string `form:"conversationId" json:"conversationId"`
	Message        string `form:"message" json:"message"`
}

// requireConversationID 缺少会话 ID 时写入 400 并返回 false
func requireConversationID(c *gin.Context) (string, bool) {
	id := strings.TrimSpace(c.Query("conversationId"))
	if id == "" {
		response.BadRequest(c, "缺少 conversationId")
		return "", false
	}
	return id, true
}

// Create 新建会话
// @Summary 新建会话
// @Tags 会话
// @Produce json
// @Success 200 {object} response.Response{data=conversation.Summary}
// @Router /conversation/create [post]
func (h *ConversationHandler) Create(c *gin.Context) {
	summary, err := h.conversations.Create(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, summary)
}

// Edit 修改会话标题，空白标题不做修改
// @Summary 修改会话标题
// @Tags 会话
// @Produce json
// @Param conversationId query string true "会话 ID"
// @Param title query string false "新标题"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /conversation/edit [put]
func (h *ConversationHandler) Edit(c *gin.Context) {
	id, ok := requireConversationID(c)
	if !ok {
		return
	}
	if err := h.conversations.Edit(c.Request.Context(), id, c.Query("title")); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, nil)
}

// Chat 在会话中提问
// @Summary 问答
// @Tags 会话
// @Accept json
// @Produce json
// @Param conversationId query string true "会话 ID"
// @Param message query string true "用户消息"
// @Success 200 {object} response.Response{data=string}
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 502 {object} response.ErrorResponse
// @Router /conversation/chat [get]
// @Router /conversation/chat [post]
func (h *ConversationHandler) Chat(c *gin.Context) {
	var req chatRequest
	_ = c.ShouldBindQuery(&req)
	if c.Request.Method == "POST" && strings.HasPrefix(c.ContentType(), "application/json") {
		var body chatRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			response.BadRequest(c, "请求体格式错误")
			return
		}
		if body.ConversationID != "" {
			req.ConversationID = body.ConversationID
		}
		if body.Message != "" {
			req.Message = body.Message
		}
	}

	if strings.TrimSpace(req.ConversationID) == "" {
		response.BadRequest(c, "缺少 conversationId")
		return
	}

	reply, err := h.chat.Chat(c.Request.Context(), strings.TrimSpace(req.ConversationID), req.Message)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, reply)
}

// Delete 删除会话
// @Summary 删除会话
// @Tags 会话
// @Produce json
// @Param conversationId query string true "会话 ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /conversation/del [delete]
func (h *ConversationHandler) Delete(c *gin.Context) {
	id, ok := requireConversationID(c)
	if !ok {
		return
	}
	if err := h.conversations.Delete(c.Request.Context(), id); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, nil)
}

// List 会话列表，按创建时间升序
// @Summary 会话列表
// @Tags 会话
// @Produce json
// @Success 200 {object} response.Response{data=[]conversation.Summary}
// @Router /conversation/list [get]
func (h *ConversationHandler) List(c *gin.Context) {
	list, err := h.conversations.List(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, list)
}

// Get 会话详情
// @Summary 会话详情
// @Tags 会话
// @Produce json
// @Param conversationId query string true "会话 ID"
// @Success 200 {object} response.Response{data=conversation.Detail}
// @Failure 404 {object} response.ErrorResponse
// @Router /conversation/get [get]
func (h *ConversationHandler) Get(c *gin.Context) {
	id, ok := requireConversationID(c)
	if !ok {
		return
	}
	detail, err := h.conversations.Get(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, detail)
}
