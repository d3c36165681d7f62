package conversation

import "errors"

var (
	// ErrConversationNotFound 会话不存在
	ErrConversationNotFound = errors.New("can not find conversation with id")
	// ErrUnsupportedMessageType 消息类型无法还原为领域消息（如 TOOL）
	ErrUnsupportedMessageType = errors.New("unsupported message type")
	// ErrMalformedContent 会话内容 JSON 无法解析
	ErrMalformedContent = errors.New("malformed conversation content")
	// ErrEmptyMessage 用户消息为空
	ErrEmptyMessage = errors.New("message must not be blank")
)
