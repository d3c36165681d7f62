package conversation

import "time"

// DefaultTitle 新建会话的默认标题
const DefaultTitle = "New Chat"

// Conversation 会话（base_conversation 表）
type Conversation struct {
	ID             int64
	ConversationID string
	Title          string
	Content        string // 消息列表 JSON
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Summary 会话列表项
type Summary struct {
	ConversationID string `json:"conversationId"`
	Title          string `json:"title"`
}

// Detail 会话详情
type Detail struct {
	ConversationID string          `json:"conversationId"`
	Title          string          `json:"title"`
	Messages       []StoredMessage `json:"messages"`
}

// Summary 转换为列表项
func (c *Conversation) Summary() Summary {
	return Summary{
		ConversationID: c.ConversationID,
		Title:          c.Title,
	}
}
