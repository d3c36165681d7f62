package conversation

import "context"

// Repository 会话仓储接口
// 按 conversation_id 操作的方法在记录不存在时返回 ErrConversationNotFound
type Repository interface {
	Create(ctx context.Context, c *Conversation) error
	FindByConversationID(ctx context.Context, conversationID string) (*Conversation, error)
	// List 按创建时间升序
	List(ctx context.Context) ([]*Conversation, error)
	UpdateTitle(ctx context.Context, conversationID, title string) error
	UpdateContent(ctx context.Context, conversationID, content string) error
	Delete(ctx context.Context, conversationID string) error
	Transact(ctx context.Context, fn func(repo Repository) error) error
}

// CompletionRequest 一次对话补全请求
type CompletionRequest struct {
	System      string
	History     []Message
	User        string
	Temperature float64
}

// Completer LLM 补全
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}
