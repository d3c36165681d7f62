package handler

import (
	"context"

	"github.com/wupeiyao/larkchat/internal/domain/conversation"
	"github.com/wupeiyao/larkchat/internal/domain/doc"
)

// DocService 文档接口依赖的应用服务
type DocService interface {
	List(ctx context.Context) ([]doc.DocView, error)
	Load(ctx context.Context, trigger string) (*doc.SyncReport, error)
	Search(ctx context.Context, query string, limit int) ([]doc.SearchHit, error)
}

// ConversationService 会话管理
type ConversationService interface {
	Create(ctx context.Context) (conversation.Summary, error)
	Edit(ctx context.Context, conversationID, title string) error
	List(ctx context.Context) ([]conversation.Summary, error)
	Get(ctx context.Context, conversationID string) (*conversation.Detail, error)
	Delete(ctx context.Context, conversationID string) error
}

// ChatService 问答
type ChatService interface {
	Chat(ctx context.Context, conversationID, userText string) (string, error)
}
