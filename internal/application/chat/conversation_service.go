package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/wupeiyao/larkchat/internal/domain/conversation"
	"github.com/wupeiyao/larkchat/internal/infrastructure/log"
)

// ConversationService 会话管理
type ConversationService struct {
	repo   conversation.Repository
	logger *slog.Logger
}

// NewConversationService 创建会话服务
func NewConversationService(repo conversation.Repository) *ConversationService {
	return &ConversationService{
		repo:   repo,
		logger: log.NewModuleLogger("chat", "conversation"),
	}
}

// newConversationID 不带连字符的 UUID v4
func newConversationID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Create 新建会话
func (s *ConversationService) Create(ctx context.Context) (conversation.Summary, error) {
	c := &conversation.Conversation{
		ConversationID: newConversationID(),
		Title:          conversation.DefaultTitle,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return conversation.Summary{}, err
	}
	s.logger.InfoContext(ctx, "Conversation created", "conversation_id", c.ConversationID)
	return c.Summary(), nil
}

// Edit 修改标题，空白标题不做修改
func (s *ConversationService) Edit(ctx context.Context, conversationID, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil
	}
	return s.repo.UpdateTitle(ctx, conversationID, title)
}

// List 按创建时间升序列出会话
func (s *ConversationService) List(ctx context.Context) ([]conversation.Summary, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	summaries := make([]conversation.Summary, 0, len(list))
	for _, c := range list {
		summaries = append(summaries, c.Summary())
	}
	return summaries, nil
}

// Get 会话详情，消息按存储格式原样返回
func (s *ConversationService) Get(ctx context.Context, conversationID string) (*conversation.Detail, error) {
	c, err := s.repo.FindByConversationID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	messages, err := conversation.DecodeContent(c.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to read conversation %s: %w", conversationID, err)
	}
	return &conversation.Detail{
		ConversationID: c.ConversationID,
		Title:          c.Title,
		Messages:       messages,
	}, nil
}

// Delete 删除会话
func (s *ConversationService) Delete(ctx context.Context, conversationID string) error {
	if err := s.repo.Delete(ctx, conversationID); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Conversation deleted", "conversation_id", conversationID)
	return nil
}
