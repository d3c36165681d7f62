package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/wupeiyao/larkchat/internal/domain/conversation"
	"github.com/wupeiyao/larkchat/internal/infrastructure/log"
)

// Memory 基于 base_conversation.content 的对话记忆
type Memory struct {
	repo   conversation.Repository
	locks  *keyedMutex
	logger *slog.Logger
}

// NewMemory 创建对话记忆
func NewMemory(repo conversation.Repository) *Memory {
	return &Memory{
		repo:   repo,
		locks:  newKeyedMutex(),
		logger: log.NewModuleLogger("chat", "memory"),
	}
}

// Add 追加消息
// 同一会话的追加串行执行，读取和写回在同一事务内
func (m *Memory) Add(ctx context.Context, conversationID string, messages ...conversation.Message) error {
	if len(messages) == 0 {
		return nil
	}

	stored := make([]conversation.StoredMessage, 0, len(messages))
	for _, msg := range messages {
		s, err := conversation.NewStoredMessage(msg)
		if err != nil {
			return err
		}
		stored = append(stored, s)
	}

	unlock := m.locks.Lock(conversationID)
	defer unlock()

	err := m.repo.Transact(ctx, func(repo conversation.Repository) error {
		c, err := repo.FindByConversationID(ctx, conversationID)
		if err != nil {
			return err
		}
		existing, err := conversation.DecodeContent(c.Content)
		if err != nil {
			return err
		}
		content, err := conversation.EncodeContent(append(existing, stored...))
		if err != nil {
			return err
		}
		return repo.UpdateContent(ctx, conversationID, content)
	})
	if err != nil {
		return fmt.Errorf("failed to append messages: %w", err)
	}

	m.logger.DebugContext(ctx, "Messages appended", "conversation_id", conversationID, "count", len(messages))
	return nil
}

// Get 返回最早的 n 条消息，n <= 0 返回空列表
func (m *Memory) Get(ctx context.Context, conversationID string, n int) ([]conversation.Message, error) {
	c, err := m.repo.FindByConversationID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		return []conversation.Message{}, nil
	}

	stored, err := conversation.DecodeContent(c.Content)
	if err != nil {
		return nil, err
	}
	stored = stored[:min(n, len(stored))]

	messages := make([]conversation.Message, 0, len(stored))
	for _, s := range stored {
		msg, err := s.ToMessage()
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// Clear 删除会话，会话不存在时不报错
func (m *Memory) Clear(ctx context.Context, conversationID string) error {
	err := m.repo.Delete(ctx, conversationID)
	if err != nil && !errors.Is(err, conversation.ErrConversationNotFound) {
		return fmt.Errorf("failed to clear conversation: %w", err)
	}
	return nil
}
