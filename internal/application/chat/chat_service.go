package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/wupeiyao/larkchat/internal/domain/conversation"
	"github.com/wupeiyao/larkchat/internal/domain/doc"
	"github.com/wupeiyao/larkchat/internal/infrastructure/config"
	"github.com/wupeiyao/larkchat/internal/infrastructure/log"
	"github.com/wupeiyao/larkchat/internal/infrastructure/prompt"
)

// excerptTokens 每篇参考文档放入提示词的最大 token 数
const excerptTokens = 512

// Tokenizer token 计数与截断
type Tokenizer interface {
	CountTokens(text string) int
	Truncate(text string, maxTokens int) string
}

// PromptSource 当前生效的提示词
type PromptSource interface {
	Current() prompt.Prompt
}

// Searcher 参考文档检索
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]doc.SearchHit, error)
}

// Service 知识库问答
type Service struct {
	repo      conversation.Repository
	memory    *Memory
	completer conversation.Completer
	searcher  Searcher
	tokenizer Tokenizer
	prompts   PromptSource

	memoryWindow   int
	historyBudget  int
	retrievalLimit int
	logger         *slog.Logger
}

// NewService 创建问答服务
func NewService(
	repo conversation.Repository,
	memory *Memory,
	completer conversation.Completer,
	searcher Searcher,
	tokenizer Tokenizer,
	prompts PromptSource,
	cfg *config.ChatConfig,
) *Service {
	return &Service{
		repo:           repo,
		memory:         memory,
		completer:      completer,
		searcher:       searcher,
		tokenizer:      tokenizer,
		prompts:        prompts,
		memoryWindow:   cfg.MemoryWindow,
		historyBudget:  cfg.HistoryTokenBudget,
		retrievalLimit: cfg.RetrievalLimit,
		logger:         log.NewModuleLogger("chat", "service"),
	}
}

// Chat 在会话中提问并返回回答
func (s *Service) Chat(ctx context.Context, conversationID, userText string) (string, error) {
	if strings.TrimSpace(userText) == "" {
		return "", conversation.ErrEmptyMessage
	}
	ctx = log.WithConversationID(ctx, conversationID)

	if _, err := s.repo.FindByConversationID(ctx, conversationID); err != nil {
		return "", err
	}

	history, err := s.memory.Get(ctx, conversationID, s.memoryWindow)
	if err != nil {
		return "", err
	}
	history = s.trimHistory(history)

	current := s.prompts.Current()
	system := current.System
	if refs := s.references(ctx, userText); refs != "" {
		system += "\n\n" + refs
	}

	if err := s.memory.Add(ctx, conversationID, conversation.UserMessage(userText)); err != nil {
		return "", err
	}

	reply, err := s.completer.Complete(ctx, conversation.CompletionRequest{
		System:      system,
		History:     history,
		User:        userText,
		Temperature: current.Temperature,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Chat completion failed", "error", err)
		return "", fmt.Errorf("failed to complete chat: %w", err)
	}

	if err := s.memory.Add(ctx, conversationID, conversation.AssistantMessage(reply)); err != nil {
		return "", err
	}

	s.logger.InfoContext(ctx, "Chat answered", "history", len(history), "reply_len", len(reply))
	return reply, nil
}

// trimHistory 从最早的消息开始丢弃，直到总 token 数不超过预算
func (s *Service) trimHistory(history []conversation.Message) []conversation.Message {
	if s.historyBudget <= 0 || len(history) == 0 {
		return history
	}

	counts := make([]int, len(history))
	total := 0
	for i, m := range history {
		counts[i] = s.tokenizer.CountTokens(m.Content)
		total += counts[i]
	}

	start := 0
	for start < len(history) && total > s.historyBudget {
		total -= counts[start]
		start++
	}
	return history[start:]
}

// references 检索参考文档并格式化；检索失败时只记录日志
func (s *Service) references(ctx context.Context, query string) string {
	if s.retrievalLimit <= 0 || s.searcher == nil {
		return ""
	}

	hits, err := s.searcher.Search(ctx, query, s.retrievalLimit)
	if err != nil {
		s.logger.WarnContext(ctx, "Reference retrieval failed, answering without documents", "error", err)
		return ""
	}
	if len(hits) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("参考文档：")
	for i, hit := range hits {
		fmt.Fprintf(&b, "\n\n[%d] %s\n链接：%s\n%s", i+1, hit.Name, hit.URL, s.tokenizer.Truncate(hit.Content, excerptTokens))
	}
	return b.String()
}
