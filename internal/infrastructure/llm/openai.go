package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/wupeiyao/larkchat/internal/domain/conversation"
	"github.com/wupeiyao/larkchat/internal/domain/doc"
	"github.com/wupeiyao/larkchat/internal/infrastructure/config"
	"github.com/wupeiyao/larkchat/internal/infrastructure/log"
)

// OpenAICompleter OpenAI 兼容的 Chat Completions（DeepSeek 等）
type OpenAICompleter struct {
	api       *openai.Client
	model     string
	maxTokens int
	logger    *slog.Logger
}

var _ conversation.Completer = (*OpenAICompleter)(nil)

// NewOpenAICompleter 创建 OpenAI 兼容补全客户端
func NewOpenAICompleter(cfg *config.LLMConfig) *OpenAICompleter {
	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	return &OpenAICompleter{
		api:       openai.NewClientWithConfig(apiCfg),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		logger:    log.NewModuleLogger("llm", "openai"),
	}
}

// Complete 发送 system + 历史 + 用户消息，返回助手回复
func (c *OpenAICompleter) Complete(ctx context.Context, req conversation.CompletionRequest) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.History)+2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	for _, m := range req.History {
		messages = append(messages, openai.ChatCompletionMessage{Role: openAIRole(m.Role), Content: m.Content})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.User})

	c.logger.Debug("Sending chat completion",
		"model", c.model,
		"messages", len(messages),
		"temperature", req.Temperature,
	)

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: float32(req.Temperature),
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%w: chat completion failed: %v", doc.ErrUpstream, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: chat completion returned no choices", doc.ErrUpstream)
	}

	c.logger.Debug("Chat completion finished",
		"finish_reason", resp.Choices[0].FinishReason,
		"total_tokens", resp.Usage.TotalTokens,
	)
	return resp.Choices[0].Message.Content, nil
}

func openAIRole(r conversation.Role) string {
	switch r {
	case conversation.RoleAssistant:
		return openai.ChatMessageRoleAssistant
	case conversation.RoleSystem:
		return openai.ChatMessageRoleSystem
	default:
		return openai.ChatMessageRoleUser
	}
}
