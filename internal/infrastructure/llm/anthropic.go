package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/wupeiyao/larkchat/internal/domain/conversation"
	"github.com/wupeiyao/larkchat/internal/domain/doc"
	"github.com/wupeiyao/larkchat/internal/infrastructure/config"
	"github.com/wupeiyao/larkchat/internal/infrastructure/log"
)

// AnthropicCompleter Anthropic Messages API
type AnthropicCompleter struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	logger    *slog.Logger
}

var _ conversation.Completer = (*AnthropicCompleter)(nil)

// NewAnthropicCompleter 创建 Anthropic 补全客户端
func NewAnthropicCompleter(cfg *config.LLMConfig) *AnthropicCompleter {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	maxTokens := int64(cfg.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	return &AnthropicCompleter{
		client:    anthropic.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: maxTokens,
		logger:    log.NewModuleLogger("llm", "anthropic"),
	}
}

// Complete Anthropic 没有 system 角色消息，历史中的 system 消息并入 System 字段
func (c *AnthropicCompleter) Complete(ctx context.Context, req conversation.CompletionRequest) (string, error) {
	system := []string{}
	if req.System != "" {
		system = append(system, req.System)
	}

	messages := make([]anthropic.MessageParam, 0, len(req.History)+1)
	for _, m := range req.History {
		switch m.Role {
		case conversation.RoleSystem:
			system = append(system, m.Content)
		case conversation.RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(req.User)))

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   c.maxTokens,
		Messages:    messages,
		Temperature: anthropic.Float(req.Temperature),
	}
	if len(system) > 0 {
		params.System = []anthropic.TextBlockParam{{Text: strings.Join(system, "\n\n")}}
	}

	c.logger.Debug("Sending messages request", "model", c.model, "messages", len(messages))

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%w: anthropic messages failed: %v", doc.ErrUpstream, err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String(), nil
}
