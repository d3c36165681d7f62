package llm

import (
	"fmt"

	"github.com/wupeiyao/larkchat/internal/domain/conversation"
	"github.com/wupeiyao/larkchat/internal/infrastructure/config"
)

// LLM 服务提供方
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// NewCompleter 按 llm.provider 选择补全实现
func NewCompleter(cfg *config.LLMConfig) (conversation.Completer, error) {
	switch cfg.Provider {
	case "", ProviderOpenAI:
		return NewOpenAICompleter(cfg), nil
	case ProviderAnthropic:
		return NewAnthropicCompleter(cfg), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q (want %s or %s)", cfg.Provider, ProviderOpenAI, ProviderAnthropic)
	}
}
