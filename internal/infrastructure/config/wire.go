package config

import "github.com/google/wire"

// ProviderSet 配置 ProviderSet
// *Config 由调用方注入（cmd 负责加载配置文件）
var ProviderSet = wire.NewSet(
	NewServerConfig,
	NewDatabaseConfig,
	NewFeishuConfig,
	NewVectorConfig,
	NewEmbeddingConfig,
	NewLLMConfig,
	NewChatConfig,
	NewPromptConfig,
	NewSyncConfig,
	NewWebSocketConfig,
)
