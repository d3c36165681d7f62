package infrastructure

import (
	"github.com/google/wire"
	"github.com/wupeiyao/larkchat/internal/infrastructure/config"
	"github.com/wupeiyao/larkchat/internal/infrastructure/embedding"
	"github.com/wupeiyao/larkchat/internal/infrastructure/feishu"
	"github.com/wupeiyao/larkchat/internal/infrastructure/llm"
	"github.com/wupeiyao/larkchat/internal/infrastructure/prompt"
	"github.com/wupeiyao/larkchat/internal/infrastructure/storage"
	"github.com/wupeiyao/larkchat/internal/infrastructure/tokenizer"
	"github.com/wupeiyao/larkchat/internal/infrastructure/vector"
	"github.com/wupeiyao/larkchat/internal/infrastructure/websocket"
)

// SyncProviderSet 文档同步所需的基础设施
var SyncProviderSet = wire.NewSet(
	config.ProviderSet,
	storage.ProviderSet,
	feishu.ProviderSet,
	embedding.ProviderSet,
	tokenizer.ProviderSet,
	vector.ProviderSet,
)

// ProviderSet Infrastructure 层总 ProviderSet
var ProviderSet = wire.NewSet(
	SyncProviderSet,
	llm.ProviderSet,
	prompt.ProviderSet,
	websocket.ProviderSet,
)
