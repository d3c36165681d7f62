package storage

import (
	"github.com/google/wire"
	"github.com/wupeiyao/larkchat/internal/domain/conversation"
	"github.com/wupeiyao/larkchat/internal/domain/doc"
)

// ProviderSet Storage 基础设施层 ProviderSet
var ProviderSet = wire.NewSet(
	ProvideDB,                 // 提供数据库连接
	NewDocRepository,          // 文档表仓储
	NewConversationRepository, // 会话表仓储
	wire.Bind(new(doc.Repository), new(*DocRepository)),
	wire.Bind(new(conversation.Repository), new(*ConversationRepository)),
)
