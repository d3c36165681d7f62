package chat

import (
	"github.com/google/wire"
	"github.com/wupeiyao/larkchat/internal/domain/doc"
	"github.com/wupeiyao/larkchat/internal/infrastructure/prompt"
	"github.com/wupeiyao/larkchat/internal/infrastructure/tokenizer"
)

// ProviderSet 对话 ProviderSet
var ProviderSet = wire.NewSet(
	NewMemory,
	NewConversationService,
	NewService,
	ProvideSearcher,
	wire.Bind(new(Tokenizer), new(*tokenizer.Estimator)),
	wire.Bind(new(PromptSource), new(*prompt.Store)),
)

// ProvideSearcher 参考文档直接从向量索引检索
func ProvideSearcher(index doc.VectorIndex) Searcher {
	return index
}
