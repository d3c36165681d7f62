package vector

import (
	"github.com/google/wire"
	"github.com/wupeiyao/larkchat/internal/infrastructure/embedding"
	"github.com/wupeiyao/larkchat/internal/infrastructure/tokenizer"
)

// ProviderSet 向量索引 ProviderSet
var ProviderSet = wire.NewSet(
	NewIndex,
	wire.Bind(new(Embedder), new(*embedding.Client)),
	wire.Bind(new(Truncator), new(*tokenizer.Estimator)),
)
