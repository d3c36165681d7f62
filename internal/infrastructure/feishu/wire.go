package feishu

import (
	"github.com/google/wire"
	"github.com/wupeiyao/larkchat/internal/domain/doc"
)

// ProviderSet 飞书文档源 ProviderSet
var ProviderSet = wire.NewSet(
	NewHTTPClient,
	NewTokenProvider,
	NewClient,
	wire.Bind(new(doc.RemoteLister), new(*Client)),
)
