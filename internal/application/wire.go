package application

import (
	"github.com/google/wire"
	"github.com/wupeiyao/larkchat/internal/application/chat"
	"github.com/wupeiyao/larkchat/internal/application/docsync"
)

// ProviderSet Application 层总 ProviderSet
var ProviderSet = wire.NewSet(
	docsync.ProviderSet,
	chat.ProviderSet,
)
