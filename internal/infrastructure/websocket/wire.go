package websocket

import (
	"github.com/google/wire"
	"github.com/wupeiyao/larkchat/internal/domain/doc"
)

// ProviderSet WebSocket ProviderSet
var ProviderSet = wire.NewSet(
	NewHub,
	NewServer,
	wire.Bind(new(doc.Notifier), new(*Hub)),
)
