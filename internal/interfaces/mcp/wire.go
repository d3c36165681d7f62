package mcp

import (
	"github.com/google/wire"
	"github.com/wupeiyao/larkchat/internal/application/docsync"
)

// ProviderSet MCP ProviderSet
var ProviderSet = wire.NewSet(
	NewServer,
	wire.Bind(new(DocService), new(*docsync.Service)),
)
