package interfaces

import (
	"github.com/google/wire"
	"github.com/wupeiyao/larkchat/internal/interfaces/http"
	"github.com/wupeiyao/larkchat/internal/interfaces/mcp"
)

// ProviderSet Interfaces 层总 ProviderSet
var ProviderSet = wire.NewSet(
	http.ProviderSet,
	mcp.ProviderSet,
)
