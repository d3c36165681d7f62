package prompt

import "github.com/google/wire"

// ProviderSet 提示词 ProviderSet
var ProviderSet = wire.NewSet(NewStore)
