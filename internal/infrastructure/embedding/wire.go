package embedding

import "github.com/google/wire"

// ProviderSet Embedding ProviderSet
var ProviderSet = wire.NewSet(NewClient)
