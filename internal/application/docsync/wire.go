package docsync

import "github.com/google/wire"

// ProviderSet 文档同步 ProviderSet
var ProviderSet = wire.NewSet(
	NewReconciler,
	NewScheduler,
	NewService,
)
