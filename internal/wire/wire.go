//go:build wireinject
// +build wireinject

package wire

import (
	"github.com/google/wire"
	"github.com/wupeiyao/larkchat/internal/application"
	"github.com/wupeiyao/larkchat/internal/application/docsync"
	"github.com/wupeiyao/larkchat/internal/infrastructure"
	"github.com/wupeiyao/larkchat/internal/infrastructure/config"
	"github.com/wupeiyao/larkchat/internal/interfaces"
)

// InitializeApp 初始化所有服务（HTTP + MCP + 定时同步）
func InitializeApp(cfg *config.Config) (*App, func(), error) {
	wire.Build(
		// 按层组合 ProviderSet
		infrastructure.ProviderSet, // 基础设施层
		application.ProviderSet,    // 应用层
		interfaces.ProviderSet,     // 接口层
		NewApp,                     // 组合所有服务的应用结构
	)
	return nil, nil, nil
}

// InitializeReconciler 只初始化文档同步（命令行 sync），不发布通知
func InitializeReconciler(cfg *config.Config) (*docsync.Reconciler, func(), error) {
	wire.Build(
		infrastructure.SyncProviderSet,
		docsync.NewReconciler,
		noNotifier,
	)
	return nil, nil, nil
}
