package wire

import (
	"errors"
	"log/slog"
	"net"

	"github.com/wupeiyao/larkchat/internal/application/docsync"
	"github.com/wupeiyao/larkchat/internal/domain/doc"
	applog "github.com/wupeiyao/larkchat/internal/infrastructure/log"
	"github.com/wupeiyao/larkchat/internal/infrastructure/prompt"
	"github.com/wupeiyao/larkchat/internal/infrastructure/websocket"
	"github.com/wupeiyao/larkchat/internal/interfaces"
)

// App 应用主结构，组合所有服务
type App struct {
	HTTPServer *interfaces.HTTPServer
	MCPServer  *interfaces.MCPServer
	wsHub      *websocket.Hub
	prompts    *prompt.Store
	scheduler  *docsync.Scheduler
	logger     *slog.Logger

	serveErr chan error
}

// NewApp 创建应用实例
func NewApp(
	httpServer *interfaces.HTTPServer,
	mcpServer *interfaces.MCPServer,
	wsHub *websocket.Hub,
	prompts *prompt.Store,
	scheduler *docsync.Scheduler,
) *App {
	return &App{
		HTTPServer: httpServer,
		MCPServer:  mcpServer,
		wsHub:      wsHub,
		prompts:    prompts,
		scheduler:  scheduler,
		logger:     applog.NewModuleLogger("app", "main"),
		serveErr:   make(chan error, 1),
	}
}

// noNotifier 命令行同步不推送通知
func noNotifier() doc.Notifier {
	return nil
}

// Start 启动所有服务，listener 来自单实例锁
func (a *App) Start(listener net.Listener) error {
	a.logger.Info("Starting larkchat")

	// 启动 WebSocket Hub
	a.wsHub.Start()

	// 提示词热加载失败不影响服务
	if err := a.prompts.Watch(); err != nil {
		a.logger.Error("Failed to watch prompt file",
			"error", err,
		)
	}

	// 启动 HTTP 服务器（goroutine）
	go func() {
		if err := a.HTTPServer.Serve(listener); err != nil {
			a.logger.Error("HTTP server exited",
				"error", err,
			)
			a.serveErr <- err
		}
	}()

	// 定时同步在 HTTP 服务器之后启动，首轮同步期间接口已可用
	if err := a.scheduler.Start(); err != nil {
		return err
	}

	a.logger.Info("larkchat started successfully", "addr", listener.Addr().String())
	return nil
}

// Errors HTTP 服务器异常退出时收到错误
func (a *App) Errors() <-chan error {
	return a.serveErr
}

// Stop 停止所有服务，数据库和向量索引连接由 wire cleanup 关闭
func (a *App) Stop() error {
	a.logger.Info("Stopping larkchat")

	var errs []error

	if err := a.HTTPServer.Stop(); err != nil {
		a.logger.Error("Failed to stop HTTP server",
			"error", err,
		)
		errs = append(errs, err)
	}

	if err := a.scheduler.Stop(); err != nil {
		a.logger.Error("Failed to stop sync scheduler",
			"error", err,
		)
		errs = append(errs, err)
	}

	a.prompts.Close()
	a.wsHub.Stop()

	a.logger.Info("larkchat stopped")
	return errors.Join(errs...)
}
