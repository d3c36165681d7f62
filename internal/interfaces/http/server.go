package http

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/wupeiyao/larkchat/internal/infrastructure/config"
	"github.com/wupeiyao/larkchat/internal/infrastructure/log"
	"github.com/wupeiyao/larkchat/internal/interfaces/http/handler"
	"github.com/wupeiyao/larkchat/internal/interfaces/http/middleware"
	"github.com/wupeiyao/larkchat/internal/interfaces/mcp"

	_ "github.com/wupeiyao/larkchat/docs" // Swagger docs
)

// HTTPServer HTTP 服务器
type HTTPServer struct {
	router   *gin.Engine
	httpPort string
	server   *http.Server
	logger   *slog.Logger
}

// NewServer 创建 HTTP 服务器
func NewServer(
	cfg *config.ServerConfig,
	docHandler *handler.DocHandler,
	conversationHandler *handler.ConversationHandler,
	wsHandler *handler.WSHandler,
	mcpServer *mcp.MCPServer,
) *HTTPServer {
	if !log.IsDebugMode() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.AccessLog(),
		middleware.CORS(),
		middleware.EnsureUTF8(),
	)

	logger := log.NewModuleLogger("http", "server")

	// 注册路由
	api := router.Group("/api/v1")
	{
		doc := api.Group("/doc")
		{
			doc.GET("/list", docHandler.List)
			doc.POST("/load", docHandler.Load)
			doc.GET("/load", docHandler.Load)
			doc.GET("/search", docHandler.Search)
		}

		conversation := api.Group("/conversation")
		{
			conversation.POST("/create", conversationHandler.Create)
			conversation.PUT("/edit", conversationHandler.Edit)
			conversation.GET("/chat", conversationHandler.Chat)
			conversation.POST("/chat", conversationHandler.Chat)
			conversation.DELETE("/del", conversationHandler.Delete)
			conversation.GET("/list", conversationHandler.List)
			conversation.GET("/get", conversationHandler.Get)
		}

		api.GET("/ws", wsHandler.Docs)
	}

	// 健康检查
	router.GET("/health", handler.Health)

	// Swagger UI
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// MCP SSE 端点
	if cfg.MCPEnabled && mcpServer != nil {
		router.Any("/mcp/sse", gin.WrapH(mcpServer.GetHandler()))
	}

	return &HTTPServer{
		router:   router,
		httpPort: cfg.HTTPPort,
		server: &http.Server{
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Handler 路由，供测试使用
func (s *HTTPServer) Handler() http.Handler {
	return s.router
}

// Serve 在已监听的端口上提供服务，阻塞到服务器关闭
// 监听器来自单实例锁
func (s *HTTPServer) Serve(listener net.Listener) error {
	s.logger.Info("HTTP server starting",
		"addr", listener.Addr().String(),
	)

	err := s.server.Serve(listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Addr 配置的监听地址
func (s *HTTPServer) Addr() string {
	return s.httpPort
}

// Shutdown 优雅关闭
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Stop 停止服务器
func (s *HTTPServer) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Shutdown(ctx)
}
