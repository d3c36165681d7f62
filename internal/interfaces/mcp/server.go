package mcp

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/wupeiyao/larkchat/internal/domain/doc"
	"github.com/wupeiyao/larkchat/internal/infrastructure/log"
)

// Version MCP 服务版本
const Version = "0.1.0"

// DocService MCP 工具依赖的文档服务
type DocService interface {
	List(ctx context.Context) ([]doc.DocView, error)
	Load(ctx context.Context, trigger string) (*doc.SyncReport, error)
	Search(ctx context.Context, query string, limit int) ([]doc.SearchHit, error)
}

// MCPServer MCP 服务器
type MCPServer struct {
	server  *mcp.Server
	handler http.Handler
	docs    DocService
	logger  *slog.Logger
}

// NewServer 创建 MCP 服务器并注册知识库工具
func NewServer(docs DocService) *MCPServer {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "larkchat",
			Version: Version,
		},
		nil,
	)

	s := &MCPServer{
		server: server,
		docs:   docs,
		logger: log.NewModuleLogger("mcp", "server"),
	}

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_documents",
		Description: "List the Feishu documents that have been synchronized into the knowledge base. No parameters required. Returns: documents with doc_id, name and url.",
	}, s.listDocumentsTool)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "sync_documents",
		Description: "Synchronize the knowledge base with the Feishu folder now and wait for the pass to finish. If a sync is already running, waits for it and returns its report. Returns: added, updated and removed doc ids.",
	}, s.syncDocumentsTool)

	mcp.AddTool(server, &mcp.Tool{
		Name: "search_documents",
		Description: `Semantic search over the synchronized Feishu documents.
Parameters:
- query (string, required): what to look for, in natural language
- limit (int, optional): max results, default 5, max 20
Returns: matching documents with name, url, content excerpt and similarity score.`,
	}, s.searchDocumentsTool)

	s.handler = mcp.NewSSEHandler(
		func(r *http.Request) *mcp.Server {
			return server
		},
		nil,
	)
	return s
}

// GetHandler SSE 端点，挂载到 HTTP 服务器
func (s *MCPServer) GetHandler() http.Handler {
	return s.handler
}

// Server 底层 MCP 服务器
func (s *MCPServer) Server() *mcp.Server {
	return s.server
}
