package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/wupeiyao/larkchat/internal/domain/doc"
)

// ListDocumentsInput 无参数
type ListDocumentsInput struct{}

// DocumentItem 文档
type DocumentItem struct {
	DocID string `json:"doc_id" jsonschema:"Feishu document token"`
	Name  string `json:"name" jsonschema:"document title"`
	URL   string `json:"url" jsonschema:"document link"`
}

// ListDocumentsOutput 文档列表
type ListDocumentsOutput struct {
	Documents  []DocumentItem `json:"documents" jsonschema:"synchronized documents"`
	TotalCount int            `json:"total_count" jsonschema:"number of documents"`
}

// SyncDocumentsInput 无参数
type SyncDocumentsInput struct{}

// SyncDocumentsOutput 同步报告
type SyncDocumentsOutput struct {
	Added      []string `json:"added" jsonschema:"doc ids added in this pass"`
	Updated    []string `json:"updated" jsonschema:"doc ids re-indexed in this pass"`
	Removed    []string `json:"removed" jsonschema:"doc ids removed in this pass"`
	StartedAt  string   `json:"started_at" jsonschema:"RFC3339 start time"`
	FinishedAt string   `json:"finished_at" jsonschema:"RFC3339 finish time"`
}

// SearchDocumentsInput 检索参数
type SearchDocumentsInput struct {
	Query string `json:"query" jsonschema:"search query in natural language (required)"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results, defaults to 5, max 20"`
}

// SearchResult 检索结果
type SearchResult struct {
	DocID   string  `json:"doc_id" jsonschema:"Feishu document token"`
	Name    string  `json:"name" jsonschema:"document title"`
	URL     string  `json:"url" jsonschema:"document link"`
	Content string  `json:"content" jsonschema:"indexed document text"`
	Score   float32 `json:"score" jsonschema:"cosine similarity"`
}

// SearchDocumentsOutput 检索结果列表
type SearchDocumentsOutput struct {
	Results    []SearchResult `json:"results" jsonschema:"matching documents, best first"`
	TotalCount int            `json:"total_count" jsonschema:"number of results"`
}

func (s *MCPServer) listDocumentsTool(ctx context.Context, _ *mcp.CallToolRequest, _ ListDocumentsInput) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	output := ListDocumentsOutput{Documents: []DocumentItem{}}

	views, err := s.docs.List(ctx)
	if err != nil {
		return nil, output, fmt.Errorf("failed to list documents: %w", err)
	}
	for _, v := range views {
		output.Documents = append(output.Documents, DocumentItem{DocID: v.DocID, Name: v.Name, URL: v.URL})
	}
	output.TotalCount = len(output.Documents)
	return nil, output, nil
}

func (s *MCPServer) syncDocumentsTool(ctx context.Context, _ *mcp.CallToolRequest, _ SyncDocumentsInput) (*mcp.CallToolResult, SyncDocumentsOutput, error) {
	report, err := s.docs.Load(ctx, doc.TriggerMCP)
	if err != nil {
		s.logger.WarnContext(ctx, "Sync via MCP failed", "error", err)
		return nil, SyncDocumentsOutput{}, fmt.Errorf("document sync failed: %w", err)
	}

	return nil, SyncDocumentsOutput{
		Added:      report.Added,
		Updated:    report.Updated,
		Removed:    report.Removed,
		StartedAt:  report.StartedAt.Format(time.RFC3339),
		FinishedAt: report.FinishedAt.Format(time.RFC3339),
	}, nil
}

func (s *MCPServer) searchDocumentsTool(ctx context.Context, _ *mcp.CallToolRequest, input SearchDocumentsInput) (*mcp.CallToolResult, SearchDocumentsOutput, error) {
	output := SearchDocumentsOutput{Results: []SearchResult{}}

	if strings.TrimSpace(input.Query) == "" {
		return nil, output, fmt.Errorf("query is required")
	}

	hits, err := s.docs.Search(ctx, input.Query, input.Limit)
	if err != nil {
		return nil, output, err
	}
	for _, h := range hits {
		output.Results = append(output.Results, SearchResult{
			DocID:   h.DocID,
			Name:    h.Name,
			URL:     h.URL,
			Content: h.Content,
			Score:   h.Score,
		})
	}
	output.TotalCount = len(output.Results)
	return nil, output, nil
}
