package feishu

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/wupeiyao/larkchat/internal/domain/doc"
	"github.com/wupeiyao/larkchat/internal/infrastructure/config"
	"github.com/wupeiyao/larkchat/internal/infrastructure/log"
)

const (
	listFilesPath  = "/open-apis/drive/v1/files"
	rawContentPath = "/open-apis/docx/v1/documents/{document_id}/raw_content"
)

// Client 飞书云空间文档源
type Client struct {
	http       *resty.Client
	tokens     *TokenProvider
	rootFolder string
	pageSize   int
	maxPages   int
	docTypes   map[string]struct{}
	logger     *slog.Logger
}

var _ doc.RemoteLister = (*Client)(nil)

// NewHTTPClient 创建访问开放平台的 HTTP 客户端
func NewHTTPClient(cfg *config.FeishuConfig) *resty.Client {
	return resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")
}

// NewClient 创建飞书文档源
func NewClient(cfg *config.FeishuConfig, httpClient *resty.Client, tokens *TokenProvider) *Client {
	docTypes := make(map[string]struct{}, len(cfg.DocTypes))
	for _, t := range cfg.DocTypes {
		if t = strings.TrimSpace(strings.ToLower(t)); t != "" {
			docTypes[t] = struct{}{}
		}
	}

	return &Client{
		http:       httpClient,
		tokens:     tokens,
		rootFolder: cfg.RootFolder,
		pageSize:   cfg.PageSize,
		maxPages:   cfg.MaxPages,
		docTypes:   docTypes,
		logger:     log.NewModuleLogger("feishu", "client"),
	}
}

// ListDocs 列出根文件夹下的全部文档（自动翻页）
func (c *Client) ListDocs(ctx context.Context) ([]doc.RemoteDoc, error) {
	docs := make([]doc.RemoteDoc, 0)
	pageToken := ""

	for page := 0; page < c.maxPages; page++ {
		query := map[string]string{
			"folder_token": c.rootFolder,
			"page_size":    strconv.Itoa(c.pageSize),
		}
		if pageToken != "" {
			query["page_token"] = pageToken
		}

		var data listFilesData
		if err := c.get(ctx, "list_files", listFilesPath, query, nil, &data); err != nil {
			return nil, err
		}

		for _, f := range data.Files {
			if !c.acceptType(f.Type) {
				continue
			}
			docs = append(docs, doc.RemoteDoc{
				ID:         f.Token,
				Name:       f.Name,
				URL:        f.URL,
				ModifiedAt: f.ModifiedTime,
			})
		}

		if !data.HasMore || data.NextPageToken == "" {
			c.logger.Debug("Drive folder listed", "pages", page+1, "docs", len(docs))
			return docs, nil
		}
		pageToken = data.NextPageToken
	}

	// 不完整的清单会让同步误删文档，宁可整体失败
	return nil, fmt.Errorf("drive folder %s has more than %d pages of files, raise feishu.max_pages", c.rootFolder, c.maxPages)
}

// ReadContent 读取文档纯文本内容
func (c *Client) ReadContent(ctx context.Context, docID string) (string, error) {
	var data rawContentData
	err := c.get(ctx, "raw_content", rawContentPath,
		map[string]string{"lang": "0"},
		map[string]string{"document_id": docID},
		&data,
	)
	if err != nil {
		return "", err
	}
	return data.Content, nil
}

func (c *Client) acceptType(fileType string) bool {
	if len(c.docTypes) == 0 {
		return true
	}
	_, ok := c.docTypes[strings.ToLower(fileType)]
	return ok
}

// get 带凭证的 GET 请求，解析统一响应结构到 out
func (c *Client) get(ctx context.Context, op, path string, query, pathParams map[string]string, out any) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}

	req := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetQueryParams(query)
	if len(pathParams) > 0 {
		req.SetPathParams(pathParams)
	}

	resp, err := req.Get(path)
	if err != nil {
		return &UpstreamError{Op: op, Err: err}
	}

	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return &UpstreamError{Op: op, Status: resp.StatusCode(), Msg: "malformed response body", Err: err}
	}

	if resp.IsError() || env.Code != 0 {
		if isTokenInvalid(env.Code) {
			c.tokens.Invalidate()
		}
		c.logger.Warn("Feishu API returned error",
			"op", op,
			"status", resp.StatusCode(),
			"code", env.Code,
			"msg", env.Msg,
		)
		return &UpstreamError{Op: op, Status: resp.StatusCode(), Code: env.Code, Msg: env.Msg}
	}

	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &UpstreamError{Op: op, Status: resp.StatusCode(), Msg: "malformed data", Err: err}
	}
	return nil
}
