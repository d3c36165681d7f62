package embedding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/wupeiyao/larkchat/internal/domain/doc"
	"github.com/wupeiyao/larkchat/internal/infrastructure/config"
	"github.com/wupeiyao/larkchat/internal/infrastructure/log"
)

// Client Embedding API 客户端（OpenAI 兼容协议）
type Client struct {
	api       *openai.Client
	model     string
	batchSize int
	logger    *slog.Logger
}

// NewClient 创建 Embedding 客户端
func NewClient(cfg *config.EmbeddingConfig) *Client {
	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 1
	}

	logger := log.NewModuleLogger("embedding", "client")
	logger.Debug("Embedding client created",
		"base_url", apiCfg.BaseURL,
		"model", cfg.Model,
		"api_key", config.MaskSecret(cfg.APIKey),
	)

	return &Client{
		api:       openai.NewClientWithConfig(apiCfg),
		model:     cfg.Model,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Embed 批量向量化文本，结果与输入一一对应
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, errors.New("texts cannot be empty")
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += c.batchSize {
		end := min(start+c.batchSize, len(texts))

		batch, err := c.embedBatch(ctx, texts[start:end])
		if err != nil {
			c.logger.Error("Failed to embed batch",
				"offset", start,
				"batch_size", end-start,
				"error", err,
			)
			return nil, err
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

func (c *Client) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(c.model),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: embeddings request failed: %v", doc.ErrUpstream, err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: embeddings returned %d vectors for %d inputs", doc.ErrUpstream, len(resp.Data), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(texts) {
			return nil, fmt.Errorf("%w: embeddings returned index %d out of range", doc.ErrUpstream, d.Index)
		}
		vectors[d.Index] = d.Embedding
	}
	for i, v := range vectors {
		if len(v) == 0 {
			return nil, fmt.Errorf("%w: embeddings missing vector for input %d", doc.ErrUpstream, i)
		}
	}

	c.logger.Debug("Embedding batch completed",
		"batch_size", len(texts),
		"total_tokens", resp.Usage.TotalTokens,
	)
	return vectors, nil
}
