package vector

import (
	"context"
	"errors"
	"strings"

	"github.com/wupeiyao/larkchat/internal/domain/doc"
)

// Embedder 文本向量化
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Truncator 按 token 数截断文本
type Truncator interface {
	Truncate(text string, maxTokens int) string
}

// 向量条目 payload 字段
const (
	payloadDocID   = "doc_id"
	payloadDocName = "doc_name"
	payloadURL     = "url"
	payloadContent = "content"
)

// textBuilder 生成参与向量化的文本：标题 + 正文，按 token 上限截断
type textBuilder struct {
	truncator Truncator
	maxTokens int
}

func (b textBuilder) build(d doc.VectorDocument) string {
	text := strings.TrimSpace(d.Text)
	if name := strings.TrimSpace(d.Name); name != "" {
		if text == "" {
			text = name
		} else {
			text = name + "\n\n" + text
		}
	}
	if b.truncator == nil {
		return text
	}
	return b.truncator.Truncate(text, b.maxTokens)
}

// embedOne 向量化单条文本
func embedOne(ctx context.Context, embedder Embedder, text string) ([]float32, error) {
	vectors, err := embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, errors.New("embedding service returned no vector")
	}
	return vectors[0], nil
}
