package docsync

import (
	"context"
	"fmt"
	"strings"

	"github.com/wupeiyao/larkchat/internal/domain/doc"
)

const (
	// DefaultSearchLimit 未指定 limit 时的检索条数
	DefaultSearchLimit = 5
	// MaxSearchLimit 检索条数上限
	MaxSearchLimit = 20
)

// Service 文档查询与手动同步
type Service struct {
	repo       doc.Repository
	index      doc.VectorIndex
	reconciler *Reconciler
}

// NewService 创建文档服务
func NewService(repo doc.Repository, index doc.VectorIndex, reconciler *Reconciler) *Service {
	return &Service{
		repo:       repo,
		index:      index,
		reconciler: reconciler,
	}
}

// List 列出本地已同步的文档
func (s *Service) List(ctx context.Context) ([]doc.DocView, error) {
	docs, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]doc.DocView, 0, len(docs))
	for _, d := range docs {
		views = append(views, d.View())
	}
	return views, nil
}

// Load 同步执行一轮同步
func (s *Service) Load(ctx context.Context, trigger string) (*doc.SyncReport, error) {
	return s.reconciler.Reconcile(ctx, trigger)
}

// Search 向量检索，limit 超出范围时取默认值或上限
func (s *Service) Search(ctx context.Context, query string, limit int) ([]doc.SearchHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []doc.SearchHit{}, nil
	}
	switch {
	case limit <= 0:
		limit = DefaultSearchLimit
	case limit > MaxSearchLimit:
		limit = MaxSearchLimit
	}

	hits, err := s.index.Search(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search documents: %w", err)
	}
	return hits, nil
}
