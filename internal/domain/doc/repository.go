package doc

import "context"

// Repository 本地文档仓储接口
type Repository interface {
	// ListAll 列出全部本地文档
	ListAll(ctx context.Context) ([]*LocalDoc, error)
	// SaveBatch 批量新增，回填自增 ID
	SaveBatch(ctx context.Context, docs []*LocalDoc) error
	// UpdateBatchByID 按自增 ID 批量更新
	UpdateBatchByID(ctx context.Context, docs []*LocalDoc) error
	// RemoveByDocIDs 按远端文档 ID 批量删除
	RemoveByDocIDs(ctx context.Context, docIDs []string) error
	// Transact 在单个事务中执行 fn，fn 返回错误时整体回滚
	Transact(ctx context.Context, fn func(repo Repository) error) error
}

// RemoteLister 远端文档源
type RemoteLister interface {
	// ListDocs 拉取完整的远端文档快照
	ListDocs(ctx context.Context) ([]RemoteDoc, error)
	// ReadContent 读取文档纯文本内容
	ReadContent(ctx context.Context, docID string) (string, error)
}

// VectorIndex 向量索引
// Delete 必须幂等：删除不存在的 ID 不报错
type VectorIndex interface {
	Write(ctx context.Context, doc VectorDocument) (string, error)
	Delete(ctx context.Context, vectorDocIDs []string) error
	Search(ctx context.Context, query string, limit int) ([]SearchHit, error)
}

// Notifier 同步结果通知
type Notifier interface {
	PublishSyncReport(report *SyncReport)
}
