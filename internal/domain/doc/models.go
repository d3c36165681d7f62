package doc

import "time"

// RemoteDoc 远端文档快照（每次同步从飞书云空间拉取）
// ModifiedAt 是不透明令牌，只做相等比较
type RemoteDoc struct {
	ID         string
	Name       string
	URL        string
	ModifiedAt string
}

// LocalDoc 本地文档元数据（base_doc 表）
type LocalDoc struct {
	ID          int64  // 自增主键
	DocID       string // 远端文档 ID，唯一
	VectorDocID string // 向量索引条目 ID，空表示尚未写入
	Name        string
	URL         string
	ModifiedAt  string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasVector 是否已关联向量索引条目
func (d *LocalDoc) HasVector() bool {
	return d.VectorDocID != ""
}

// View 转换为对外展示结构
func (d *LocalDoc) View() DocView {
	return DocView{
		DocID: d.DocID,
		Name:  d.Name,
		URL:   d.URL,
	}
}

// DocView 文档列表项
type DocView struct {
	DocID string `json:"docId"`
	Name  string `json:"name"`
	URL   string `json:"url"`
}

// VectorDocument 写入向量索引的文档
type VectorDocument struct {
	DocID string
	Name  string
	URL   string
	Text  string
}

// SearchHit 向量检索命中
type SearchHit struct {
	VectorDocID string  `json:"vectorDocId"`
	DocID       string  `json:"docId"`
	Name        string  `json:"name"`
	URL         string  `json:"url"`
	Content     string  `json:"content"`
	Score       float32 `json:"score"`
}

// SyncReport 一次同步的结果
type SyncReport struct {
	Trigger    string    `json:"trigger"`
	Added      []string  `json:"added"`
	Updated    []string  `json:"updated"`
	Removed    []string  `json:"removed"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	Error      string    `json:"error,omitempty"`
}

// Changed 本次同步是否产生了写入
func (r *SyncReport) Changed() bool {
	return len(r.Added)+len(r.Updated)+len(r.Removed) > 0
}

// 同步触发来源
const (
	TriggerSchedule = "schedule"
	TriggerManual   = "manual"
	TriggerMCP      = "mcp"
	TriggerCLI      = "cli"
)
