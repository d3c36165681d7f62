package docsync

import "github.com/wupeiyao/larkchat/internal/domain/doc"

// UpdatedDoc 需要重新向量化的文档
type UpdatedDoc struct {
	// Doc 保留自增 ID 和 DocID，名称、链接、修改时间取远端值；VectorDocID 待写入后回填
	Doc *doc.LocalDoc
	// OldVectorDocID 旧向量条目，只用于删除
	OldVectorDocID string
}

// Plan 一次同步的差异
type Plan struct {
	New     []doc.RemoteDoc
	Deleted []*doc.LocalDoc
	Updated []UpdatedDoc
}

// Empty 没有任何变更
func (p Plan) Empty() bool {
	return len(p.New) == 0 && len(p.Deleted) == 0 && len(p.Updated) == 0
}

// StaleVectorIDs 需要删除的向量条目：先删除集，再更新集的旧条目；跳过空 ID
func (p Plan) StaleVectorIDs() []string {
	ids := make([]string, 0, len(p.Deleted)+len(p.Updated))
	for _, d := range p.Deleted {
		if d.HasVector() {
			ids = append(ids, d.VectorDocID)
		}
	}
	for _, u := range p.Updated {
		if u.OldVectorDocID != "" {
			ids = append(ids, u.OldVectorDocID)
		}
	}
	return ids
}

// DeletedDocIDs 删除集的远端 ID
func (p Plan) DeletedDocIDs() []string {
	ids := make([]string, 0, len(p.Deleted))
	for _, d := range p.Deleted {
		ids = append(ids, d.DocID)
	}
	return ids
}

// ComputePlan 对比远端快照与本地记录
// 远端列表中重复的 ID 只保留第一次出现，重复项通过 duplicates 返回
func ComputePlan(remote []doc.RemoteDoc, local []*doc.LocalDoc) (plan Plan, duplicates []string) {
	localByID := make(map[string]*doc.LocalDoc, len(local))
	for _, d := range local {
		localByID[d.DocID] = d
	}

	seen := make(map[string]struct{}, len(remote))
	for _, rd := range remote {
		if _, dup := seen[rd.ID]; dup {
			duplicates = append(duplicates, rd.ID)
			continue
		}
		seen[rd.ID] = struct{}{}

		ld, ok := localByID[rd.ID]
		switch {
		case !ok:
			plan.New = append(plan.New, rd)
		case ld.ModifiedAt != rd.ModifiedAt:
			adopted := *ld
			adopted.Name = rd.Name
			adopted.URL = rd.URL
			adopted.ModifiedAt = rd.ModifiedAt
			adopted.VectorDocID = ""
			plan.Updated = append(plan.Updated, UpdatedDoc{Doc: &adopted, OldVectorDocID: ld.VectorDocID})
		}
	}

	for _, ld := range local {
		if _, ok := seen[ld.DocID]; !ok {
			plan.Deleted = append(plan.Deleted, ld)
		}
	}
	return plan, duplicates
}
