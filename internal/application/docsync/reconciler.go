// Package docsync 将飞书云空间文档同步到本地文档表和向量索引
package docsync

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/wupeiyao/larkchat/internal/domain/doc"
	"github.com/wupeiyao/larkchat/internal/infrastructure/config"
	"github.com/wupeiyao/larkchat/internal/infrastructure/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	reconcileKey        = "reconcile"
	compensationTimeout = 30 * time.Second
	idlePollInterval    = 20 * time.Millisecond
)

// Reconciler 文档同步引擎
// 同一时刻最多只有一轮同步在执行
type Reconciler struct {
	repo        doc.Repository
	remote      doc.RemoteLister
	index       doc.VectorIndex
	notifier    doc.Notifier // 可为 nil
	concurrency int
	timeout     time.Duration

	group   singleflight.Group
	running atomic.Bool
	pending atomic.Int32 // 尚未拿到结果的调用方
	logger  *slog.Logger
}

// NewReconciler 创建同步引擎
func NewReconciler(
	repo doc.Repository,
	remote doc.RemoteLister,
	index doc.VectorIndex,
	notifier doc.Notifier,
	cfg *config.SyncConfig,
) *Reconciler {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Reconciler{
		repo:        repo,
		remote:      remote,
		index:       index,
		notifier:    notifier,
		concurrency: concurrency,
		timeout:     cfg.Timeout,
		logger:      log.NewModuleLogger("docsync", "reconciler"),
	}
}

// Running 是否有同步在执行
func (r *Reconciler) Running() bool {
	return r.running.Load()
}

// WaitIdle 等待进行中的同步结束
func (r *Reconciler) WaitIdle(ctx context.Context) error {
	ticker := time.NewTicker(idlePollInterval)
	defer ticker.Stop()

	for r.running.Load() || r.pending.Load() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// Reconcile 执行一轮同步；已有同步在执行时等待并共享其结果
// ctx 取消只让调用方提前返回，不会中断进行中的同步
func (r *Reconciler) Reconcile(ctx context.Context, trigger string) (*doc.SyncReport, error) {
	r.pending.Add(1)
	ch := r.group.DoChan(reconcileKey, func() (any, error) {
		return r.run(context.WithoutCancel(ctx), trigger)
	})

	select {
	case res := <-ch:
		r.pending.Add(-1)
		report, _ := res.Val.(*doc.SyncReport)
		return report, res.Err
	case <-ctx.Done():
		// 同步仍在后台执行，结束后才算空闲
		go func() {
			<-ch
			r.pending.Add(-1)
		}()
		return nil, ctx.Err()
	}
}

// TryReconcile 已有同步在执行时立即返回 ErrSyncInProgress
func (r *Reconciler) TryReconcile(ctx context.Context, trigger string) (*doc.SyncReport, error) {
	if r.running.Load() {
		return nil, doc.ErrSyncInProgress
	}
	return r.Reconcile(ctx, trigger)
}

// run 执行一轮同步并发布报告
func (r *Reconciler) run(ctx context.Context, trigger string) (*doc.SyncReport, error) {
	r.running.Store(true)
	defer r.running.Store(false)

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	ctx = log.WithSyncID(ctx, uuid.NewString()[:8])

	report := &doc.SyncReport{
		Trigger:   trigger,
		Added:     []string{},
		Updated:   []string{},
		Removed:   []string{},
		StartedAt: time.Now(),
	}

	r.logger.InfoContext(ctx, "Document sync started", "trigger", trigger)

	err := r.pass(ctx, report)
	report.FinishedAt = time.Now()
	duration := report.FinishedAt.Sub(report.StartedAt)

	if err != nil {
		report.Error = err.Error()
		r.logger.ErrorContext(ctx, "Document sync failed", "trigger", trigger, "duration", duration, "error", err)
	} else {
		r.logger.InfoContext(ctx, "Document sync finished",
			"trigger", trigger,
			"added", len(report.Added),
			"updated", len(report.Updated),
			"removed", len(report.Removed),
			"duration", duration,
		)
	}

	if r.notifier != nil {
		r.notifier.PublishSyncReport(report)
	}
	return report, err
}

// pass 同步主流程
// 顺序：拉取全部正文 -> 删除旧向量 -> 写入新向量 -> 单事务落库
// 向量写入或落库失败时删除本轮已写入的向量
func (r *Reconciler) pass(ctx context.Context, report *doc.SyncReport) error {
	remote, err := r.remote.ListDocs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list remote docs: %w", err)
	}
	local, err := r.repo.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to list local docs: %w", err)
	}

	plan, duplicates := ComputePlan(remote, local)
	for _, id := range duplicates {
		r.logger.WarnContext(ctx, "Duplicate doc in remote listing, keeping first occurrence", "doc_id", id)
	}
	if plan.Empty() {
		r.logger.DebugContext(ctx, "No document changes", "remote", len(remote), "local", len(local))
		return nil
	}

	contents, err := r.fetchContents(ctx, plan)
	if err != nil {
		return err
	}

	if stale := plan.StaleVectorIDs(); len(stale) > 0 {
		if err := r.index.Delete(ctx, stale); err != nil {
			return fmt.Errorf("failed to delete stale vectors: %w", err)
		}
	}

	written := make([]string, 0, len(plan.New)+len(plan.Updated))

	newRows := make([]*doc.LocalDoc, 0, len(plan.New))
	for _, rd := range plan.New {
		vectorID, err := r.index.Write(ctx, doc.VectorDocument{DocID: rd.ID, Name: rd.Name, URL: rd.URL, Text: contents[rd.ID]})
		if err != nil {
			r.compensate(ctx, written)
			return fmt.Errorf("failed to write vector for doc %s: %w", rd.ID, err)
		}
		written = append(written, vectorID)
		newRows = append(newRows, &doc.LocalDoc{
			DocID:       rd.ID,
			VectorDocID: vectorID,
			Name:        rd.Name,
			URL:         rd.URL,
			ModifiedAt:  rd.ModifiedAt,
		})
	}

	updatedRows := make([]*doc.LocalDoc, 0, len(plan.Updated))
	for _, u := range plan.Updated {
		d := u.Doc
		vectorID, err := r.index.Write(ctx, doc.VectorDocument{DocID: d.DocID, Name: d.Name, URL: d.URL, Text: contents[d.DocID]})
		if err != nil {
			r.compensate(ctx, written)
			return fmt.Errorf("failed to write vector for doc %s: %w", d.DocID, err)
		}
		written = append(written, vectorID)
		d.VectorDocID = vectorID
		updatedRows = append(updatedRows, d)
	}

	deletedIDs := plan.DeletedDocIDs()
	err = r.repo.Transact(ctx, func(repo doc.Repository) error {
		if err := repo.SaveBatch(ctx, newRows); err != nil {
			return err
		}
		if err := repo.RemoveByDocIDs(ctx, deletedIDs); err != nil {
			return err
		}
		return repo.UpdateBatchByID(ctx, updatedRows)
	})
	if err != nil {
		r.compensate(ctx, written)
		return fmt.Errorf("failed to persist doc changes: %w", err)
	}

	for _, d := range newRows {
		report.Added = append(report.Added, d.DocID)
	}
	for _, d := range updatedRows {
		report.Updated = append(report.Updated, d.DocID)
	}
	report.Removed = append(report.Removed, deletedIDs...)
	return nil
}

// fetchContents 并发拉取新增和更新文档的正文，任一失败则整体失败
func (r *Reconciler) fetchContents(ctx context.Context, plan Plan) (map[string]string, error) {
	ids := make([]string, 0, len(plan.New)+len(plan.Updated))
	for _, rd := range plan.New {
		ids = append(ids, rd.ID)
	}
	for _, u := range plan.Updated {
		ids = append(ids, u.Doc.DocID)
	}

	texts := make([]string, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			text, err := r.remote.ReadContent(gctx, id)
			if err != nil {
				return fmt.Errorf("failed to read content of doc %s: %w", id, err)
			}
			texts[i] = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	contents := make(map[string]string, len(ids))
	for i, id := range ids {
		contents[id] = texts[i]
	}
	return contents, nil
}

// compensate 尽力删除本轮写入的向量
func (r *Reconciler) compensate(ctx context.Context, vectorIDs []string) {
	if len(vectorIDs) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	if err := r.index.Delete(ctx, vectorIDs); err != nil {
		r.logger.WarnContext(ctx, "Failed to remove vectors written in aborted sync", "count", len(vectorIDs), "error", err)
		return
	}
	r.logger.InfoContext(ctx, "Removed vectors written in aborted sync", "count", len(vectorIDs))
}
