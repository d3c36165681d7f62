package docsync

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/wupeiyao/larkchat/internal/domain/doc"
	"github.com/wupeiyao/larkchat/internal/infrastructure/config"
	"github.com/wupeiyao/larkchat/internal/infrastructure/log"
)

// stopWaitTimeout Stop 等待进行中同步结束的上限
const stopWaitTimeout = 30 * time.Second

// Scheduler 定时同步调度器
type Scheduler struct {
	reconciler  *Reconciler
	enabled     bool
	interval    time.Duration
	stopTimeout time.Duration

	mu       sync.Mutex
	stopChan chan struct{}
	cancel   context.CancelFunc
	started  bool
	wg       sync.WaitGroup
	logger   *slog.Logger
}

// NewScheduler 创建调度器
func NewScheduler(reconciler *Reconciler, cfg *config.SyncConfig) *Scheduler {
	return &Scheduler{
		reconciler:  reconciler,
		enabled:     cfg.Enabled,
		interval:    cfg.Interval,
		stopTimeout: stopWaitTimeout,
		logger:      log.NewModuleLogger("docsync", "scheduler"),
	}
}

// Start 启动调度：立即同步一次，之后每隔 interval 同步一次
// Stop 之后可以再次 Start
func (s *Scheduler) Start() error {
	if !s.enabled {
		s.logger.Info("Document sync scheduler disabled")
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.started = true

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	stopChan := make(chan struct{})
	s.stopChan = stopChan

	var ticker *time.Ticker
	if s.interval > 0 {
		ticker = time.NewTicker(s.interval)
	}

	s.wg.Add(1)
	go s.runPeriodicSync(ctx, ticker, stopChan)

	s.logger.Info("Document sync scheduler started", "interval", s.interval)
	return nil
}

// Stop 停止调度器，可重复调用
// 返回前等待进行中的同步结束（最多 stopTimeout），之后才能安全关闭数据库
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	s.cancel()
	close(s.stopChan)
	s.mu.Unlock()

	s.wg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), s.stopTimeout)
	defer cancel()
	if err := s.reconciler.WaitIdle(ctx); err != nil {
		s.logger.Warn("Document sync still running after scheduler stop", "timeout", s.stopTimeout)
		return err
	}

	s.logger.Info("Document sync scheduler stopped")
	return nil
}

// runPeriodicSync 运行定时同步
func (s *Scheduler) runPeriodicSync(ctx context.Context, ticker *time.Ticker, stopChan <-chan struct{}) {
	defer s.wg.Done()

	s.syncOnce(ctx)

	if ticker == nil {
		<-stopChan
		return
	}
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.syncOnce(ctx)
		case <-stopChan:
			return
		}
	}
}

// syncOnce 执行一次同步，已有同步在执行时跳过本次
func (s *Scheduler) syncOnce(ctx context.Context) {
	_, err := s.reconciler.TryReconcile(ctx, doc.TriggerSchedule)
	switch {
	case err == nil:
	case errors.Is(err, doc.ErrSyncInProgress):
		s.logger.Debug("Skipping scheduled sync, another sync is running")
	case errors.Is(err, context.Canceled):
	default:
		// Reconciler 已记录错误详情
		s.logger.Warn("Scheduled sync failed", "error", err)
	}
}
