// Package watcher 监听单个文件的变更
package watcher

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/wupeiyao/larkchat/internal/infrastructure/log"
)

// DefaultDebounceDelay 默认防抖延迟
const DefaultDebounceDelay = 200 * time.Millisecond

// FileWatcher 文件监听器
// 监听的是文件所在目录，文件被改名替换后仍然有效
type FileWatcher struct {
	path     string
	delay    time.Duration
	onChange func()
	watcher  *fsnotify.Watcher
	logger   *slog.Logger

	// 防抖相关
	timer   *time.Timer
	timerMu sync.Mutex

	// 控制
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewFileWatcher 创建文件监听器，path 被创建或写入后（防抖）调用 onChange
func NewFileWatcher(path string, delay time.Duration, onChange func()) (*FileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve watch path %s: %w", path, err)
	}
	if delay <= 0 {
		delay = DefaultDebounceDelay
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &FileWatcher{
		path:     abs,
		delay:    delay,
		onChange: onChange,
		watcher:  w,
		logger:   log.NewModuleLogger("watcher", "file_watcher"),
		stopCh:   make(chan struct{}),
	}, nil
}

// Start 启动监听，目录必须已存在
func (fw *FileWatcher) Start() error {
	dir := filepath.Dir(fw.path)
	if err := fw.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	fw.logger.Info("Starting file watcher", "path", fw.path)

	fw.wg.Add(1)
	go fw.watchLoop()
	return nil
}

// Stop 停止监听，可重复调用
func (fw *FileWatcher) Stop() {
	fw.stopOnce.Do(func() {
		close(fw.stopCh)
		fw.watcher.Close()
		fw.wg.Wait()

		fw.timerMu.Lock()
		if fw.timer != nil {
			fw.timer.Stop()
		}
		fw.timerMu.Unlock()

		fw.logger.Info("File watcher stopped", "path", fw.path)
	})
}

func (fw *FileWatcher) watchLoop() {
	defer fw.wg.Done()

	for {
		select {
		case <-fw.stopCh:
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handleFsEvent(event)

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Error("Watcher error", "error", err)
		}
	}
}

// handleFsEvent 只关心目标文件的创建和写入
func (fw *FileWatcher) handleFsEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != fw.path {
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}

	fw.timerMu.Lock()
	defer fw.timerMu.Unlock()

	if fw.timer != nil {
		fw.timer.Stop()
	}
	fw.timer = time.AfterFunc(fw.delay, func() {
		select {
		case <-fw.stopCh:
			return
		default:
		}
		fw.logger.Debug("Watched file changed", "path", fw.path)
		fw.onChange()
	})
}
