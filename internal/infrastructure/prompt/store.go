// Package prompt 管理对话系统提示词与采样温度
package prompt

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/wupeiyao/larkchat/internal/infrastructure/config"
	"github.com/wupeiyao/larkchat/internal/infrastructure/log"
	"github.com/wupeiyao/larkchat/internal/infrastructure/watcher"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultSystem 内置系统提示词
	DefaultSystem = "你是企业知识库助手。优先依据提供的参考文档回答问题，并在回答末尾列出引用文档的标题和链接；" +
		"参考文档中没有相关内容时，如实说明不知道，不要编造。"
	// DefaultTemperature 默认采样温度
	DefaultTemperature = 0.7
)

// Prompt 提示词配置
type Prompt struct {
	System      string
	Temperature float64
}

// Default 内置默认值
func Default() Prompt {
	return Prompt{System: DefaultSystem, Temperature: DefaultTemperature}
}

// promptFile prompts.yaml 的结构，缺省字段沿用默认值
type promptFile struct {
	System      *string  `yaml:"system"`
	Temperature *float64 `yaml:"temperature"`
}

// Store 提示词存储，支持文件热加载
type Store struct {
	path   string
	watch  bool
	logger *slog.Logger

	mu      sync.RWMutex
	current Prompt

	watcher *watcher.FileWatcher
}

// NewStore 创建提示词存储并加载一次
// 文件不存在使用默认值；解析失败记录日志并使用默认值
func NewStore(cfg *config.PromptConfig) *Store {
	s := &Store{
		path:    cfg.File,
		watch:   cfg.Watch,
		logger:  log.NewModuleLogger("prompt", "store"),
		current: Default(),
	}
	if err := s.Reload(); err != nil {
		s.logger.Warn("Failed to load prompt file, using defaults", "path", s.path, "error", err)
	}
	return s
}

// Current 当前生效的提示词
func (s *Store) Current() Prompt {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Reload 重新读取文件；出错时保留当前值
func (s *Store) Reload() error {
	p, err := load(s.path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.current = p
	s.mu.Unlock()

	s.logger.Debug("Prompt loaded", "path", s.path, "temperature", p.Temperature)
	return nil
}

// Watch 启动文件监听（prompt.watch=false 时不做任何事）
func (s *Store) Watch() error {
	if !s.watch || s.path == "" {
		return nil
	}

	fw, err := watcher.NewFileWatcher(s.path, watcher.DefaultDebounceDelay, func() {
		if err := s.Reload(); err != nil {
			s.logger.Error("Failed to reload prompt file, keeping previous prompt", "path", s.path, "error", err)
			return
		}
		s.logger.Info("Prompt file reloaded", "path", s.path)
	})
	if err != nil {
		return err
	}
	if err := fw.Start(); err != nil {
		fw.Stop()
		return err
	}
	s.watcher = fw
	return nil
}

// Close 停止文件监听
func (s *Store) Close() {
	if s.watcher != nil {
		s.watcher.Stop()
	}
}

// load 读取并解析提示词文件
func load(path string) (Prompt, error) {
	p := Default()
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return p, nil
		}
		return p, fmt.Errorf("failed to read prompt file: %w", err)
	}

	var f promptFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return p, fmt.Errorf("failed to parse prompt file: %w", err)
	}

	if f.System != nil && strings.TrimSpace(*f.System) != "" {
		p.System = strings.TrimSpace(*f.System)
	}
	if f.Temperature != nil {
		if *f.Temperature < 0 || *f.Temperature > 2 {
			return p, fmt.Errorf("temperature %.2f out of range [0, 2]", *f.Temperature)
		}
		p.Temperature = *f.Temperature
	}
	return p, nil
}
