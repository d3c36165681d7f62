package tokenizer

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

// 在包初始化时设置离线加载器，避免运行时下载 BPE 文件
func init() {
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
}

// Encoding 默认编码（GPT-4 / DeepSeek 系列近似）
const Encoding = "cl100k_base"

// Estimator 基于 tiktoken 的 token 计数与截断
type Estimator struct {
	encoding *tiktoken.Tiktoken
	mu       sync.Mutex
}

var (
	instance *Estimator
	once     sync.Once
	initErr  error
)

// NewEstimator 获取 Estimator 单例
func NewEstimator() (*Estimator, error) {
	once.Do(func() {
		enc, err := tiktoken.GetEncoding(Encoding)
		if err != nil {
			initErr = fmt.Errorf("failed to load tiktoken encoding %s: %w", Encoding, err)
			return
		}
		instance = &Estimator{encoding: enc}
	})

	if initErr != nil {
		return nil, initErr
	}
	return instance, nil
}

// CountTokens 计算文本的 token 数
func (e *Estimator) CountTokens(text string) int {
	if text == "" {
		return 0
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	return len(e.encoding.Encode(text, nil, nil))
}

// Truncate 截断到最多 maxTokens 个 token，maxTokens <= 0 表示不截断
func (e *Estimator) Truncate(text string, maxTokens int) string {
	if maxTokens <= 0 || text == "" {
		return text
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	tokens := e.encoding.Encode(text, nil, nil)
	if len(tokens) <= maxTokens {
		return text
	}
	// 截断点可能落在多字节字符中间
	return strings.ToValidUTF8(e.encoding.Decode(tokens[:maxTokens]), "")
}
