package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	applog "github.com/wupeiyao/larkchat/internal/infrastructure/log"
)

const (
	// EnvPrefix 环境变量前缀，键中的 . 替换为 _，如 LARKCHAT_FEISHU_APP_ID
	EnvPrefix = "LARKCHAT"
	// EnvHTTPPort HTTP 端口环境变量名
	EnvHTTPPort = "LARKCHAT_SERVER_HTTP_PORT"
	// DefaultConfigName 默认配置文件名（不含扩展名）
	DefaultConfigName = "config"
)

// Config 应用配置
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Feishu    FeishuConfig    `mapstructure:"feishu"`
	Vector    VectorConfig    `mapstructure:"vector"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Chat      ChatConfig      `mapstructure:"chat"`
	Prompt    PromptConfig    `mapstructure:"prompt"`
	Sync      SyncConfig      `mapstructure:"sync"`
	WebSocket WebSocketConfig `mapstructure:"websocket"`
	Log       applog.Config   `mapstructure:"log"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	HTTPPort   string `mapstructure:"http_port"` // 固定端口，用于单例锁
	MCPEnabled bool   `mapstructure:"mcp_enabled"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Path string `mapstructure:"path"` // 留空使用 <data_dir>/larkchat.db
}

// FeishuConfig 飞书开放平台配置
type FeishuConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	AppID      string `mapstructure:"app_id"`
	AppSecret  string `mapstructure:"app_secret"`
	RootFolder string `mapstructure:"root_folder"`
	PageSize   int    `mapstructure:"page_size"`
	MaxPages   int    `mapstructure:"max_pages"`
	// DocTypes 参与同步的文件类型，只有 docx 支持 raw_content
	DocTypes           []string      `mapstructure:"doc_types"`
	TokenTTL           time.Duration `mapstructure:"token_ttl"`
	TokenCacheCapacity uint64        `mapstructure:"token_cache_capacity"`
	Timeout            time.Duration `mapstructure:"timeout"`
}

// VectorConfig 向量索引配置
type VectorConfig struct {
	// Provider qdrant 或 sqlite
	Provider   string       `mapstructure:"provider"`
	Collection string       `mapstructure:"collection"`
	Qdrant     QdrantConfig `mapstructure:"qdrant"`
}

// QdrantConfig Qdrant 连接配置
type QdrantConfig struct {
	Host   string `mapstructure:"host"`
	Port   int    `mapstructure:"port"` // gRPC 端口
	APIKey string `mapstructure:"api_key"`
	UseTLS bool   `mapstructure:"use_tls"`
}

// EmbeddingConfig 向量化 API 配置（OpenAI 兼容）
type EmbeddingConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	APIKey    string `mapstructure:"api_key"`
	Model     string `mapstructure:"model"`
	BatchSize int    `mapstructure:"batch_size"`
	MaxTokens int    `mapstructure:"max_tokens"`
}

// LLMConfig 对话模型配置
type LLMConfig struct {
	// Provider openai（含 DeepSeek 等兼容服务）或 anthropic
	Provider  string `mapstructure:"provider"`
	BaseURL   string `mapstructure:"base_url"`
	APIKey    string `mapstructure:"api_key"`
	Model     string `mapstructure:"model"`
	MaxTokens int    `mapstructure:"max_tokens"`
}

// ChatConfig 对话配置
type ChatConfig struct {
	// MemoryWindow 读取的历史消息条数（取前 N 条）
	MemoryWindow int `mapstructure:"memory_window"`
	// HistoryTokenBudget 历史消息 token 上限，0 表示不限制
	HistoryTokenBudget int `mapstructure:"history_token_budget"`
	// RetrievalLimit 检索的参考文档数，0 表示关闭检索
	RetrievalLimit int `mapstructure:"retrieval_limit"`
}

// PromptConfig 提示词配置
type PromptConfig struct {
	File  string `mapstructure:"file"` // 留空使用 <data_dir>/prompts.yaml
	Watch bool   `mapstructure:"watch"`
}

// SyncConfig 文档同步配置
type SyncConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Interval    time.Duration `mapstructure:"interval"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Concurrency int           `mapstructure:"concurrency"`
}

// WebSocketConfig WebSocket 配置
type WebSocketConfig struct {
	ReadBufferSize  int `mapstructure:"read_buffer_size"`
	WriteBufferSize int `mapstructure:"write_buffer_size"`
}

// setDefaults 注册全部默认值，同时让 AutomaticEnv 能识别所有键
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http_port", ":8080")
	v.SetDefault("server.mcp_enabled", true)

	v.SetDefault("database.path", "")

	v.SetDefault("feishu.base_url", "https://open.feishu.cn")
	v.SetDefault("feishu.app_id", "")
	v.SetDefault("feishu.app_secret", "")
	v.SetDefault("feishu.root_folder", "")
	v.SetDefault("feishu.page_size", 50)
	v.SetDefault("feishu.max_pages", 20)
	v.SetDefault("feishu.doc_types", []string{"docx"})
	v.SetDefault("feishu.token_ttl", 100*time.Minute)
	v.SetDefault("feishu.token_cache_capacity", 1000)
	v.SetDefault("feishu.timeout", 30*time.Second)

	v.SetDefault("vector.provider", "qdrant")
	v.SetDefault("vector.collection", "larkchat_docs")
	v.SetDefault("vector.qdrant.host", "localhost")
	v.SetDefault("vector.qdrant.port", 6334)
	v.SetDefault("vector.qdrant.api_key", "")
	v.SetDefault("vector.qdrant.use_tls", false)

	v.SetDefault("embedding.base_url", "https://api.openai.com/v1")
	v.SetDefault("embedding.api_key", "")
	v.SetDefault("embedding.model", "text-embedding-3-small")
	v.SetDefault("embedding.batch_size", 16)
	v.SetDefault("embedding.max_tokens", 8000)

	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.base_url", "https://api.deepseek.com/v1")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "deepseek-chat")
	v.SetDefault("llm.max_tokens", 2048)

	v.SetDefault("chat.memory_window", 4000)
	v.SetDefault("chat.history_token_budget", 4000)
	v.SetDefault("chat.retrieval_limit", 4)

	v.SetDefault("prompt.file", "")
	v.SetDefault("prompt.watch", true)

	v.SetDefault("sync.enabled", true)
	v.SetDefault("sync.interval", 60*time.Second)
	v.SetDefault("sync.timeout", 10*time.Minute)
	v.SetDefault("sync.concurrency", 4)

	v.SetDefault("websocket.read_buffer_size", 1024)
	v.SetDefault("websocket.write_buffer_size", 1024)

	// 日志默认值沿用 LOG_* 环境变量
	logCfg := applog.NewConfigFromEnv()
	v.SetDefault("log.level", logCfg.Level)
	v.SetDefault("log.format", logCfg.Format)
	v.SetDefault("log.output", logCfg.Output)
	v.SetDefault("log.add_source", logCfg.AddSource)
}

// Load 加载配置：默认值 < 配置文件 < 环境变量
// path 为空时在数据目录和当前目录查找 config.yaml，找不到不算错误
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(GetDataDir())
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.normalize()

	return &cfg, nil
}

// normalize 补全派生路径和非法取值
func (c *Config) normalize() {
	if c.Database.Path == "" {
		c.Database.Path = filepath.Join(GetDataDir(), "larkchat.db")
	}
	if c.Prompt.File == "" {
		c.Prompt.File = filepath.Join(GetDataDir(), "prompts.yaml")
	}
	if c.Feishu.PageSize <= 0 {
		c.Feishu.PageSize = 50
	}
	if c.Feishu.MaxPages <= 0 {
		c.Feishu.MaxPages = 1
	}
	if c.Sync.Concurrency <= 0 {
		c.Sync.Concurrency = 1
	}
	if c.Embedding.BatchSize <= 0 {
		c.Embedding.BatchSize = 1
	}
	c.Vector.Provider = strings.ToLower(c.Vector.Provider)
	c.LLM.Provider = strings.ToLower(c.LLM.Provider)
}

// MaskSecret 日志中隐藏密钥
func MaskSecret(secret string) string {
	if len(secret) <= 8 {
		return "***"
	}
	return secret[:4] + "***" + secret[len(secret)-4:]
}

// NewServerConfig 创建服务器配置
func NewServerConfig(cfg *Config) *ServerConfig {
	return &cfg.Server
}

// NewDatabaseConfig 创建数据库配置
func NewDatabaseConfig(cfg *Config) *DatabaseConfig {
	return &cfg.Database
}

// NewFeishuConfig 创建飞书配置
func NewFeishuConfig(cfg *Config) *FeishuConfig {
	return &cfg.Feishu
}

// NewVectorConfig 创建向量索引配置
func NewVectorConfig(cfg *Config) *VectorConfig {
	return &cfg.Vector
}

// NewEmbeddingConfig 创建向量化配置
func NewEmbeddingConfig(cfg *Config) *EmbeddingConfig {
	return &cfg.Embedding
}

// NewLLMConfig 创建对话模型配置
func NewLLMConfig(cfg *Config) *LLMConfig {
	return &cfg.LLM
}

// NewChatConfig 创建对话配置
func NewChatConfig(cfg *Config) *ChatConfig {
	return &cfg.Chat
}

// NewPromptConfig 创建提示词配置
func NewPromptConfig(cfg *Config) *PromptConfig {
	return &cfg.Prompt
}

// NewSyncConfig 创建同步配置
func NewSyncConfig(cfg *Config) *SyncConfig {
	return &cfg.Sync
}

// NewWebSocketConfig 创建 WebSocket 配置
func NewWebSocketConfig(cfg *Config) *WebSocketConfig {
	return &cfg.WebSocket
}
