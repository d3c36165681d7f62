package vector

import (
	"database/sql"
	"fmt"

	"github.com/wupeiyao/larkchat/internal/domain/doc"
	"github.com/wupeiyao/larkchat/internal/infrastructure/config"
	"github.com/wupeiyao/larkchat/internal/infrastructure/log"
)

// 向量索引实现
const (
	ProviderQdrant = "qdrant"
	ProviderSQLite = "sqlite"
)

// NewIndex 按 vector.provider 创建向量索引，返回的 cleanup 负责释放连接
func NewIndex(
	cfg *config.VectorConfig,
	embCfg *config.EmbeddingConfig,
	db *sql.DB,
	embedder Embedder,
	truncator Truncator,
) (doc.VectorIndex, func(), error) {
	logger := log.NewModuleLogger("vector", "provider")

	switch cfg.Provider {
	case "", ProviderQdrant:
		client, err := NewQdrantClient(&cfg.Qdrant)
		if err != nil {
			return nil, nil, err
		}
		index := NewQdrantIndex(client, cfg.Collection, embedder, truncator, embCfg.MaxTokens)
		logger.Info("Vector index ready",
			"provider", ProviderQdrant,
			"host", cfg.Qdrant.Host,
			"port", cfg.Qdrant.Port,
			"collection", cfg.Collection,
		)
		cleanup := func() {
			if err := index.Close(); err != nil {
				logger.Warn("Failed to close qdrant client", "error", err)
			}
		}
		return index, cleanup, nil

	case ProviderSQLite:
		index, err := NewSQLiteIndex(db, embedder, truncator, embCfg.MaxTokens)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Vector index ready", "provider", ProviderSQLite)
		return index, func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown vector provider %q (want %s or %s)", cfg.Provider, ProviderQdrant, ProviderSQLite)
	}
}
