package vector

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wupeiyao/larkchat/internal/domain/doc"
	"github.com/wupeiyao/larkchat/internal/infrastructure/log"
)

// deleteChunkSize 单条 DELETE 的 id 数，低于 SQLite 变量数上限
const deleteChunkSize = 500

// SQLiteIndex 内嵌向量索引：向量以 BLOB 存在 vector_entry 表，查询时暴力计算余弦相似度
type SQLiteIndex struct {
	db       *sql.DB
	embedder Embedder
	text     textBuilder
	logger   *slog.Logger
}

var _ doc.VectorIndex = (*SQLiteIndex)(nil)

// NewSQLiteIndex 创建内嵌向量索引
func NewSQLiteIndex(db *sql.DB, embedder Embedder, truncator Truncator, maxTokens int) (*SQLiteIndex, error) {
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS vector_entry (
		id TEXT PRIMARY KEY,
		doc_id TEXT NOT NULL,
		doc_name TEXT NOT NULL,
		url TEXT NOT NULL,
		content TEXT NOT NULL,
		embedding BLOB NOT NULL,
		created_time INTEGER NOT NULL
	);`
	if _, err := db.Exec(createTableSQL); err != nil {
		return nil, fmt.Errorf("failed to create vector_entry table: %w", err)
	}

	return &SQLiteIndex{
		db:       db,
		embedder: embedder,
		text:     textBuilder{truncator: truncator, maxTokens: maxTokens},
		logger:   log.NewModuleLogger("vector", "sqlite"),
	}, nil
}

// Write 向量化并写入新条目，返回条目 ID
func (s *SQLiteIndex) Write(ctx context.Context, d doc.VectorDocument) (string, error) {
	content := s.text.build(d)
	vec, err := embedOne(ctx, s.embedder, content)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO vector_entry (id, doc_id, doc_name, url, content, embedding, created_time)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, d.DocID, d.Name, d.URL, content, encodeEmbedding(vec), time.Now().UnixMilli(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert vector entry for doc %s: %w", d.DocID, err)
	}

	s.logger.Debug("Vector entry written", "doc_id", d.DocID, "vector_doc_id", id, "dim", len(vec))
	return id, nil
}

// Delete 删除条目，不存在的 ID 忽略
func (s *SQLiteIndex) Delete(ctx context.Context, ids []string) error {
	for start := 0; start < len(ids); start += deleteChunkSize {
		chunk := ids[start:min(start+deleteChunkSize, len(ids))]
		args := make([]any, len(chunk))
		for i, id := range chunk {
			args[i] = id
		}
		query := `DELETE FROM vector_entry WHERE id IN (` + strings.TrimSuffix(strings.Repeat("?,", len(chunk)), ",") + `)`
		if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to delete vector entries: %w", err)
		}
	}
	return nil
}

// Search 返回与 query 最相似的 limit 条
func (s *SQLiteIndex) Search(ctx context.Context, query string, limit int) ([]doc.SearchHit, error) {
	hits := make([]doc.SearchHit, 0)
	if strings.TrimSpace(query) == "" || limit <= 0 {
		return hits, nil
	}

	qvec, err := embedOne(ctx, s.embedder, s.text.build(doc.VectorDocument{Text: query}))
	if err != nil {
		return nil, err
	}
	qmag := magnitude(qvec)

	rows, err := s.db.QueryContext(ctx, `SELECT id, doc_id, doc_name, url, content, embedding FROM vector_entry`)
	if err != nil {
		return nil, fmt.Errorf("failed to query vector entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			hit  doc.SearchHit
			blob []byte
		)
		if err := rows.Scan(&hit.VectorDocID, &hit.DocID, &hit.Name, &hit.URL, &hit.Content, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan vector entry: %w", err)
		}
		vec, err := decodeEmbedding(blob)
		if err != nil {
			s.logger.Warn("Skipping corrupt vector entry", "vector_doc_id", hit.VectorDocID, "error", err)
			continue
		}
		score, ok := cosine(qvec, qmag, vec)
		if !ok {
			continue
		}
		hit.Score = float32(score)
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate vector entries: %w", err)
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}
