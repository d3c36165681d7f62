package vector

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"github.com/wupeiyao/larkchat/internal/domain/doc"
	"github.com/wupeiyao/larkchat/internal/infrastructure/config"
	"github.com/wupeiyao/larkchat/internal/infrastructure/log"
)

// QdrantIndex 基于 Qdrant 的向量索引
type QdrantIndex struct {
	client     *qdrant.Client
	collection string
	embedder   Embedder
	text       textBuilder
	logger     *slog.Logger

	mu    sync.Mutex
	ready bool // 集合已确认存在
}

var _ doc.VectorIndex = (*QdrantIndex)(nil)

// NewQdrantClient 创建 Qdrant gRPC 客户端
func NewQdrantClient(cfg *config.QdrantConfig) (*qdrant.Client, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to qdrant %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	return client, nil
}

// NewQdrantIndex 创建 Qdrant 向量索引，集合在首次写入时按向量维度创建
func NewQdrantIndex(client *qdrant.Client, collection string, embedder Embedder, truncator Truncator, maxTokens int) *QdrantIndex {
	return &QdrantIndex{
		client:     client,
		collection: collection,
		embedder:   embedder,
		text:       textBuilder{truncator: truncator, maxTokens: maxTokens},
		logger:     log.NewModuleLogger("vector", "qdrant"),
	}
}

// Write 向量化并写入新点，返回点 ID
func (q *QdrantIndex) Write(ctx context.Context, d doc.VectorDocument) (string, error) {
	content := q.text.build(d)
	vec, err := embedOne(ctx, q.embedder, content)
	if err != nil {
		return "", err
	}

	if err := q.ensureCollection(ctx, uint64(len(vec))); err != nil {
		return "", err
	}

	id := uuid.NewString()
	_, err = q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collection,
		Wait:           qdrant.PtrOf(true),
		Points: []*qdrant.PointStruct{
			{
				Id:      qdrant.NewID(id),
				Vectors: qdrant.NewVectors(vec...),
				Payload: qdrant.NewValueMap(payloadOf(d, content)),
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: qdrant upsert for doc %s: %v", doc.ErrUpstream, d.DocID, err)
	}

	q.logger.Debug("Vector point written", "doc_id", d.DocID, "vector_doc_id", id, "dim", len(vec))
	return id, nil
}

// Delete 删除点，不存在的 ID 忽略
func (q *QdrantIndex) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	exists, err := q.collectionExists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}

	pointIDs := make([]*qdrant.PointId, 0, len(ids))
	for _, id := range ids {
		pointIDs = append(pointIDs, qdrant.NewID(id))
	}

	_, err = q.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: q.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         qdrant.NewPointsSelector(pointIDs...),
	})
	if err != nil {
		return fmt.Errorf("%w: qdrant delete: %v", doc.ErrUpstream, err)
	}
	return nil
}

// Search 相似度检索
func (q *QdrantIndex) Search(ctx context.Context, query string, limit int) ([]doc.SearchHit, error) {
	hits := make([]doc.SearchHit, 0)
	if strings.TrimSpace(query) == "" || limit <= 0 {
		return hits, nil
	}

	exists, err := q.collectionExists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		return hits, nil
	}

	vec, err := embedOne(ctx, q.embedder, q.text.build(doc.VectorDocument{Text: query}))
	if err != nil {
		return nil, err
	}

	points, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQuery(vec...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: qdrant query: %v", doc.ErrUpstream, err)
	}

	for _, p := range points {
		hits = append(hits, hitFromPoint(p))
	}
	return hits, nil
}

// Close 关闭连接
func (q *QdrantIndex) Close() error {
	return q.client.Close()
}

func (q *QdrantIndex) collectionExists(ctx context.Context) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.ready {
		return true, nil
	}
	exists, err := q.client.CollectionExists(ctx, q.collection)
	if err != nil {
		return false, fmt.Errorf("%w: qdrant collection check: %v", doc.ErrUpstream, err)
	}
	q.ready = exists
	return exists, nil
}

// ensureCollection 集合不存在时按维度创建（余弦距离）
func (q *QdrantIndex) ensureCollection(ctx context.Context, dim uint64) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.ready {
		return nil
	}

	exists, err := q.client.CollectionExists(ctx, q.collection)
	if err != nil {
		return fmt.Errorf("%w: qdrant collection check: %v", doc.ErrUpstream, err)
	}
	if !exists {
		err := q.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: q.collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     dim,
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return fmt.Errorf("%w: qdrant create collection %s: %v", doc.ErrUpstream, q.collection, err)
		}
		q.logger.Info("Qdrant collection created", "collection", q.collection, "dim", dim)
	}

	q.ready = true
	return nil
}

func payloadOf(d doc.VectorDocument, content string) map[string]any {
	return map[string]any{
		payloadDocID:   d.DocID,
		payloadDocName: d.Name,
		payloadURL:     d.URL,
		payloadContent: content,
	}
}

func hitFromPoint(p *qdrant.ScoredPoint) doc.SearchHit {
	hit := doc.SearchHit{Score: p.GetScore()}
	if id := p.GetId(); id != nil {
		hit.VectorDocID = id.GetUuid()
	}
	payload := p.GetPayload()
	hit.DocID = payload[payloadDocID].GetStringValue()
	hit.Name = payload[payloadDocName].GetStringValue()
	hit.URL = payload[payloadURL].GetStringValue()
	hit.Content = payload[payloadContent].GetStringValue()
	return hit
}
