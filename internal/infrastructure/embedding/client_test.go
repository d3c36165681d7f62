package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wupeiyao/larkchat/internal/domain/doc"
	"github.com/wupeiyao/larkchat/internal/infrastructure/config"
)

type embeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

// newFakeServer 按输入长度生成向量，并倒序返回 data 以验证按 index 归位
func newFakeServer(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test-key", r.Header.Get("Authorization"))

		var req embeddingRequest
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		assert.Equal(t, "text-embedding-3-small", req.Model)

		data := make([]map[string]any, 0, len(req.Input))
		for i := len(req.Input) - 1; i >= 0; i-- {
			data = append(data, map[string]any{
				"object":    "embedding",
				"index":     i,
				"embedding": []float32{float32(len(req.Input[i])), 1},
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   data,
			"model":  req.Model,
			"usage":  map[string]int{"prompt_tokens": 3, "total_tokens": 3},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Embed_BatchesAndOrders(t *testing.T) {
	var calls atomic.Int32
	srv := newFakeServer(t, &calls)

	client := NewClient(&config.EmbeddingConfig{
		BaseURL:   srv.URL + "/",
		APIKey:    "sk-test-key",
		Model:     "text-embedding-3-small",
		BatchSize: 2,
	})

	vectors, err := client.Embed(context.Background(), []string{"a", "bb", "ccc"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	assert.Equal(t, []float32{1, 1}, vectors[0])
	assert.Equal(t, []float32{2, 1}, vectors[1])
	assert.Equal(t, []float32{3, 1}, vectors[2])
	assert.Equal(t, int32(2), calls.Load(), "三条文本按批大小 2 应请求两次")
}

func TestClient_Embed_Empty(t *testing.T) {
	client := NewClient(&config.EmbeddingConfig{APIKey: "k", Model: "m", BatchSize: 4})
	_, err := client.Embed(context.Background(), nil)
	assert.Error(t, err)
}

func TestClient_Embed_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid api key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	client := NewClient(&config.EmbeddingConfig{BaseURL: srv.URL, APIKey: "bad", Model: "m", BatchSize: 4})
	_, err := client.Embed(context.Background(), []string{"hello"})
	require.Error(t, err)
	assert.ErrorIs(t, err, doc.ErrUpstream)
}
