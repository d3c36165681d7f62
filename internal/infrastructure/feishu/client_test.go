package feishu

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wupeiyao/larkchat/internal/domain/doc"
	"github.com/wupeiyao/larkchat/internal/infrastructure/config"
)

// fakeFeishu 模拟开放平台
type fakeFeishu struct {
	t           *testing.T
	tokenCalls  atomic.Int32
	tokenDelay  time.Duration
	tokenCode   int
	lastAuth    atomic.Value
	filesPages  map[string]listFilesData // page_token -> 页
	filesCode   atomic.Int32
	rawContents map[string]string
	rawStatus   int
}

func (f *fakeFeishu) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc(appAccessTokenPath, func(w http.ResponseWriter, r *http.Request) {
		n := f.tokenCalls.Add(1)
		if f.tokenDelay > 0 {
			time.Sleep(f.tokenDelay)
		}
		var req appAccessTokenRequest
		assert.NoError(f.t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(f.t, "cli_app", req.AppID)
		assert.Equal(f.t, "secret", req.AppSecret)

		writeJSON(w, http.StatusOK, map[string]any{
			"code":             f.tokenCode,
			"msg":              "ok",
			"app_access_token": "t-" + string(rune('a'+n-1)),
			"expire":           7200,
		})
	})

	mux.HandleFunc(listFilesPath, func(w http.ResponseWriter, r *http.Request) {
		f.lastAuth.Store(r.Header.Get("Authorization"))
		if code := f.filesCode.Load(); code != 0 {
			writeJSON(w, http.StatusOK, map[string]any{"code": code, "msg": "denied"})
			return
		}
		assert.Equal(f.t, "fld_root", r.URL.Query().Get("folder_token"))
		assert.Equal(f.t, "50", r.URL.Query().Get("page_size"))

		page, ok := f.filesPages[r.URL.Query().Get("page_token")]
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]any{"code": 1061002, "msg": "params error"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"code": 0, "msg": "success", "data": page})
	})

	mux.HandleFunc("/open-apis/docx/v1/documents/", func(w http.ResponseWriter, r *http.Request) {
		if f.rawStatus != 0 {
			w.WriteHeader(f.rawStatus)
			_, _ = w.Write([]byte("<html>bad gateway</html>"))
			return
		}
		assert.Equal(f.t, "0", r.URL.Query().Get("lang"))
		// /open-apis/docx/v1/documents/{id}/raw_content
		id := r.URL.Path[len("/open-apis/docx/v1/documents/") : len(r.URL.Path)-len("/raw_content")]
		content, ok := f.rawContents[id]
		if !ok {
			writeJSON(w, http.StatusOK, map[string]any{"code": 1770002, "msg": "not found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"code": 0, "msg": "success", "data": map[string]any{"content": content}})
	})

	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, fake *fakeFeishu) *Client {
	t.Helper()
	fake.t = t
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	cfg := &config.FeishuConfig{
		BaseURL:            srv.URL,
		AppID:              "cli_app",
		AppSecret:          "secret",
		RootFolder:         "fld_root",
		PageSize:           50,
		MaxPages:           3,
		DocTypes:           []string{"docx"},
		TokenTTL:           100 * time.Minute,
		TokenCacheCapacity: 1000,
		Timeout:            5 * time.Second,
	}
	httpClient := NewHTTPClient(cfg)
	return NewClient(cfg, httpClient, NewTokenProvider(cfg, httpClient))
}

func TestClient_ListDocs_PaginatesAndFilters(t *testing.T) {
	fake := &fakeFeishu{
		filesPages: map[string]listFilesData{
			"": {
				Files: []driveFile{
					{Token: "doxA", Name: "A", Type: "docx", URL: "https://x/a", ModifiedTime: "1700000001"},
					{Token: "fldSub", Name: "sub", Type: "folder", URL: "https://x/f"},
				},
				HasMore:       true,
				NextPageToken: "p2",
			},
			"p2": {
				Files: []driveFile{
					{Token: "doxB", Name: "B", Type: "docx", URL: "https://x/b", ModifiedTime: "1700000002"},
					{Token: "shtC", Name: "C", Type: "sheet", URL: "https://x/c"},
				},
			},
		},
	}
	client := newTestClient(t, fake)

	docs, err := client.ListDocs(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []doc.RemoteDoc{
		{ID: "doxA", Name: "A", URL: "https://x/a", ModifiedAt: "1700000001"},
		{ID: "doxB", Name: "B", URL: "https://x/b", ModifiedAt: "1700000002"},
	}, docs)
	assert.Equal(t, "Bearer t-a", fake.lastAuth.Load())
	assert.Equal(t, int32(1), fake.tokenCalls.Load(), "凭证应被缓存复用")
}

func TestClient_ListDocs_TooManyPages(t *testing.T) {
	page := listFilesData{HasMore: true, NextPageToken: "loop"}
	fake := &fakeFeishu{filesPages: map[string]listFilesData{"": page, "loop": page}}
	client := newTestClient(t, fake)

	_, err := client.ListDocs(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_pages")
}

func TestClient_ListDocs_EmptyFolder(t *testing.T) {
	fake := &fakeFeishu{filesPages: map[string]listFilesData{"": {}}}
	client := newTestClient(t, fake)

	docs, err := client.ListDocs(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, docs)
	assert.Empty(t, docs)
}

func TestClient_ListDocs_BusinessError(t *testing.T) {
	fake := &fakeFeishu{}
	fake.filesCode.Store(1061004)
	client := newTestClient(t, fake)

	_, err := client.ListDocs(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, doc.ErrUpstream)

	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, "list_files", upstream.Op)
	assert.Equal(t, 1061004, upstream.Code)
}

func TestClient_InvalidTokenIsDropped(t *testing.T) {
	fake := &fakeFeishu{filesPages: map[string]listFilesData{"": {}}}
	fake.filesCode.Store(99991663)
	client := newTestClient(t, fake)

	_, err := client.ListDocs(context.Background())
	require.ErrorIs(t, err, doc.ErrUpstream)

	fake.filesCode.Store(0)
	_, err = client.ListDocs(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(2), fake.tokenCalls.Load(), "凭证失效后应重新换取")
	assert.Equal(t, "Bearer t-b", fake.lastAuth.Load())
}

func TestClient_ReadContent(t *testing.T) {
	fake := &fakeFeishu{rawContents: map[string]string{"doxA": "第一段\n第二段"}}
	client := newTestClient(t, fake)

	content, err := client.ReadContent(context.Background(), "doxA")
	require.NoError(t, err)
	assert.Equal(t, "第一段\n第二段", content)

	_, err = client.ReadContent(context.Background(), "missing")
	assert.ErrorIs(t, err, doc.ErrUpstream)
}

func TestClient_ReadContent_NonJSONError(t *testing.T) {
	fake := &fakeFeishu{rawStatus: http.StatusBadGateway}
	client := newTestClient(t, fake)

	_, err := client.ReadContent(context.Background(), "doxA")
	require.ErrorIs(t, err, doc.ErrUpstream)

	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, http.StatusBadGateway, upstream.Status)
}

func TestTokenProvider_ConcurrentMissesFetchOnce(t *testing.T) {
	fake := &fakeFeishu{tokenDelay: 50 * time.Millisecond}
	client := newTestClient(t, fake)
	tokens := client.tokens

	var wg sync.WaitGroup
	results := make([]string, 20)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tok, err := tokens.Token(context.Background())
			assert.NoError(t, err)
			results[i] = tok
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), fake.tokenCalls.Load())
	for _, tok := range results {
		assert.Equal(t, "t-a", tok)
	}

	tokens.Invalidate()
	tok, err := tokens.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "t-b", tok)
	assert.Equal(t, int32(2), fake.tokenCalls.Load())
}

func TestTokenProvider_ErrorCode(t *testing.T) {
	fake := &fakeFeishu{tokenCode: 10003}
	client := newTestClient(t, fake)

	_, err := client.tokens.Token(context.Background())
	require.ErrorIs(t, err, doc.ErrUpstream)

	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, "app_access_token", upstream.Op)
	assert.Equal(t, 10003, upstream.Code)
}

func TestTokenProvider_EffectiveTTL(t *testing.T) {
	p := &TokenProvider{ttl: 100 * time.Minute}

	assert.Equal(t, 100*time.Minute, p.effectiveTTL(0))
	assert.Equal(t, 100*time.Minute, p.effectiveTTL(7200), "服务端有效期更长时取配置值")
	assert.Equal(t, 29*time.Minute, p.effectiveTTL(1800))

	p.ttl = 0
	assert.Equal(t, 119*time.Minute, p.effectiveTTL(7200))
	assert.Equal(t, time.Minute, p.effectiveTTL(0))
}
