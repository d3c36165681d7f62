package handler

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/wupeiyao/larkchat/internal/domain/conversation"
	"github.com/wupeiyao/larkchat/internal/domain/doc"
)

// MockDocService 模拟文档服务
type MockDocService struct {
	mock.Mock
}

func (m *MockDocService) List(ctx context.Context) ([]doc.DocView, error) {
	args := m.Called(ctx)
	views, _ := args.Get(0).([]doc.DocView)
	return views, args.Error(1)
}

func (m *MockDocService) Load(ctx context.Context, trigger string) (*doc.SyncReport, error) {
	args := m.Called(ctx, trigger)
	report, _ := args.Get(0).(*doc.SyncReport)
	return report, args.Error(1)
}

func (m *MockDocService) Search(ctx context.Context, query string, limit int) ([]doc.SearchHit, error) {
	args := m.Called(ctx, query, limit)
	hits, _ := args.Get(0).([]doc.SearchHit)
	return hits, args.Error(1)
}

// MockConversationService 模拟会话服务
type MockConversationService struct {
	mock.Mock
}

func (m *MockConversationService) Create(ctx context.Context) (conversation.Summary, error) {
	args := m.Called(ctx)
	return args.Get(0).(conversation.Summary), args.Error(1)
}

func (m *MockConversationService) Edit(ctx context.Context, conversationID, title string) error {
	return m.Called(ctx, conversationID, title).Error(0)
}

func (m *MockConversationService) List(ctx context.Context) ([]conversation.Summary, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]conversation.Summary)
	return list, args.Error(1)
}

func (m *MockConversationService) Get(ctx context.Context, conversationID string) (*conversation.Detail, error) {
	args := m.Called(ctx, conversationID)
	detail, _ := args.Get(0).(*conversation.Detail)
	return detail, args.Error(1)
}

func (m *MockConversationService) Delete(ctx context.Context, conversationID string) error {
	return m.Called(ctx, conversationID).Error(0)
}

// MockChatService 模拟问答服务
type MockChatService struct {
	mock.Mock
}

func (m *MockChatService) Chat(ctx context.Context, conversationID, userText string) (string, error) {
	args := m.Called(ctx, conversationID, userText)
	return args.String(0), args.Error(1)
}

// decodeBody 解析响应 JSON
func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), "响应应该是有效的 JSON")
	return body
}
