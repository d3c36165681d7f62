package chat

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/wupeiyao/larkchat/internal/domain/conversation"
	"github.com/wupeiyao/larkchat/internal/domain/doc"
	"github.com/wupeiyao/larkchat/internal/infrastructure/prompt"
	"github.com/wupeiyao/larkchat/internal/infrastructure/storage"
)

// setupTestRepo 临时 SQLite 会话仓储
func setupTestRepo(t *testing.T) *storage.ConversationRepository {
	t.Helper()
	db, err := storage.OpenDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo, err := storage.NewConversationRepository(db)
	require.NoError(t, err)
	return repo
}

// createConversation 插入一条带内容的会话
func createConversation(t *testing.T, repo conversation.Repository, id, content string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, &conversation.Conversation{ConversationID: id, Title: conversation.DefaultTitle}))
	if content != "" {
		require.NoError(t, repo.UpdateContent(ctx, id, content))
	}
}

// MockCompleter 模拟 LLM
type MockCompleter struct {
	mock.Mock
}

func (m *MockCompleter) Complete(ctx context.Context, req conversation.CompletionRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

// MockSearcher 模拟检索
type MockSearcher struct {
	mock.Mock
}

func (m *MockSearcher) Search(ctx context.Context, query string, limit int) ([]doc.SearchHit, error) {
	args := m.Called(ctx, query, limit)
	hits, _ := args.Get(0).([]doc.SearchHit)
	return hits, args.Error(1)
}

// wordTokenizer 按空白分词计数
type wordTokenizer struct{}

func (wordTokenizer) CountTokens(text string) int {
	return len(strings.Fields(text))
}

func (wordTokenizer) Truncate(text string, maxTokens int) string {
	words := strings.Fields(text)
	if len(words) <= maxTokens {
		return text
	}
	return strings.Join(words[:maxTokens], " ")
}

type staticPrompt prompt.Prompt

func (p staticPrompt) Current() prompt.Prompt {
	return prompt.Prompt(p)
}
