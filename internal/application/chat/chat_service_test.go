package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/wupeiyao/larkchat/internal/domain/conversation"
	"github.com/wupeiyao/larkchat/internal/domain/doc"
	"github.com/wupeiyao/larkchat/internal/infrastructure/config"
	"github.com/wupeiyao/larkchat/internal/infrastructure/storage"
)

type chatFixture struct {
	repo      *storage.ConversationRepository
	memory    *Memory
	completer *MockCompleter
	searcher  *MockSearcher
	svc       *Service
}

func newChatFixture(t *testing.T, cfg config.ChatConfig) *chatFixture {
	t.Helper()
	repo := setupTestRepo(t)
	memory := NewMemory(repo)
	completer := new(MockCompleter)
	searcher := new(MockSearcher)
	prompts := staticPrompt{System: "你是助手", Temperature: 0.3}

	return &chatFixture{
		repo:      repo,
		memory:    memory,
		completer: completer,
		searcher:  searcher,
		svc:       NewService(repo, memory, completer, searcher, wordTokenizer{}, prompts, &cfg),
	}
}

func TestService_Chat(t *testing.T) {
	f := newChatFixture(t, config.ChatConfig{MemoryWindow: 10})
	createConversation(t, f.repo, "c1", "")
	ctx := context.Background()

	f.completer.On("Complete", mock.Anything, conversation.CompletionRequest{
		System:      "你是助手",
		History:     []conversation.Message{},
		User:        "年假有几天",
		Temperature: 0.3,
	}).Return("5 天", nil).Once()

	reply, err := f.svc.Chat(ctx, "c1", "年假有几天")
	require.NoError(t, err)
	assert.Equal(t, "5 天", reply)

	history, err := f.memory.Get(ctx, "c1", 10)
	require.NoError(t, err)
	assert.Equal(t, []conversation.Message{
		conversation.UserMessage("年假有几天"),
		conversation.AssistantMessage("5 天"),
	}, history)

	// 第二轮带上历史
	f.completer.On("Complete", mock.Anything, mock.MatchedBy(func(req conversation.CompletionRequest) bool {
		return len(req.History) == 2 && req.User == "病假呢"
	})).Return("按规定执行", nil).Once()

	_, err = f.svc.Chat(ctx, "c1", "病假呢")
	require.NoError(t, err)
	f.completer.AssertExpectations(t)
	f.searcher.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_Chat_WindowTakesFirstMessages(t *testing.T) {
	f := newChatFixture(t, config.ChatConfig{MemoryWindow: 2})
	createConversation(t, f.repo, "c1",
		`[{"type":"USER","content":"q1"},{"type":"ASSISTANT","content":"a1"},{"type":"USER","content":"q2"},{"type":"ASSISTANT","content":"a2"}]`)

	f.completer.On("Complete", mock.Anything, mock.MatchedBy(func(req conversation.CompletionRequest) bool {
		return assert.ObjectsAreEqual([]conversation.Message{
			conversation.UserMessage("q1"),
			conversation.AssistantMessage("a1"),
		}, req.History)
	})).Return("ok", nil).Once()

	_, err := f.svc.Chat(context.Background(), "c1", "q3")
	require.NoError(t, err)
	f.completer.AssertExpectations(t)
}

func TestService_Chat_TrimsHistoryToBudget(t *testing.T) {
	f := newChatFixture(t, config.ChatConfig{MemoryWindow: 100, HistoryTokenBudget: 5})
	createConversation(t, f.repo, "c1",
		`[{"type":"USER","content":"one two three"},{"type":"ASSISTANT","content":"four five"},{"type":"USER","content":"six seven"}]`)

	f.completer.On("Complete", mock.Anything, mock.MatchedBy(func(req conversation.CompletionRequest) bool {
		return assert.ObjectsAreEqual([]conversation.Message{
			conversation.AssistantMessage("four five"),
			conversation.UserMessage("six seven"),
		}, req.History)
	})).Return("ok", nil).Once()

	_, err := f.svc.Chat(context.Background(), "c1", "next")
	require.NoError(t, err)
	f.completer.AssertExpectations(t)
}

func TestService_TrimHistory(t *testing.T) {
	history := []conversation.Message{
		conversation.UserMessage("a b c"),
		conversation.AssistantMessage("d e"),
		conversation.UserMessage("f"),
	}

	tests := []struct {
		name   string
		budget int
		want   int
	}{
		{name: "不限制", budget: 0, want: 3},
		{name: "刚好容纳", budget: 6, want: 3},
		{name: "丢弃最早一条", budget: 5, want: 2},
		{name: "只留最新", budget: 1, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Service{tokenizer: wordTokenizer{}, historyBudget: tt.budget}
			got := s.trimHistory(history)
			assert.Len(t, got, tt.want)
			if tt.want > 0 {
				assert.Equal(t, history[len(history)-1], got[len(got)-1], "保留最新的消息")
			}
		})
	}
}

func TestService_Chat_AppendsReferences(t *testing.T) {
	f := newChatFixture(t, config.ChatConfig{MemoryWindow: 10, RetrievalLimit: 2})
	createConversation(t, f.repo, "c1", "")

	f.searcher.On("Search", mock.Anything, "报销流程", 2).Return([]doc.SearchHit{
		{DocID: "A", Name: "报销制度", URL: "https://x/a", Content: "发票 需要 在 30 天内 提交"},
	}, nil).Once()
	f.completer.On("Complete", mock.Anything, mock.MatchedBy(func(req conversation.CompletionRequest) bool {
		return strings.HasPrefix(req.System, "你是助手\n\n参考文档：") &&
			strings.Contains(req.System, "[1] 报销制度") &&
			strings.Contains(req.System, "https://x/a") &&
			strings.Contains(req.System, "30 天内")
	})).Return("请在 30 天内提交", nil).Once()

	reply, err := f.svc.Chat(context.Background(), "c1", "报销流程")
	require.NoError(t, err)
	assert.Equal(t, "请在 30 天内提交", reply)
	f.searcher.AssertExpectations(t)
	f.completer.AssertExpectations(t)
}

func TestService_Chat_RetrievalFailureStillAnswers(t *testing.T) {
	f := newChatFixture(t, config.ChatConfig{MemoryWindow: 10, RetrievalLimit: 2})
	createConversation(t, f.repo, "c1", "")

	f.searcher.On("Search", mock.Anything, "hi", 2).Return(nil, doc.ErrUpstream).Once()
	f.completer.On("Complete", mock.Anything, mock.MatchedBy(func(req conversation.CompletionRequest) bool {
		return req.System == "你是助手"
	})).Return("hello", nil).Once()

	reply, err := f.svc.Chat(context.Background(), "c1", "hi")
	require.NoError(t, err)
	assert.Equal(t, "hello", reply)
}

func TestService_Chat_CompletionFailureKeepsUserMessage(t *testing.T) {
	f := newChatFixture(t, config.ChatConfig{MemoryWindow: 10})
	createConversation(t, f.repo, "c1", "")
	ctx := context.Background()

	f.completer.On("Complete", mock.Anything, mock.Anything).Return("", errors.Join(doc.ErrUpstream, errors.New("503"))).Once()

	_, err := f.svc.Chat(ctx, "c1", "hi")
	require.Error(t, err)
	assert.ErrorIs(t, err, doc.ErrUpstream)

	history, err := f.memory.Get(ctx, "c1", 10)
	require.NoError(t, err)
	assert.Equal(t, []conversation.Message{conversation.UserMessage("hi")}, history)
}

func TestService_Chat_InvalidInput(t *testing.T) {
	f := newChatFixture(t, config.ChatConfig{MemoryWindow: 10})

	_, err := f.svc.Chat(context.Background(), "c1", "   ")
	assert.ErrorIs(t, err, conversation.ErrEmptyMessage)

	_, err = f.svc.Chat(context.Background(), "missing", "hi")
	assert.ErrorIs(t, err, conversation.ErrConversationNotFound)
	f.completer.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}
