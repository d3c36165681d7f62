package tokenizer

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimator_CountTokens(t *testing.T) {
	e, err := NewEstimator()
	require.NoError(t, err)

	assert.Equal(t, 0, e.CountTokens(""))
	assert.Greater(t, e.CountTokens("hello world"), 0)
	assert.Greater(t, e.CountTokens(strings.Repeat("hello ", 100)), e.CountTokens("hello"))
}

func TestEstimator_Singleton(t *testing.T) {
	a, err := NewEstimator()
	require.NoError(t, err)
	b, err := NewEstimator()
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestEstimator_Truncate(t *testing.T) {
	e, err := NewEstimator()
	require.NoError(t, err)

	text := strings.Repeat("飞书文档同步 ", 200)

	assert.Equal(t, text, e.Truncate(text, 0), "0 表示不截断")
	assert.Equal(t, "short", e.Truncate("short", 100))

	truncated := e.Truncate(text, 10)
	assert.Less(t, e.CountTokens(truncated), e.CountTokens(text))
	assert.True(t, len(truncated) < len(text))
	assert.True(t, utf8.ValidString(truncated))
}
