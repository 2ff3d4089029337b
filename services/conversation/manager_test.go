package conversation

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/linkbay/linkbay-ai/services/providers"
)

func TestAddAndRetrieveMessages(t *testing.T) {
	m := NewManager(DefaultConfig(), zap.NewNop(), nil)

	m.AddMessage(providers.RoleUser, "hello", 2)
	m.AddMessage(providers.RoleAssistant, "hi there", 3)

	msgs := m.Messages(0)
	require.Len(t, msgs, 2)
	assert.Equal(t, providers.RoleUser, msgs[0].Role)
	assert.Equal(t, "hello", msgs[0].Content)
	assert.Equal(t, "hi there", msgs[1].Content)
}

func TestMessagesLastN(t *testing.T) {
	m := NewManager(DefaultConfig(), zap.NewNop(), nil)
	for i := 0; i < 5; i++ {
		m.AddMessage(providers.RoleUser, fmt.Sprintf("msg-%d", i), 1)
	}

	msgs := m.Messages(2)
	require.Len(t, msgs, 2)
	assert.Equal(t, "msg-3", msgs[0].Content)
	assert.Equal(t, "msg-4", msgs[1].Content)

	// asking for more than exists returns everything
	assert.Len(t, m.Messages(100), 5)
}

func TestTrimByMessageCount(t *testing.T) {
	m := NewManager(Config{MaxMessages: 3, ContextWindow: 4096}, zap.NewNop(), nil)

	for i := 0; i < 5; i++ {
		m.AddMessage(providers.RoleUser, fmt.Sprintf("msg-%d", i), 1)
	}

	msgs := m.Messages(0)
	require.Len(t, msgs, 3)
	assert.Equal(t, "msg-2", msgs[0].Content)

	stats := m.Stats()
	assert.Equal(t, 3, stats.Messages)
	assert.Equal(t, 2, stats.Trimmed)
}

func TestTrimByTokenBudget(t *testing.T) {
	m := NewManager(Config{MaxMessages: 100, ContextWindow: 10}, zap.NewNop(), nil)

	m.AddMessage(providers.RoleUser, "first", 6)
	m.AddMessage(providers.RoleUser, "second", 6)

	// 12 tokens exceed the window, the oldest message goes
	msgs := m.Messages(0)
	require.Len(t, msgs, 1)
	assert.Equal(t, "second", msgs[0].Content)
}

func TestTrimKeepsLastMessageEvenIfOversized(t *testing.T) {
	m := NewManager(Config{MaxMessages: 100, ContextWindow: 10}, zap.NewNop(), nil)

	m.AddMessage(providers.RoleUser, "huge", 500)

	assert.Len(t, m.Messages(0), 1)
}

func TestSummarizeDropped(t *testing.T) {
	m := NewManager(Config{
		MaxMessages:      2,
		ContextWindow:    4096,
		SummarizeDropped: true,
	}, zap.NewNop(), nil)

	m.AddMessage(providers.RoleUser, "my name is Ada", 4)
	m.AddMessage(providers.RoleAssistant, "nice to meet you", 4)
	m.AddMessage(providers.RoleUser, "what did I say?", 4)

	msgs := m.Messages(0)
	require.NotEmpty(t, msgs)
	assert.Equal(t, providers.RoleSystem, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "my name is Ada")
}

func TestCustomSummarizer(t *testing.T) {
	m := NewManager(Config{MaxMessages: 1, ContextWindow: 4096}, zap.NewNop(),
		func(dropped []providers.Message) string {
			return fmt.Sprintf("dropped %d messages", len(dropped))
		})

	m.AddMessage(providers.RoleUser, "a", 1)
	m.AddMessage(providers.RoleUser, "b", 1)

	msgs := m.Messages(0)
	require.Len(t, msgs, 2)
	assert.Equal(t, "dropped 1 messages", msgs[0].Content)
	assert.Equal(t, "b", msgs[1].Content)
}

func TestClear(t *testing.T) {
	m := NewManager(DefaultConfig(), zap.NewNop(), nil)
	m.AddMessage(providers.RoleUser, "hello", 2)

	m.Clear()

	assert.Empty(t, m.Messages(0))
	assert.Equal(t, 0, m.Stats().Trimmed)
}
