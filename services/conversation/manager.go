package conversation

import (
	"strings"
	"sync"

	"github.com/linkbay/linkbay-ai/services/providers"
	"go.uber.org/zap"
)

// Config bounds the conversation history.
type Config struct {
	// MaxMessages caps the number of retained messages
	MaxMessages int

	// ContextWindow caps the total token count of retained messages
	ContextWindow int

	// SummarizeDropped enables summarization of trimmed messages
	SummarizeDropped bool
}

// DefaultConfig returns the default history bounds.
func DefaultConfig() Config {
	return Config{
		MaxMessages:   20,
		ContextWindow: 4096,
	}
}

// Summarizer condenses dropped messages into a single summary string.
// Returning an empty string skips the summary message.
type Summarizer func(dropped []providers.Message) string

// Stats reports the current history shape.
type Stats struct {
	Messages    int `json:"messages"`
	TotalTokens int `json:"total_tokens"`
	Trimmed     int `json:"trimmed"`
}

type entry struct {
	message providers.Message
	tokens  int
}

// Manager owns a conversation's ordered message history and enforces the
// configured bounds, optionally summarizing dropped messages.
type Manager struct {
	config     Config
	logger     *zap.Logger
	summarizer Summarizer

	mu      sync.Mutex
	entries []entry
	trimmed int
}

// NewManager creates a conversation manager.
func NewManager(config Config, logger *zap.Logger, summarizer Summarizer) *Manager {
	if config.MaxMessages <= 0 {
		config.MaxMessages = DefaultConfig().MaxMessages
	}
	if config.ContextWindow <= 0 {
		config.ContextWindow = DefaultConfig().ContextWindow
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if summarizer == nil && config.SummarizeDropped {
		summarizer = defaultSummarizer
	}
	return &Manager{
		config:     config,
		logger:     logger,
		summarizer: summarizer,
	}
}

// AddMessage appends a message with its token count and trims the history
// back within bounds.
func (m *Manager) AddMessage(role, content string, tokens int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = append(m.entries, entry{
		message: providers.Message{Role: role, Content: content},
		tokens:  tokens,
	})
	m.trim()
}

// Messages returns the last n messages, or all of them when n <= 0.
func (m *Manager) Messages(n int) []providers.Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	start := 0
	if n > 0 && len(m.entries) > n {
		start = len(m.entries) - n
	}

	out := make([]providers.Message, 0, len(m.entries)-start)
	for _, e := range m.entries[start:] {
		out = append(out, e.message)
	}
	return out
}

// Stats returns the current history shape.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Stats{
		Messages:    len(m.entries),
		TotalTokens: m.totalTokens(),
		Trimmed:     m.trimmed,
	}
}

// Clear drops the whole history.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = nil
	m.trimmed = 0
}

// trim drops the oldest messages until both bounds hold.
// Caller must hold m.mu.
func (m *Manager) trim() {
	var dropped []providers.Message

	for len(m.entries) > m.config.MaxMessages || (m.totalTokens() > m.config.ContextWindow && len(m.entries) > 1) {
		dropped = append(dropped, m.entries[0].message)
		m.entries = m.entries[1:]
		m.trimmed++
	}

	if len(dropped) == 0 {
		return
	}

	m.logger.Debug("trimmed conversation history",
		zap.Int("dropped", len(dropped)),
		zap.Int("remaining", len(m.entries)))

	if m.summarizer == nil {
		return
	}
	summary := m.summarizer(dropped)
	if summary == "" {
		return
	}
	// Summary replaces the dropped context at the front of the history.
	m.entries = append([]entry{{
		message: providers.Message{Role: providers.RoleSystem, Content: summary},
		tokens:  len(summary) / 4,
	}}, m.entries...)
}

func (m *Manager) totalTokens() int {
	total := 0
	for _, e := range m.entries {
		total += e.tokens
	}
	return total
}

func defaultSummarizer(dropped []providers.Message) string {
	if len(dropped) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Earlier in this conversation: ")
	for i, msg := range dropped {
		if i > 0 {
			b.WriteString("; ")
		}
		content := msg.Content
		if len(content) > 80 {
			content = content[:80] + "…"
		}
		b.WriteString(msg.Role + " said: " + content)
	}
	return b.String()
}
