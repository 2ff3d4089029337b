package providers

import (
	"context"
	"time"
)

// ProviderType tags the backend family a provider talks to.
type ProviderType string

const (
	TypeDeepSeek ProviderType = "deepseek"
	TypeOpenAI   ProviderType = "openai"
	TypeLocal    ProviderType = "local"
)

// Message roles understood by all backends.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Provider represents a unified LLM provider interface
type Provider interface {
	// Name returns the provider name (e.g., "deepseek", "openai", "local")
	Name() string

	// Chat performs a chat completion request
	Chat(ctx context.Context, messages []Message, params *GenerationParams) (*AIResponse, error)

	// Stream performs a streaming chat completion. The returned channel is
	// closed when the backend finishes; a new call re-issues the request.
	Stream(ctx context.Context, messages []Message, params *GenerationParams) (<-chan string, error)

	// IsAvailable checks if the provider is currently available.
	// Best-effort: failures are reported as false, never as an error.
	IsAvailable(ctx context.Context) bool
}

// Message represents a single message in a conversation
type Message struct {
	// Role can be "system", "user", "assistant" or "tool"
	Role string `json:"role"`

	// Content is the message text
	Content string `json:"content"`
}

// GenerationParams is a per-request value object. Zero fields fall back to
// the provider's configured defaults.
type GenerationParams struct {
	// Model identifier (e.g., "deepseek-chat", "gpt-3.5-turbo")
	Model string `json:"model"`

	// MaxTokens limits the response length
	MaxTokens int `json:"max_tokens,omitempty"`

	// Temperature controls randomness (0.0 to 2.0)
	Temperature float64 `json:"temperature,omitempty"`

	// Stream enables streaming responses
	Stream bool `json:"stream,omitempty"`

	// Tools lists the function definitions surfaced to the backend
	Tools []ToolDefinition `json:"tools,omitempty"`
}

// AIResponse represents a unified chat completion response. Immutable once
// produced.
type AIResponse struct {
	// Content is the generated text
	Content string `json:"content"`

	// Model used for the completion
	Model string `json:"model"`

	// Provider that handled the request
	Provider string `json:"provider"`

	// TokensUsed is the total token consumption reported by the backend
	TokensUsed int `json:"tokens_used"`

	// ToolCalls lists function invocations requested by the model, if any
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// ToolCall is a model-issued request to invoke a named local function
type ToolCall struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

// ToolDefinition describes a callable function in the OpenAI
// function-calling shape expected by the backends.
type ToolDefinition struct {
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`
}

// ToolFunction carries the name, description and JSON-Schema parameter
// contract of a tool.
type ToolFunction struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// ProviderConfig holds the static configuration of a provider.
// Immutable once the provider is constructed.
type ProviderConfig struct {
	// APIKey for authentication
	APIKey string

	// BaseURL for the API
	BaseURL string

	// DefaultModel used when a request omits the model
	DefaultModel string

	// Type tags the backend family
	Type ProviderType

	// Priority orders failover; lower is tried first
	Priority int

	// Timeout for each request
	Timeout time.Duration

	// MaxRetries for failed requests
	MaxRetries int

	// BackoffFactor scales the rate-limit retry delay
	BackoffFactor float64

	// Headers are added to every request
	Headers map[string]string
}

// DefaultProviderConfig returns a sensible default configuration
func DefaultProviderConfig() ProviderConfig {
	return ProviderConfig{
		Timeout:       30 * time.Second,
		MaxRetries:    3,
		BackoffFactor: 1.5,
		Headers:       make(map[string]string),
	}
}

// Stats reports a provider's attempt and failure counters.
type Stats struct {
	// Requests counts individual attempts, including retries
	Requests int64 `json:"requests"`

	// Errors counts calls that exhausted their retry budget
	Errors int64 `json:"errors"`
}
