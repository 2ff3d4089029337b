package orchestrator

import (
	"strings"

	"github.com/linkbay/linkbay-ai/services/providers"
)

// ChatOptions selects per-request behavior. The zero value is a plain
// single-prompt request with no caching, history or tools.
type ChatOptions struct {
	// Model overrides the winning provider's default model
	Model string

	// MaxTokens limits the response length
	MaxTokens int

	// Temperature controls randomness
	Temperature float64

	// UseConversation appends the prompt to the shared history and sends
	// the accumulated messages
	UseConversation bool

	// UseCache consults the response cache before dispatch and populates
	// it afterwards
	UseCache bool

	// UseTools surfaces the registered tool definitions to the backend
	// and dispatches any tool calls in the response
	UseTools bool
}

// ToolResult is the outcome of one dispatched tool call. Tool results are
// not fed back into a follow-up model call; that round-trip is the
// caller's decision.
type ToolResult struct {
	Name   string      `json:"name"`
	Result interface{} `json:"result,omitempty"`
	Err    error       `json:"-"`
}

// Result bundles the winning response with any tool outcomes.
type Result struct {
	Response    *providers.AIResponse `json:"response"`
	ToolResults []ToolResult          `json:"tool_results,omitempty"`

	// FromCache is true when the response was served without a backend call
	FromCache bool `json:"from_cache,omitempty"`
}

// ProviderFailure pairs a provider name with its terminal error during a
// failover walk.
type ProviderFailure struct {
	Provider string
	Err      error
}

// AllProvidersFailedError aggregates each provider's terminal error after
// a failover walk exhausts the whole list.
type AllProvidersFailedError struct {
	Failures []ProviderFailure
}

// Error implements the error interface
func (e *AllProvidersFailedError) Error() string {
	var b strings.Builder
	b.WriteString("all providers failed")
	for _, f := range e.Failures {
		b.WriteString("; ")
		b.WriteString(f.Provider)
		b.WriteString(": ")
		b.WriteString(f.Err.Error())
	}
	return b.String()
}

// Analytics summarizes the in-process request history.
type Analytics struct {
	TotalRequests int            `json:"total_requests"`
	Completed     int            `json:"completed"`
	Failed        int            `json:"failed"`
	ByProvider    map[string]int `json:"by_provider"`
	ByModel       map[string]int `json:"by_model"`
	TotalTokens   int            `json:"total_tokens"`
}
