// Package local provides an always-available fallback provider. It answers
// with a canned message so callers degrade gracefully when every remote
// backend is down.
package local

import (
	"context"

	"github.com/linkbay/linkbay-ai/services/providers"
)

const fallbackContent = "All remote providers are currently unavailable. Please try again later."

// Provider is the local fallback. It never fails and consumes no tokens.
type Provider struct {
	content string
}

// New creates a local fallback provider. An empty content falls back to a
// generic unavailability message.
func New(content string) *Provider {
	if content == "" {
		content = fallbackContent
	}
	return &Provider{content: content}
}

// Name returns the provider name
func (p *Provider) Name() string {
	return string(providers.TypeLocal)
}

// Chat returns the canned response
func (p *Provider) Chat(ctx context.Context, messages []providers.Message, params *providers.GenerationParams) (*providers.AIResponse, error) {
	return &providers.AIResponse{
		Content:    p.content,
		Model:      "local",
		Provider:   p.Name(),
		TokensUsed: 0,
	}, nil
}

// Stream yields the canned response as a single fragment
func (p *Provider) Stream(ctx context.Context, messages []providers.Message, params *providers.GenerationParams) (<-chan string, error) {
	out := make(chan string, 1)
	out <- p.content
	close(out)
	return out, nil
}

// IsAvailable always reports true
func (p *Provider) IsAvailable(ctx context.Context) bool {
	return true
}
