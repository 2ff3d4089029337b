package openai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/linkbay/linkbay-ai/services/providers"
	"go.uber.org/zap"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Adapter implements the Provider interface over the OpenAI-compatible
// chat completions API. The provider name and base URL come from the
// config, so the same adapter backs both OpenAI and DeepSeek.
type Adapter struct {
	config     providers.ProviderConfig
	name       string
	httpClient *http.Client
	retry      *providers.RetryExecutor
	logger     *zap.Logger
}

// NewAdapter creates a new adapter from config. The config is copied and
// never mutated afterwards.
func NewAdapter(config providers.ProviderConfig, logger *zap.Logger) *Adapter {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	defaults := providers.DefaultProviderConfig()
	if config.Timeout == 0 {
		config.Timeout = defaults.Timeout
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = defaults.MaxRetries
	}
	if config.BackoffFactor == 0 {
		config.BackoffFactor = defaults.BackoffFactor
	}
	if config.Type == "" {
		config.Type = providers.TypeOpenAI
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	name := string(config.Type)
	return &Adapter{
		config: config,
		name:   name,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		retry: providers.NewRetryExecutor(name, providers.RetryConfig{
			MaxRetries:    config.MaxRetries,
			BackoffFactor: config.BackoffFactor,
		}, logger),
		logger: logger,
	}
}

// Name returns the provider name
func (a *Adapter) Name() string {
	return a.name
}

// Chat performs a chat completion request
func (a *Adapter) Chat(ctx context.Context, messages []providers.Message, params *providers.GenerationParams) (*providers.AIResponse, error) {
	params = a.resolveParams(params)

	var result *providers.AIResponse
	err := a.retry.Do(ctx, func() error {
		resp, callErr := a.completeOnce(ctx, messages, params, false)
		if callErr != nil {
			return callErr
		}
		result = resp
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Stream performs a streaming chat completion. Establishing the connection
// goes through the retry executor; once fragments start flowing, a failure
// simply closes the channel.
func (a *Adapter) Stream(ctx context.Context, messages []providers.Message, params *providers.GenerationParams) (<-chan string, error) {
	params = a.resolveParams(params)

	var body io.ReadCloser
	err := a.retry.Do(ctx, func() error {
		resp, callErr := a.exchange(ctx, messages, params, true)
		if callErr != nil {
			return callErr
		}
		body = resp.Body
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make(chan string)
	go a.consumeStream(ctx, body, out)
	return out, nil
}

// IsAvailable checks the backend's model listing endpoint.
func (a *Adapter) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.config.BaseURL+"/models", nil)
	if err != nil {
		return false
	}
	req.Header.Set("Authorization", "Bearer "+a.config.APIKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		a.logger.Warn("health check failed",
			zap.String("provider", a.name),
			zap.Error(err))
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

// Stats returns the adapter's attempt/failure counters.
func (a *Adapter) Stats() providers.Stats {
	return a.retry.Stats()
}

// completeOnce runs one non-streaming exchange and converts the response.
func (a *Adapter) completeOnce(ctx context.Context, messages []providers.Message, params *providers.GenerationParams, stream bool) (*providers.AIResponse, error) {
	resp, err := a.exchange(ctx, messages, params, stream)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, providers.NewProviderError(a.name, providers.KindConnection, "failed to read response", resp.StatusCode, err)
	}

	var wire chatCompletionResponse
	if err := json.Unmarshal(respBody, &wire); err != nil {
		return nil, providers.NewProviderError(a.name, providers.KindUnexpected, "failed to decode response", resp.StatusCode, err)
	}
	if len(wire.Choices) == 0 {
		return nil, providers.NewProviderError(a.name, providers.KindServer, "response contains no choices", resp.StatusCode, nil)
	}

	return a.convertResponse(&wire, params), nil
}

// exchange performs a single HTTP round-trip, classifying every failure.
// On success the caller owns resp.Body.
func (a *Adapter) exchange(ctx context.Context, messages []providers.Message, params *providers.GenerationParams, stream bool) (*http.Response, error) {
	wireReq := chatCompletionRequest{
		Model:       params.Model,
		Messages:    make([]chatMessage, len(messages)),
		MaxTokens:   params.MaxTokens,
		Temperature: params.Temperature,
		Stream:      stream,
	}
	for i, msg := range messages {
		wireReq.Messages[i] = chatMessage{Role: msg.Role, Content: msg.Content}
	}
	for _, tool := range params.Tools {
		wireReq.Tools = append(wireReq.Tools, map[string]interface{}{
			"type": tool.Type,
			"function": map[string]interface{}{
				"name":        tool.Function.Name,
				"description": tool.Function.Description,
				"parameters":  tool.Function.Parameters,
			},
		})
	}

	reqBody, err := json.Marshal(wireReq)
	if err != nil {
		return nil, providers.NewProviderError(a.name, providers.KindUnexpected, "failed to encode request", 0, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.BaseURL+"/chat/completions", bytes.NewReader(reqBody))
	if err != nil {
		return nil, providers.NewProviderError(a.name, providers.KindUnexpected, "failed to build request", 0, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+a.config.APIKey)
	for k, v := range a.config.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		kind := providers.ClassifyTransport(err)
		return nil, providers.NewProviderError(a.name, kind, "request failed", 0, err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, a.errorFromResponse(resp)
	}

	return resp, nil
}

// errorFromResponse converts a non-200 response into a classified error.
func (a *Adapter) errorFromResponse(resp *http.Response) error {
	kind := providers.ClassifyStatus(resp.StatusCode)

	message := fmt.Sprintf("backend returned status %d", resp.StatusCode)
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err == nil {
		var apiErr apiErrorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			message = apiErr.Error.Message
		}
	}

	return providers.NewProviderError(a.name, kind, message, resp.StatusCode, nil)
}

func (a *Adapter) convertResponse(wire *chatCompletionResponse, params *providers.GenerationParams) *providers.AIResponse {
	choice := wire.Choices[0]

	var toolCalls []providers.ToolCall
	for _, tc := range choice.Message.ToolCalls {
		args := make(map[string]interface{})
		if tc.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				a.logger.Warn("failed to decode tool call arguments",
					zap.String("provider", a.name),
					zap.String("tool", tc.Function.Name),
					zap.Error(err))
				continue
			}
		}
		toolCalls = append(toolCalls, providers.ToolCall{
			Name:      tc.Function.Name,
			Arguments: args,
		})
	}

	tokens := 0
	if wire.Usage != nil {
		tokens = wire.Usage.TotalTokens
	}

	return &providers.AIResponse{
		Content:    choice.Message.Content,
		Model:      params.Model,
		Provider:   a.name,
		TokensUsed: tokens,
		ToolCalls:  toolCalls,
	}
}

// consumeStream reads SSE lines from body and forwards content fragments.
func (a *Adapter) consumeStream(ctx context.Context, body io.ReadCloser, out chan<- string) {
	defer close(out)
	defer body.Close()

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "[DONE]" {
			return
		}

		var chunk chatCompletionChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			a.logger.Warn("skipping malformed stream chunk",
				zap.String("provider", a.name),
				zap.Error(err))
			continue
		}
		if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
			continue
		}

		select {
		case out <- chunk.Choices[0].Delta.Content:
		case <-ctx.Done():
			return
		}
	}

	if err := scanner.Err(); err != nil {
		a.logger.Warn("stream terminated",
			zap.String("provider", a.name),
			zap.Error(err))
	}
}

func (a *Adapter) resolveParams(params *providers.GenerationParams) *providers.GenerationParams {
	if params == nil {
		params = &providers.GenerationParams{}
	}
	resolved := *params
	if resolved.Model == "" {
		resolved.Model = a.config.DefaultModel
	}
	return &resolved
}
