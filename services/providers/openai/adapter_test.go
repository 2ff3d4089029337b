package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/linkbay/linkbay-ai/services/providers"
)

func testAdapter(t *testing.T, baseURL string) *Adapter {
	t.Helper()
	cfg := providers.DefaultProviderConfig()
	cfg.Type = providers.TypeDeepSeek
	cfg.APIKey = "test-key"
	cfg.BaseURL = baseURL
	cfg.DefaultModel = "deepseek-chat"
	cfg.MaxRetries = 1
	return NewAdapter(cfg, zap.NewNop())
}

func completionBody(content string, tokens int) string {
	return fmt.Sprintf(`{
		"id": "cmpl-1",
		"choices": [{"index": 0, "message": {"role": "assistant", "content": %q}, "finish_reason": "stop"}],
		"usage": {"prompt_tokens": 5, "completion_tokens": %d, "total_tokens": %d}
	}`, content, tokens-5, tokens)
}

func TestChatSuccess(t *testing.T) {
	var gotReq chatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		fmt.Fprint(w, completionBody("hello there", 12))
	}))
	defer srv.Close()

	a := testAdapter(t, srv.URL)
	resp, err := a.Chat(context.Background(), []providers.Message{
		{Role: providers.RoleUser, Content: "hi"},
	}, &providers.GenerationParams{MaxTokens: 100})

	require.NoError(t, err)
	assert.Equal(t, "hello there", resp.Content)
	assert.Equal(t, "deepseek", resp.Provider)
	assert.Equal(t, "deepseek-chat", resp.Model)
	assert.Equal(t, 12, resp.TokensUsed)

	// the default model fills in when the caller leaves it empty
	assert.Equal(t, "deepseek-chat", gotReq.Model)
	assert.Equal(t, 100, gotReq.MaxTokens)
	assert.False(t, gotReq.Stream)
}

func TestChatClientErrorNotRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error": {"message": "invalid api key", "type": "auth_error"}}`)
	}))
	defer srv.Close()

	cfg := providers.DefaultProviderConfig()
	cfg.BaseURL = srv.URL
	cfg.APIKey = "bad"
	cfg.MaxRetries = 3
	a := NewAdapter(cfg, zap.NewNop())

	_, err := a.Chat(context.Background(), []providers.Message{{Role: providers.RoleUser, Content: "hi"}}, nil)

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, providers.KindClient, providers.KindOf(err))
	assert.Contains(t, err.Error(), "invalid api key")
}

func TestChatServerErrorExhaustsRetries(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	a := testAdapter(t, srv.URL)

	_, err := a.Chat(context.Background(), []providers.Message{{Role: providers.RoleUser, Content: "hi"}}, nil)

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, providers.KindServer, providers.KindOf(err))
	assert.Equal(t, int64(1), a.Stats().Errors)
}

func TestChatNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id": "cmpl-1", "choices": []}`)
	}))
	defer srv.Close()

	a := testAdapter(t, srv.URL)

	_, err := a.Chat(context.Background(), []providers.Message{{Role: providers.RoleUser, Content: "hi"}}, nil)
	require.Error(t, err)
	assert.Equal(t, providers.KindServer, providers.KindOf(err))
}

func TestChatToolCalls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"choices": [{"message": {"role": "assistant", "content": "", "tool_calls": [
				{"id": "call_1", "type": "function", "function": {"name": "get_weather", "arguments": "{\"location\": \"Milan\"}"}},
				{"id": "call_2", "type": "function", "function": {"name": "broken", "arguments": "{not json"}}
			]}}],
			"usage": {"total_tokens": 20}
		}`)
	}))
	defer srv.Close()

	a := testAdapter(t, srv.URL)

	resp, err := a.Chat(context.Background(), []providers.Message{{Role: providers.RoleUser, Content: "weather?"}}, nil)
	require.NoError(t, err)

	// malformed arguments are skipped, valid calls decode into maps
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "get_weather", resp.ToolCalls[0].Name)
	assert.Equal(t, "Milan", resp.ToolCalls[0].Arguments["location"])
}

func TestChatSendsToolDefinitions(t *testing.T) {
	var gotReq chatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		fmt.Fprint(w, completionBody("ok", 10))
	}))
	defer srv.Close()

	a := testAdapter(t, srv.URL)

	_, err := a.Chat(context.Background(),
		[]providers.Message{{Role: providers.RoleUser, Content: "hi"}},
		&providers.GenerationParams{
			Tools: []providers.ToolDefinition{{
				Type: "function",
				Function: providers.ToolFunction{
					Name:        "get_weather",
					Description: "Gets weather",
					Parameters:  map[string]interface{}{"type": "object"},
				},
			}},
		})

	require.NoError(t, err)
	require.Len(t, gotReq.Tools, 1)
	assert.Equal(t, "function", gotReq.Tools[0]["type"])
	fn, ok := gotReq.Tools[0]["function"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "get_weather", fn["name"])
}

func TestStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Stream)

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"Hel\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\n\n")
		fmt.Fprint(w, ": keepalive comment\n\n")
		fmt.Fprint(w, "data: not-json\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	a := testAdapter(t, srv.URL)

	stream, err := a.Stream(context.Background(), []providers.Message{{Role: providers.RoleUser, Content: "hi"}}, nil)
	require.NoError(t, err)

	var got []string
	for fragment := range stream {
		got = append(got, fragment)
	}
	assert.Equal(t, []string{"Hel", "lo"}, got)
}

func TestStreamEstablishFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	a := testAdapter(t, srv.URL)

	_, err := a.Stream(context.Background(), []providers.Message{{Role: providers.RoleUser, Content: "hi"}}, nil)
	require.Error(t, err)
	assert.Equal(t, providers.KindClient, providers.KindOf(err))
}

func TestIsAvailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/models" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	a := testAdapter(t, srv.URL)
	assert.True(t, a.IsAvailable(context.Background()))

	srv.Close()
	assert.False(t, a.IsAvailable(context.Background()))
}
