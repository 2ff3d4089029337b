package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/linkbay/linkbay-ai/services/orchestrator"
	"github.com/linkbay/linkbay-ai/utils"
)

// ChatRequest is the payload for POST /api/v1/chat and /api/v1/chat/stream
type ChatRequest struct {
	Prompt          string  `json:"prompt" validate:"required,min=1,max=32768"`
	Model           string  `json:"model,omitempty" validate:"omitempty,max=128"`
	MaxTokens       int     `json:"max_tokens,omitempty" validate:"omitempty,gte=1,lte=32768"`
	Temperature     float64 `json:"temperature,omitempty" validate:"omitempty,gte=0,lte=2"`
	UseConversation bool    `json:"use_conversation,omitempty"`
	UseCache        bool    `json:"use_cache,omitempty"`
	UseTools        bool    `json:"use_tools,omitempty"`
}

// ChatResponse is the payload returned by POST /api/v1/chat
type ChatResponse struct {
	Content     string               `json:"content"`
	Model       string               `json:"model"`
	Provider    string               `json:"provider"`
	TokensUsed  int                  `json:"tokens_used"`
	FromCache   bool                 `json:"from_cache,omitempty"`
	ToolResults []ToolResultResponse `json:"tool_results,omitempty"`
}

// ToolResultResponse is the JSON shape of one dispatched tool outcome
type ToolResultResponse struct {
	Name   string      `json:"name"`
	Result interface{} `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// Chat handles POST /api/v1/chat
func (h *Handlers) Chat(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeChatRequest(w, r)
	if !ok {
		return
	}

	result, err := h.orchestrator.Chat(r.Context(), req.Prompt, toChatOptions(req))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, toChatResponse(result))
}

// ChatStream handles POST /api/v1/chat/stream and relays content fragments
// as server-sent events.
func (h *Handlers) ChatStream(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeChatRequest(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.WriteInternalServerError(w, "Streaming is not supported")
		return
	}

	fragments, err := h.orchestrator.ChatStream(r.Context(), req.Prompt, toChatOptions(req))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	for fragment := range fragments {
		payload, err := json.Marshal(map[string]string{"content": fragment})
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()
	}

	fmt.Fprint(w, "data: [DONE]\n\n")
	flusher.Flush()
}

func (h *Handlers) decodeChatRequest(w http.ResponseWriter, r *http.Request) (*ChatRequest, bool) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteBadRequest(w, "Invalid JSON body", nil)
		return nil, false
	}

	if err := utils.ValidateStruct(&req); err != nil {
		details := map[string]interface{}{}
		var verr *utils.ValidationError
		if errors.As(err, &verr) {
			for field, msg := range verr.Fields {
				details[field] = msg
			}
		}
		h.logger.Debug("rejected chat request",
			zap.String("request_id", chimiddleware.GetReqID(r.Context())),
			zap.Error(err))
		utils.WriteBadRequest(w, "Request validation failed", details)
		return nil, false
	}

	return &req, true
}

func toChatOptions(req *ChatRequest) orchestrator.ChatOptions {
	return orchestrator.ChatOptions{
		Model:           req.Model,
		MaxTokens:       req.MaxTokens,
		Temperature:     req.Temperature,
		UseConversation: req.UseConversation,
		UseCache:        req.UseCache,
		UseTools:        req.UseTools,
	}
}

func toChatResponse(result *orchestrator.Result) ChatResponse {
	resp := ChatResponse{
		Content:    result.Response.Content,
		Model:      result.Response.Model,
		Provider:   result.Response.Provider,
		TokensUsed: result.Response.TokensUsed,
		FromCache:  result.FromCache,
	}
	for _, tr := range result.ToolResults {
		out := ToolResultResponse{Name: tr.Name, Result: tr.Result}
		if tr.Err != nil {
			out.Error = tr.Err.Error()
		}
		resp.ToolResults = append(resp.ToolResults, out)
	}
	return resp
}
