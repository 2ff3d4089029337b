package models

import (
	"time"

	"github.com/google/uuid"
)

// RequestStatus is the terminal state of an orchestrated request.
type RequestStatus string

const (
	StatusCompleted RequestStatus = "completed"
	StatusFailed    RequestStatus = "failed"
)

// RequestRecord captures one orchestrated request for analytics and the
// optional audit store.
type RequestRecord struct {
	ID           uuid.UUID     `json:"id"`
	Prompt       string        `json:"prompt"`
	Model        string        `json:"model"`
	Provider     string        `json:"provider"`
	TokensUsed   int           `json:"tokens_used"`
	Cost         float64       `json:"cost"`
	LatencyMs    int           `json:"latency_ms"`
	Status       RequestStatus `json:"status"`
	ErrorMessage string        `json:"error_message,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
}

// NewRequestRecord creates a record in its initial state.
func NewRequestRecord(prompt, model string) *RequestRecord {
	return &RequestRecord{
		ID:        uuid.New(),
		Prompt:    prompt,
		Model:     model,
		CreatedAt: time.Now(),
	}
}

// MarkCompleted finalizes the record after a successful response.
func (r *RequestRecord) MarkCompleted(provider string, tokens int, latencyMs int) {
	r.Provider = provider
	r.TokensUsed = tokens
	r.LatencyMs = latencyMs
	r.Status = StatusCompleted
}

// MarkFailed finalizes the record after a terminal failure.
func (r *RequestRecord) MarkFailed(message string, latencyMs int) {
	r.Status = StatusFailed
	r.ErrorMessage = message
	r.LatencyMs = latencyMs
}
