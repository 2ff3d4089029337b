package orchestrator

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/linkbay/linkbay-ai/models"
	"github.com/linkbay/linkbay-ai/services"
	"github.com/linkbay/linkbay-ai/services/budget"
	"github.com/linkbay/linkbay-ai/services/cache"
	"github.com/linkbay/linkbay-ai/services/conversation"
	"github.com/linkbay/linkbay-ai/services/providers"
	"github.com/linkbay/linkbay-ai/services/tools"
	"go.uber.org/zap"
)

// AuditStore persists finished request records. Implementations must be
// safe for concurrent use.
type AuditStore interface {
	Record(ctx context.Context, rec *models.RequestRecord) error
}

type registeredProvider struct {
	provider providers.Provider
	priority int
	seq      int
}

// Orchestrator is the single call-site for chat requests. It walks
// providers in ascending priority order, enforces the budget before any
// network interaction, dispatches model-issued tool calls, and records
// usage and analytics.
type Orchestrator struct {
	costs  *budget.CostController
	logger *zap.Logger

	tools        *tools.Registry
	conversation *conversation.Manager
	cache        cache.ResponseCache
	audit        AuditStore

	mu      sync.RWMutex
	entries []registeredProvider
	nextSeq int

	histMu  sync.Mutex
	history []*models.RequestRecord
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithTools enables tool dispatch using the given registry.
func WithTools(r *tools.Registry) Option {
	return func(o *Orchestrator) { o.tools = r }
}

// WithConversation enables shared-history requests.
func WithConversation(m *conversation.Manager) Option {
	return func(o *Orchestrator) { o.conversation = m }
}

// WithCache enables response caching.
func WithCache(c cache.ResponseCache) Option {
	return func(o *Orchestrator) { o.cache = c }
}

// WithAuditStore enables persistent request logging.
func WithAuditStore(s AuditStore) Option {
	return func(o *Orchestrator) { o.audit = s }
}

// New creates an orchestrator. The cost controller is mandatory; the
// remaining collaborators are optional.
func New(costs *budget.CostController, logger *zap.Logger, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := &Orchestrator{
		costs:  costs,
		logger: logger,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// RegisterProvider adds a provider with the given priority. Lower priority
// is tried first; equal priorities keep registration order.
func (o *Orchestrator) RegisterProvider(p providers.Provider, priority int) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.entries = append(o.entries, registeredProvider{
		provider: p,
		priority: priority,
		seq:      o.nextSeq,
	})
	o.nextSeq++

	sort.SliceStable(o.entries, func(i, j int) bool {
		if o.entries[i].priority != o.entries[j].priority {
			return o.entries[i].priority < o.entries[j].priority
		}
		return o.entries[i].seq < o.entries[j].seq
	})

	o.logger.Info("provider registered",
		zap.String("provider", p.Name()),
		zap.Int("priority", priority))
}

// DeregisterProvider removes a provider by name. In-flight failover walks
// keep operating on the snapshot they took at call start.
func (o *Orchestrator) DeregisterProvider(name string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	for i, e := range o.entries {
		if e.provider.Name() == name {
			o.entries = append(o.entries[:i], o.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Providers returns the names of registered providers in failover order.
func (o *Orchestrator) Providers() []string {
	names := []string{}
	for _, e := range o.snapshot() {
		names = append(names, e.provider.Name())
	}
	return names
}

// Chat issues a chat request through the resilience pipeline: cache lookup
// (when enabled), budget pre-check, priority-ordered failover, tool
// dispatch, then usage accounting.
func (o *Orchestrator) Chat(ctx context.Context, prompt string, opts ChatOptions) (*Result, error) {
	if prompt == "" {
		return nil, services.ErrEmptyPrompt
	}

	if opts.UseCache && o.cache != nil {
		if content, ok := o.cache.Get(prompt); ok {
			o.logger.Debug("cache hit", zap.String("model", opts.Model))
			return &Result{
				Response: &providers.AIResponse{
					Content:  content,
					Model:    opts.Model,
					Provider: "cache",
				},
				FromCache: true,
			}, nil
		}
	}

	messages := o.resolveMessages(prompt, opts)
	params := o.buildParams(opts)

	start := time.Now()
	record := models.NewRequestRecord(prompt, opts.Model)

	estimate := estimateTokens(messages, params.MaxTokens)
	if err := o.costs.CheckBudget(estimate, params.Model); err != nil {
		o.finishRecord(ctx, record, nil, err, start)
		return nil, err
	}

	resp, err := o.failover(ctx, messages, params, func(p providers.Provider) (*providers.AIResponse, error) {
		return p.Chat(ctx, messages, params)
	})
	if err != nil {
		o.finishRecord(ctx, record, nil, err, start)
		return nil, err
	}

	result := &Result{Response: resp}
	var toolErr error
	if opts.UseTools && o.tools != nil && len(resp.ToolCalls) > 0 {
		result.ToolResults, toolErr = o.dispatchTools(ctx, resp.ToolCalls)
	}

	o.costs.RecordUsage(resp.TokensUsed, resp.Model)

	if opts.UseConversation && o.conversation != nil {
		o.conversation.AddMessage(providers.RoleAssistant, resp.Content, resp.TokensUsed)
	}
	if opts.UseCache && o.cache != nil && toolErr == nil && len(resp.ToolCalls) == 0 {
		o.cache.Put(prompt, resp.Content)
	}

	o.finishRecord(ctx, record, resp, toolErr, start)

	if toolErr != nil {
		return nil, toolErr
	}
	return result, nil
}

// ChatStream issues a streaming request through the same budget and
// failover pipeline. Tool dispatch and caching do not apply to streams.
// The estimate is recorded as usage once a stream is established, since
// the backend does not report stream token counts.
func (o *Orchestrator) ChatStream(ctx context.Context, prompt string, opts ChatOptions) (<-chan string, error) {
	if prompt == "" {
		return nil, services.ErrEmptyPrompt
	}

	messages := o.resolveMessages(prompt, opts)
	params := o.buildParams(opts)
	params.Stream = true

	estimate := estimateTokens(messages, params.MaxTokens)
	if err := o.costs.CheckBudget(estimate, params.Model); err != nil {
		return nil, err
	}

	snapshot := o.snapshot()
	if len(snapshot) == 0 {
		return nil, services.ErrNoProviders
	}

	var failures []ProviderFailure
	for _, entry := range snapshot {
		stream, err := entry.provider.Stream(ctx, messages, params)
		if err != nil {
			o.logger.Warn("provider stream failed, trying next",
				zap.String("provider", entry.provider.Name()),
				zap.Error(err))
			failures = append(failures, ProviderFailure{Provider: entry.provider.Name(), Err: err})
			continue
		}
		o.costs.RecordUsage(estimate, params.Model)
		return stream, nil
	}

	return nil, &AllProvidersFailedError{Failures: failures}
}

// Analytics summarizes the in-process request history.
func (o *Orchestrator) Analytics() Analytics {
	o.histMu.Lock()
	defer o.histMu.Unlock()

	a := Analytics{
		ByProvider: make(map[string]int),
		ByModel:    make(map[string]int),
	}
	for _, rec := range o.history {
		a.TotalRequests++
		if rec.Status == models.StatusCompleted {
			a.Completed++
			a.ByProvider[rec.Provider]++
			a.TotalTokens += rec.TokensUsed
		} else {
			a.Failed++
		}
		if rec.Model != "" {
			a.ByModel[rec.Model]++
		}
	}
	return a
}

// Usage exposes the cost controller's current snapshot.
func (o *Orchestrator) Usage() budget.UsageSnapshot {
	return o.costs.CurrentUsage()
}

// failover walks the provider snapshot in priority order. A provider's
// retry exhaustion advances to the next; only an empty list or a full walk
// without a winner is terminal.
func (o *Orchestrator) failover(ctx context.Context, messages []providers.Message, params *providers.GenerationParams, call func(providers.Provider) (*providers.AIResponse, error)) (*providers.AIResponse, error) {
	snapshot := o.snapshot()
	if len(snapshot) == 0 {
		return nil, services.ErrNoProviders
	}

	var failures []ProviderFailure
	for _, entry := range snapshot {
		resp, err := call(entry.provider)
		if err == nil {
			o.logger.Info("provider succeeded",
				zap.String("provider", entry.provider.Name()),
				zap.String("model", params.Model),
				zap.Int("tokens", resp.TokensUsed))
			return resp, nil
		}

		o.logger.Warn("provider failed, trying next",
			zap.String("provider", entry.provider.Name()),
			zap.Error(err))
		failures = append(failures, ProviderFailure{Provider: entry.provider.Name(), Err: err})
	}

	err := &AllProvidersFailedError{Failures: failures}
	o.logger.Error("all providers failed", zap.Int("providers", len(failures)))
	return nil, err
}

// dispatchTools executes each requested tool call in order. The first
// failure is returned after the remaining calls are skipped, since a
// failed tool changes the model's next reasoning step.
func (o *Orchestrator) dispatchTools(ctx context.Context, calls []providers.ToolCall) ([]ToolResult, error) {
	results := make([]ToolResult, 0, len(calls))
	for _, call := range calls {
		value, err := o.tools.Execute(ctx, call)
		results = append(results, ToolResult{Name: call.Name, Result: value, Err: err})
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

func (o *Orchestrator) resolveMessages(prompt string, opts ChatOptions) []providers.Message {
	if opts.UseConversation && o.conversation != nil {
		o.conversation.AddMessage(providers.RoleUser, prompt, len(prompt)/4)
		return o.conversation.Messages(0)
	}
	return []providers.Message{{Role: providers.RoleUser, Content: prompt}}
}

func (o *Orchestrator) buildParams(opts ChatOptions) *providers.GenerationParams {
	params := &providers.GenerationParams{
		Model:       opts.Model,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	}
	if opts.UseTools && o.tools != nil {
		params.Tools = o.tools.Definitions()
	}
	return params
}

func (o *Orchestrator) snapshot() []registeredProvider {
	o.mu.RLock()
	defer o.mu.RUnlock()

	out := make([]registeredProvider, len(o.entries))
	copy(out, o.entries)
	return out
}

// finishRecord finalizes a record, appends it to the in-process history
// and hands it to the audit store when one is configured.
func (o *Orchestrator) finishRecord(ctx context.Context, record *models.RequestRecord, resp *providers.AIResponse, err error, start time.Time) {
	latencyMs := int(time.Since(start).Milliseconds())
	if resp != nil {
		record.Model = resp.Model
		record.MarkCompleted(resp.Provider, resp.TokensUsed, latencyMs)
		if err != nil {
			// Tool dispatch failed after a successful completion; keep the
			// consumption but flag the failure.
			record.Status = models.StatusFailed
			record.ErrorMessage = err.Error()
		}
	} else {
		record.MarkFailed(err.Error(), latencyMs)
	}

	o.histMu.Lock()
	o.history = append(o.history, record)
	o.histMu.Unlock()

	if o.audit != nil {
		go func() {
			auditCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if auditErr := o.audit.Record(auditCtx, record); auditErr != nil {
				o.logger.Error("failed to persist request record", zap.Error(auditErr))
			}
		}()
	}
}

// estimateTokens applies the rough 4-characters-per-token heuristic plus
// half the requested completion budget.
func estimateTokens(messages []providers.Message, maxTokens int) int {
	totalChars := 0
	for _, msg := range messages {
		totalChars += len(msg.Content)
	}
	return totalChars/4 + maxTokens/2
}
