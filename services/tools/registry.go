package tools

import (
	"context"
	"fmt"
	"sync"

	"github.com/linkbay/linkbay-ai/services"
	"github.com/linkbay/linkbay-ai/services/providers"
	"go.uber.org/zap"
)

// Handler executes a tool call with decoded arguments.
type Handler func(ctx context.Context, args map[string]interface{}) (interface{}, error)

// Registry maps tool names to handlers and keeps their definitions in
// registration order for backend function-calling. Read-heavy after
// startup; registration is still safe under concurrent use.
type Registry struct {
	mu          sync.RWMutex
	handlers    map[string]Handler
	definitions []providers.ToolDefinition
	logger      *zap.Logger
}

// NewRegistry creates an empty tool registry.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		handlers: make(map[string]Handler),
		logger:   logger,
	}
}

// Register stores handler under name and appends its definition.
// Re-registering a name replaces both the handler and the existing
// definition entry instead of appending a duplicate.
func (r *Registry) Register(name string, handler Handler, description string, parameters map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()

	def := providers.ToolDefinition{
		Type: "function",
		Function: providers.ToolFunction{
			Name:        name,
			Description: description,
			Parameters:  parameters,
		},
	}

	if _, exists := r.handlers[name]; exists {
		for i := range r.definitions {
			if r.definitions[i].Function.Name == name {
				r.definitions[i] = def
				break
			}
		}
	} else {
		r.definitions = append(r.definitions, def)
	}
	r.handlers[name] = handler

	r.logger.Info("tool registered", zap.String("tool", name))
}

// Execute dispatches a tool call to its handler. Arguments are validated
// against the declared schema before invocation.
func (r *Registry) Execute(ctx context.Context, call providers.ToolCall) (interface{}, error) {
	r.mu.RLock()
	handler, ok := r.handlers[call.Name]
	var schema map[string]interface{}
	if ok {
		for _, def := range r.definitions {
			if def.Function.Name == call.Name {
				schema = def.Function.Parameters
				break
			}
		}
	}
	r.mu.RUnlock()

	if !ok {
		return nil, services.NewDomainError(services.ErrorTypeToolNotFound,
			fmt.Sprintf("tool not found: %s", call.Name), nil)
	}

	if err := validateArguments(schema, call.Arguments); err != nil {
		return nil, services.NewDomainError(services.ErrorTypeToolValidation,
			fmt.Sprintf("invalid arguments for tool %s", call.Name), err)
	}

	r.logger.Info("executing tool", zap.String("tool", call.Name))

	result, err := handler(ctx, call.Arguments)
	if err != nil {
		r.logger.Error("tool execution failed",
			zap.String("tool", call.Name),
			zap.Error(err))
		return nil, services.NewDomainError(services.ErrorTypeToolExecution,
			fmt.Sprintf("tool %s failed", call.Name), err)
	}

	return result, nil
}

// List returns the registered tool names in registration order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.definitions))
	for _, def := range r.definitions {
		names = append(names, def.Function.Name)
	}
	return names
}

// Definitions returns the ordered tool definitions for backend
// function-calling.
func (r *Registry) Definitions() []providers.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]providers.ToolDefinition, len(r.definitions))
	copy(defs, r.definitions)
	return defs
}
