package handlers

import (
	"go.uber.org/zap"

	"github.com/linkbay/linkbay-ai/services/orchestrator"
	"github.com/linkbay/linkbay-ai/services/providers"
	"github.com/linkbay/linkbay-ai/services/tools"
)

// Handlers holds the HTTP handlers and their dependencies
type Handlers struct {
	orchestrator *orchestrator.Orchestrator
	tools        *tools.Registry
	providers    []providers.Provider
	logger       *zap.Logger
}

// New creates a new Handlers instance. The tools registry may be nil when
// tool dispatch is disabled.
func New(orch *orchestrator.Orchestrator, registry *tools.Registry, provs []providers.Provider, logger *zap.Logger) *Handlers {
	return &Handlers{
		orchestrator: orch,
		tools:        registry,
		providers:    provs,
		logger:       logger,
	}
}
