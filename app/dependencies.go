package app

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/linkbay/linkbay-ai/config"
	"github.com/linkbay/linkbay-ai/services/audit"
	"github.com/linkbay/linkbay-ai/services/budget"
	"github.com/linkbay/linkbay-ai/services/cache"
	"github.com/linkbay/linkbay-ai/services/conversation"
	"github.com/linkbay/linkbay-ai/services/orchestrator"
	"github.com/linkbay/linkbay-ai/services/providers"
	"github.com/linkbay/linkbay-ai/services/providers/local"
	"github.com/linkbay/linkbay-ai/services/providers/openai"
	"github.com/linkbay/linkbay-ai/services/tools"

	_ "github.com/lib/pq"
)

// Dependencies is the central wiring point for the gateway. Every
// long-lived component is constructed here and handed to the routes.
type Dependencies struct {
	Config *config.Config
	Logger *zap.Logger

	Providers    []providers.Provider
	Budget       *budget.CostController
	Tools        *tools.Registry
	Orchestrator *orchestrator.Orchestrator

	// DB is nil when no audit database is configured
	DB    *sql.DB
	Audit *audit.Service
}

// NewDependencies creates and wires up all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initAudit(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize audit store: %w", err)
	}
	deps.initOrchestrator(cfg)
	if err := deps.initProviders(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize providers: %w", err)
	}

	logger.Info("all dependencies initialized",
		zap.Int("providers", len(deps.Providers)),
		zap.Bool("audit_enabled", deps.Audit != nil))
	return deps, nil
}

// initProviders constructs each configured backend and registers it with
// the orchestrator. A provider with an empty API key is skipped.
func (d *Dependencies) initProviders(cfg *config.Config) error {
	if cfg.Providers.DeepSeek.APIKey != "" {
		adapter := openai.NewAdapter(adapterConfig(providers.TypeDeepSeek, cfg.Providers.DeepSeek), d.Logger)
		d.Providers = append(d.Providers, adapter)
		d.Orchestrator.RegisterProvider(adapter, cfg.Providers.DeepSeek.Priority)
	}

	if cfg.Providers.OpenAI.APIKey != "" {
		adapter := openai.NewAdapter(adapterConfig(providers.TypeOpenAI, cfg.Providers.OpenAI), d.Logger)
		d.Providers = append(d.Providers, adapter)
		d.Orchestrator.RegisterProvider(adapter, cfg.Providers.OpenAI.Priority)
	}

	if cfg.Providers.LocalFallback.Enabled {
		fallback := local.New(cfg.Providers.LocalFallback.Content)
		d.Providers = append(d.Providers, fallback)
		d.Orchestrator.RegisterProvider(fallback, cfg.Providers.LocalFallback.Priority)
	}

	if len(d.Providers) == 0 {
		return fmt.Errorf("no providers enabled")
	}
	return nil
}

func adapterConfig(pt providers.ProviderType, pc config.ProviderConfig) providers.ProviderConfig {
	out := providers.DefaultProviderConfig()
	out.Type = pt
	out.APIKey = pc.APIKey
	out.BaseURL = pc.BaseURL
	out.DefaultModel = pc.DefaultModel
	out.Priority = pc.Priority
	if pc.Timeout > 0 {
		out.Timeout = pc.Timeout
	}
	if pc.MaxRetries > 0 {
		out.MaxRetries = pc.MaxRetries
	}
	if pc.BackoffFactor > 0 {
		out.BackoffFactor = pc.BackoffFactor
	}
	return out
}

func (d *Dependencies) initAudit(ctx context.Context, cfg *config.Config) error {
	if cfg.Audit.DatabaseURL == "" {
		return nil
	}

	db, err := sql.Open("postgres", cfg.Audit.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open audit database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("audit database ping failed: %w", err)
	}

	d.DB = db
	d.Audit = audit.NewService(db, d.Logger)
	if err := d.Audit.InitSchema(ctx); err != nil {
		db.Close()
		return err
	}
	d.Logger.Info("audit database connection established")
	return nil
}

func (d *Dependencies) initOrchestrator(cfg *config.Config) {
	d.Budget = budget.NewCostController(budget.BudgetConfig{
		MaxTokensPerHour: cfg.Budget.MaxTokensPerHour,
		MaxTokensPerDay:  cfg.Budget.MaxTokensPerDay,
		MaxCostPerHour:   cfg.Budget.MaxCostPerHour,
		AlertThreshold:   cfg.Budget.AlertThreshold,
	}, d.Logger)

	d.Tools = tools.NewDefaultRegistry(d.Logger)

	opts := []orchestrator.Option{
		orchestrator.WithTools(d.Tools),
		orchestrator.WithConversation(conversation.NewManager(conversation.Config{
			MaxMessages:      cfg.Conversation.MaxMessages,
			ContextWindow:    cfg.Conversation.ContextWindow,
			SummarizeDropped: cfg.Conversation.SummarizeDropped,
		}, d.Logger, nil)),
	}
	if cfg.Cache.Enabled {
		opts = append(opts, orchestrator.WithCache(cache.NewMemoryCache(cache.Config{
			TTL:        cfg.Cache.TTL,
			MaxEntries: cfg.Cache.MaxEntries,
		}, d.Logger)))
	}
	if d.Audit != nil {
		opts = append(opts, orchestrator.WithAuditStore(d.Audit))
	}

	d.Orchestrator = orchestrator.New(d.Budget, d.Logger, opts...)
}

// Close releases held resources.
func (d *Dependencies) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
