package budget

import (
	"fmt"
	"sync"
	"time"

	"github.com/linkbay/linkbay-ai/services"
	"go.uber.org/zap"
)

const (
	hourKeyFormat = "2006-01-02-15"
	dayKeyFormat  = "2006-01-02"

	// Windows older than these horizons are evicted opportunistically
	// on each budget check.
	hourlyRetention = 2 * time.Hour
	dailyRetention  = 48 * time.Hour

	// defaultTokenPrice applies to models missing from the pricing table.
	defaultTokenPrice = 0.001
)

// BudgetConfig holds the spend ceilings enforced by the controller.
type BudgetConfig struct {
	// MaxTokensPerHour is the hourly token ceiling
	MaxTokensPerHour int `validate:"gt=0"`

	// MaxTokensPerDay is the daily token ceiling
	MaxTokensPerDay int `validate:"gt=0"`

	// MaxCostPerHour is the hourly monetary ceiling in USD
	MaxCostPerHour float64 `validate:"gt=0"`

	// AlertThreshold is the hourly utilization fraction past which a
	// warning is emitted. Warnings never block a request.
	AlertThreshold float64 `validate:"gt=0,lte=1"`
}

// DefaultBudgetConfig returns permissive default limits.
func DefaultBudgetConfig() BudgetConfig {
	return BudgetConfig{
		MaxTokensPerHour: 100_000,
		MaxTokensPerDay:  1_000_000,
		MaxCostPerHour:   10.0,
		AlertThreshold:   0.8,
	}
}

// WindowUsage is a point-in-time view of one budget window.
type WindowUsage struct {
	Tokens    int     `json:"tokens"`
	Limit     int     `json:"limit"`
	Percent   float64 `json:"percent"`
	Cost      float64 `json:"cost,omitempty"`
	CostLimit float64 `json:"cost_limit,omitempty"`
}

// UsageSnapshot reports current hourly and daily consumption.
type UsageSnapshot struct {
	Hourly WindowUsage `json:"hourly"`
	Daily  WindowUsage `json:"daily"`
}

// AlertFunc is invoked when hourly utilization crosses the alert threshold.
type AlertFunc func(fraction float64)

// CostController tracks token and monetary usage in coarse hourly/daily
// buckets and authorizes requests before they are sent. All state is
// guarded by a mutex: concurrent requests share the same windows.
type CostController struct {
	config BudgetConfig
	logger *zap.Logger

	mu          sync.Mutex
	hourlyUsage map[string]int     // hour key -> tokens
	dailyUsage  map[string]int     // day key -> tokens
	hourlyCost  map[string]float64 // hour key -> USD

	tokenPrices map[string]float64 // model -> USD per token
	onAlert     AlertFunc

	now func() time.Time
}

// Option configures a CostController.
type Option func(*CostController)

// WithAlertFunc registers a callback for threshold warnings.
func WithAlertFunc(fn AlertFunc) Option {
	return func(c *CostController) { c.onAlert = fn }
}

// WithTokenPrice overrides the per-token USD price for a model.
func WithTokenPrice(model string, price float64) Option {
	return func(c *CostController) { c.tokenPrices[model] = price }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *CostController) { c.now = now }
}

// NewCostController creates a controller with the given limits.
func NewCostController(config BudgetConfig, logger *zap.Logger, opts ...Option) *CostController {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &CostController{
		config:      config,
		logger:      logger,
		hourlyUsage: make(map[string]int),
		dailyUsage:  make(map[string]int),
		hourlyCost:  make(map[string]float64),
		tokenPrices: map[string]float64{
			"deepseek-chat":     0.14 / 1_000_000,
			"deepseek-reasoner": 0.55 / 1_000_000,
			"gpt-3.5-turbo":     0.5 / 1_000_000,
			"gpt-4":             30.0 / 1_000_000,
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CheckBudget authorizes a prospective request. It fails with a validation
// error when the estimate is negative or can never fit the hourly ceiling,
// and with a budget error when any window would overflow. The boundary is
// inclusive: usage exactly at a ceiling is accepted.
func (c *CostController) CheckBudget(estimatedTokens int, model string) error {
	if estimatedTokens < 0 {
		return services.ErrNegativeEstimate
	}
	if estimatedTokens > c.config.MaxTokensPerHour {
		return services.NewDomainError(services.ErrorTypeValidation,
			fmt.Sprintf("estimate of %d tokens exceeds the hourly ceiling of %d",
				estimatedTokens, c.config.MaxTokensPerHour), nil)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.evictStale()

	now := c.now()
	hourKey := now.Format(hourKeyFormat)
	dayKey := now.Format(dayKeyFormat)

	currentHourly := c.hourlyUsage[hourKey]
	if currentHourly+estimatedTokens > c.config.MaxTokensPerHour {
		return services.NewDomainError(services.ErrorTypeBudget,
			fmt.Sprintf("hourly token budget exceeded: %d / %d",
				currentHourly+estimatedTokens, c.config.MaxTokensPerHour), nil)
	}

	currentDaily := c.dailyUsage[dayKey]
	if currentDaily+estimatedTokens > c.config.MaxTokensPerDay {
		return services.NewDomainError(services.ErrorTypeBudget,
			fmt.Sprintf("daily token budget exceeded: %d / %d",
				currentDaily+estimatedTokens, c.config.MaxTokensPerDay), nil)
	}

	estimatedCost := float64(estimatedTokens) * c.priceFor(model)
	currentCost := c.hourlyCost[hourKey]
	if currentCost+estimatedCost > c.config.MaxCostPerHour {
		return services.NewDomainError(services.ErrorTypeBudget,
			fmt.Sprintf("hourly cost budget exceeded: $%.4f / $%.2f",
				currentCost+estimatedCost, c.config.MaxCostPerHour), nil)
	}

	fraction := float64(currentHourly+estimatedTokens) / float64(c.config.MaxTokensPerHour)
	if fraction > c.config.AlertThreshold {
		c.logger.Warn("budget alert: approaching hourly token ceiling",
			zap.Float64("utilization_percent", fraction*100),
			zap.Int("hourly_tokens", currentHourly),
			zap.Int("hourly_limit", c.config.MaxTokensPerHour))
		if c.onAlert != nil {
			c.onAlert(fraction)
		}
	}

	return nil
}

// RecordUsage adds actual consumption to the current windows. Called after
// a completed response, never with an estimate.
func (c *CostController) RecordUsage(tokensUsed int, model string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	hourKey := now.Format(hourKeyFormat)
	dayKey := now.Format(dayKeyFormat)

	c.hourlyUsage[hourKey] += tokensUsed
	c.dailyUsage[dayKey] += tokensUsed

	cost := float64(tokensUsed) * c.priceFor(model)
	c.hourlyCost[hourKey] += cost

	c.logger.Info("usage recorded",
		zap.Int("tokens", tokensUsed),
		zap.Float64("cost", cost),
		zap.String("model", model))
}

// CurrentUsage returns a snapshot of the active windows.
func (c *CostController) CurrentUsage() UsageSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	hourKey := now.Format(hourKeyFormat)
	dayKey := now.Format(dayKeyFormat)

	hourlyTokens := c.hourlyUsage[hourKey]
	dailyTokens := c.dailyUsage[dayKey]

	return UsageSnapshot{
		Hourly: WindowUsage{
			Tokens:    hourlyTokens,
			Limit:     c.config.MaxTokensPerHour,
			Percent:   float64(hourlyTokens) / float64(c.config.MaxTokensPerHour) * 100,
			Cost:      c.hourlyCost[hourKey],
			CostLimit: c.config.MaxCostPerHour,
		},
		Daily: WindowUsage{
			Tokens:  dailyTokens,
			Limit:   c.config.MaxTokensPerDay,
			Percent: float64(dailyTokens) / float64(c.config.MaxTokensPerDay) * 100,
		},
	}
}

// Reset clears all windows. Administrative operation, not part of the
// request path.
func (c *CostController) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.hourlyUsage = make(map[string]int)
	c.dailyUsage = make(map[string]int)
	c.hourlyCost = make(map[string]float64)

	c.logger.Warn("budget windows reset")
}

// evictStale drops windows older than the retention horizon.
// Caller must hold c.mu.
func (c *CostController) evictStale() {
	now := c.now()
	hourThreshold := now.Add(-hourlyRetention).Format(hourKeyFormat)
	dayThreshold := now.Add(-dailyRetention).Format(dayKeyFormat)

	for k := range c.hourlyUsage {
		if k <= hourThreshold {
			delete(c.hourlyUsage, k)
		}
	}
	for k := range c.hourlyCost {
		if k <= hourThreshold {
			delete(c.hourlyCost, k)
		}
	}
	for k := range c.dailyUsage {
		if k <= dayThreshold {
			delete(c.dailyUsage, k)
		}
	}
}

func (c *CostController) priceFor(model string) float64 {
	if price, ok := c.tokenPrices[model]; ok {
		return price
	}
	return defaultTokenPrice
}
