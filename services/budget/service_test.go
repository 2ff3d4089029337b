package budget

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/linkbay/linkbay-ai/services"
)

func testConfig() BudgetConfig {
	return BudgetConfig{
		MaxTokensPerHour: 1000,
		MaxTokensPerDay:  10000,
		MaxCostPerHour:   10.0,
		AlertThreshold:   0.8,
	}
}

func TestCheckBudgetWithinLimits(t *testing.T) {
	c := NewCostController(testConfig(), zap.NewNop())

	require.NoError(t, c.CheckBudget(500, "deepseek-chat"))
	c.RecordUsage(500, "deepseek-chat")

	require.NoError(t, c.CheckBudget(400, "deepseek-chat"))
	c.RecordUsage(400, "deepseek-chat")

	// 900 recorded, 200 more would overflow the hourly window
	err := c.CheckBudget(200, "deepseek-chat")
	require.Error(t, err)
	assert.True(t, services.IsBudgetError(err))
	assert.Contains(t, err.Error(), "hourly token budget exceeded")
}

func TestCheckBudgetInclusiveBoundary(t *testing.T) {
	c := NewCostController(testConfig(), zap.NewNop())

	c.RecordUsage(900, "deepseek-chat")

	// exactly reaching the limit is allowed
	require.NoError(t, c.CheckBudget(100, "deepseek-chat"))

	err := c.CheckBudget(101, "deepseek-chat")
	require.Error(t, err)
	assert.True(t, services.IsBudgetError(err))
}

func TestCheckBudgetNegativeEstimate(t *testing.T) {
	c := NewCostController(testConfig(), zap.NewNop())

	err := c.CheckBudget(-1, "deepseek-chat")
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrNegativeEstimate)
	assert.True(t, services.IsValidationError(err))
}

func TestCheckBudgetEstimateAboveCeiling(t *testing.T) {
	c := NewCostController(testConfig(), zap.NewNop())

	err := c.CheckBudget(1001, "deepseek-chat")
	require.Error(t, err)
	assert.True(t, services.IsValidationError(err))
	assert.False(t, services.IsBudgetError(err))
}

func TestCheckBudgetDailyLimit(t *testing.T) {
	cfg := testConfig()
	cfg.MaxTokensPerHour = 10000
	cfg.MaxTokensPerDay = 1500
	c := NewCostController(cfg, zap.NewNop())

	c.RecordUsage(1400, "deepseek-chat")

	err := c.CheckBudget(200, "deepseek-chat")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "daily token budget exceeded")
}

func TestCheckBudgetCostLimit(t *testing.T) {
	cfg := testConfig()
	cfg.MaxCostPerHour = 0.01
	c := NewCostController(cfg, zap.NewNop(),
		WithTokenPrice("expensive-model", 0.001))

	c.RecordUsage(9, "expensive-model")

	// 9 tokens cost $0.009; 2 more would pass $0.01
	err := c.CheckBudget(2, "expensive-model")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hourly cost budget exceeded")
}

func TestCheckBudgetAlertThreshold(t *testing.T) {
	var alerted []float64
	c := NewCostController(testConfig(), zap.NewNop(),
		WithAlertFunc(func(fraction float64) {
			alerted = append(alerted, fraction)
		}))

	c.RecordUsage(700, "deepseek-chat")

	// 850/1000 passes the 0.8 threshold but is still accepted
	require.NoError(t, c.CheckBudget(150, "deepseek-chat"))
	require.Len(t, alerted, 1)
	assert.InDelta(t, 0.85, alerted[0], 0.001)
}

func TestWindowRollover(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	c := NewCostController(testConfig(), zap.NewNop(),
		WithClock(func() time.Time { return now }))

	c.RecordUsage(1000, "deepseek-chat")
	err := c.CheckBudget(1, "deepseek-chat")
	require.Error(t, err)

	// the next hour starts a fresh window
	now = now.Add(time.Hour)
	require.NoError(t, c.CheckBudget(1000, "deepseek-chat"))

	// the daily window still carries the earlier usage
	usage := c.CurrentUsage()
	assert.Equal(t, 0, usage.Hourly.Tokens)
	assert.Equal(t, 1000, usage.Daily.Tokens)
}

func TestStaleWindowEviction(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	c := NewCostController(testConfig(), zap.NewNop(),
		WithClock(func() time.Time { return now }))

	c.RecordUsage(500, "deepseek-chat")

	now = now.Add(3 * time.Hour)
	require.NoError(t, c.CheckBudget(0, "deepseek-chat"))

	c.mu.Lock()
	hourlyWindows := len(c.hourlyUsage)
	c.mu.Unlock()
	assert.Equal(t, 0, hourlyWindows)

	// daily windows survive 3 hours but not 3 days
	usage := c.CurrentUsage()
	assert.Equal(t, 500, usage.Daily.Tokens)

	now = now.Add(72 * time.Hour)
	require.NoError(t, c.CheckBudget(0, "deepseek-chat"))
	c.mu.Lock()
	dailyWindows := len(c.dailyUsage)
	c.mu.Unlock()
	assert.Equal(t, 0, dailyWindows)
}

func TestCurrentUsageSnapshot(t *testing.T) {
	c := NewCostController(testConfig(), zap.NewNop(),
		WithTokenPrice("m", 0.002))

	c.RecordUsage(250, "m")

	usage := c.CurrentUsage()
	assert.Equal(t, 250, usage.Hourly.Tokens)
	assert.Equal(t, 1000, usage.Hourly.Limit)
	assert.InDelta(t, 25.0, usage.Hourly.Percent, 0.001)
	assert.InDelta(t, 0.5, usage.Hourly.Cost, 0.0001)
	assert.Equal(t, 250, usage.Daily.Tokens)
}

func TestReset(t *testing.T) {
	c := NewCostController(testConfig(), zap.NewNop())

	c.RecordUsage(1000, "deepseek-chat")
	require.Error(t, c.CheckBudget(1, "deepseek-chat"))

	c.Reset()
	require.NoError(t, c.CheckBudget(1000, "deepseek-chat"))
}

func TestUnknownModelUsesDefaultPrice(t *testing.T) {
	c := NewCostController(testConfig(), zap.NewNop())

	c.RecordUsage(100, "some-unknown-model")
	usage := c.CurrentUsage()
	assert.InDelta(t, 100*defaultTokenPrice, usage.Hourly.Cost, 1e-9)
}
