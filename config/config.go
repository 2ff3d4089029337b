package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig
	Providers     ProvidersConfig
	Budget        BudgetConfig
	Cache         CacheConfig
	Conversation  ConversationConfig
	Auth          AuthConfig
	Audit         AuditConfig
	Observability ObservabilityConfig
	Environment   string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// ProvidersConfig holds LLM provider configurations
type ProvidersConfig struct {
	DeepSeek      ProviderConfig
	OpenAI        ProviderConfig
	LocalFallback LocalFallbackConfig
}

// ProviderConfig holds one backend's configuration. A provider with an
// empty APIKey is not registered.
type ProviderConfig struct {
	APIKey        string
	BaseURL       string
	DefaultModel  string
	Priority      int
	Timeout       time.Duration
	MaxRetries    int
	BackoffFactor float64
}

// LocalFallbackConfig controls the always-available local provider
type LocalFallbackConfig struct {
	Enabled  bool
	Priority int
	Content  string
}

// BudgetConfig holds spend ceilings
type BudgetConfig struct {
	MaxTokensPerHour int
	MaxTokensPerDay  int
	MaxCostPerHour   float64
	AlertThreshold   float64
}

// CacheConfig holds response cache settings
type CacheConfig struct {
	Enabled    bool
	TTL        time.Duration
	MaxEntries int
}

// ConversationConfig holds conversation history bounds
type ConversationConfig struct {
	MaxMessages      int
	ContextWindow    int
	SummarizeDropped bool
}

// AuthConfig holds gateway authentication settings. An empty JWTSecret
// disables authentication.
type AuthConfig struct {
	JWTSecret string
}

// AuditConfig holds the optional request log database. An empty
// DatabaseURL disables persistence.
type AuditConfig struct {
	DatabaseURL     string
	Retention       time.Duration
	CleanupInterval time.Duration
}

// ObservabilityConfig holds logging configuration
type ObservabilityConfig struct {
	LogLevel  string
	LogFormat string // json or text
}

// New creates a new Config instance by loading environment variables
func New() (*Config, error) {
	// Load .env if present; environment variables take precedence.
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 120*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Providers: ProvidersConfig{
			DeepSeek: ProviderConfig{
				APIKey:        getEnv("DEEPSEEK_API_KEY", ""),
				BaseURL:       getEnv("DEEPSEEK_BASE_URL", "https://api.deepseek.com"),
				DefaultModel:  getEnv("DEEPSEEK_DEFAULT_MODEL", "deepseek-chat"),
				Priority:      getEnvAsInt("DEEPSEEK_PRIORITY", 1),
				Timeout:       getEnvAsDuration("DEEPSEEK_TIMEOUT", 30*time.Second),
				MaxRetries:    getEnvAsInt("DEEPSEEK_MAX_RETRIES", 3),
				BackoffFactor: getEnvAsFloat("DEEPSEEK_BACKOFF_FACTOR", 1.5),
			},
			OpenAI: ProviderConfig{
				APIKey:        getEnv("OPENAI_API_KEY", ""),
				BaseURL:       getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
				DefaultModel:  getEnv("OPENAI_DEFAULT_MODEL", "gpt-3.5-turbo"),
				Priority:      getEnvAsInt("OPENAI_PRIORITY", 2),
				Timeout:       getEnvAsDuration("OPENAI_TIMEOUT", 30*time.Second),
				MaxRetries:    getEnvAsInt("OPENAI_MAX_RETRIES", 3),
				BackoffFactor: getEnvAsFloat("OPENAI_BACKOFF_FACTOR", 1.5),
			},
			LocalFallback: LocalFallbackConfig{
				Enabled:  getEnvAsBool("LOCAL_FALLBACK_ENABLED", true),
				Priority: getEnvAsInt("LOCAL_FALLBACK_PRIORITY", 99),
				Content:  getEnv("LOCAL_FALLBACK_CONTENT", ""),
			},
		},
		Budget: BudgetConfig{
			MaxTokensPerHour: getEnvAsInt("BUDGET_MAX_TOKENS_PER_HOUR", 100_000),
			MaxTokensPerDay:  getEnvAsInt("BUDGET_MAX_TOKENS_PER_DAY", 1_000_000),
			MaxCostPerHour:   getEnvAsFloat("BUDGET_MAX_COST_PER_HOUR", 10.0),
			AlertThreshold:   getEnvAsFloat("BUDGET_ALERT_THRESHOLD", 0.8),
		},
		Cache: CacheConfig{
			Enabled:    getEnvAsBool("CACHE_ENABLED", true),
			TTL:        getEnvAsDuration("CACHE_TTL", time.Hour),
			MaxEntries: getEnvAsInt("CACHE_MAX_ENTRIES", 1000),
		},
		Conversation: ConversationConfig{
			MaxMessages:      getEnvAsInt("CONVERSATION_MAX_MESSAGES", 20),
			ContextWindow:    getEnvAsInt("CONVERSATION_CONTEXT_WINDOW", 4096),
			SummarizeDropped: getEnvAsBool("CONVERSATION_SUMMARIZE_DROPPED", false),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("AUTH_JWT_SECRET", ""),
		},
		Audit: AuditConfig{
			DatabaseURL:     getEnv("DATABASE_URL", ""),
			Retention:       getEnvAsDuration("AUDIT_RETENTION", 30*24*time.Hour),
			CleanupInterval: getEnvAsDuration("AUDIT_CLEANUP_INTERVAL", 24*time.Hour),
		},
		Observability: ObservabilityConfig{
			LogLevel:  getEnv("LOG_LEVEL", "info"),
			LogFormat: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for consistency
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Budget.MaxTokensPerHour <= 0 {
		return fmt.Errorf("BUDGET_MAX_TOKENS_PER_HOUR must be positive")
	}
	if c.Budget.MaxTokensPerDay < c.Budget.MaxTokensPerHour {
		return fmt.Errorf("BUDGET_MAX_TOKENS_PER_DAY must be at least the hourly limit")
	}
	if c.Budget.MaxCostPerHour <= 0 {
		return fmt.Errorf("BUDGET_MAX_COST_PER_HOUR must be positive")
	}
	if c.Budget.AlertThreshold <= 0 || c.Budget.AlertThreshold > 1 {
		return fmt.Errorf("BUDGET_ALERT_THRESHOLD must be in (0, 1]")
	}
	if !c.Providers.LocalFallback.Enabled &&
		c.Providers.DeepSeek.APIKey == "" && c.Providers.OpenAI.APIKey == "" {
		return fmt.Errorf("no providers configured: set DEEPSEEK_API_KEY, OPENAI_API_KEY or enable the local fallback")
	}
	return nil
}

// IsDevelopment returns true in the development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// Environment variable helpers

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
