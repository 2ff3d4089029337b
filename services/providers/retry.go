package providers

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// RetryConfig holds the tuning parameters for the bounded-retry executor.
type RetryConfig struct {
	// MaxRetries is the total number of attempts. Default: 3.
	MaxRetries int

	// BackoffFactor scales the wait after a rate-limit error
	// (wait = 2^attempt * BackoffFactor seconds). Default: 1.5.
	BackoffFactor float64
}

func applyRetryDefaults(cfg *RetryConfig) {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.BackoffFactor <= 0 {
		cfg.BackoffFactor = 1.5
	}
}

// RetryExecutor runs provider calls with classification-driven retries.
// Retryable failures (rate limit, timeout, connection, server) back off and
// try again; client errors surface immediately; anything unexpected aborts
// the loop. The request counter moves once per attempt, the error counter
// once per exhausted call.
type RetryExecutor struct {
	provider string
	cfg      RetryConfig
	logger   *zap.Logger

	// sleep is swapped out in tests
	sleep func(ctx context.Context, d time.Duration) error

	requests atomic.Int64
	errors   atomic.Int64
}

func NewRetryExecutor(provider string, cfg RetryConfig, logger *zap.Logger) *RetryExecutor {
	applyRetryDefaults(&cfg)
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetryExecutor{
		provider: provider,
		cfg:      cfg,
		logger:   logger,
		sleep:    sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Do invokes fn until it succeeds or the retry budget is spent.
func (e *RetryExecutor) Do(ctx context.Context, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt < e.cfg.MaxRetries; attempt++ {
		e.requests.Add(1)

		err := fn()
		if err == nil {
			return nil
		}

		kind := KindOf(err)
		switch kind {
		case KindClient:
			// 4xx-class failures are never retried
			return err
		case KindRateLimit, KindTimeout, KindConnection, KindServer:
			lastErr = err
		default:
			e.errors.Add(1)
			e.logger.Error("provider call failed unexpectedly",
				zap.String("provider", e.provider),
				zap.Error(err))
			return NewProviderError(e.provider, KindUnexpected, "unexpected provider failure", 0, err)
		}

		if attempt == e.cfg.MaxRetries-1 {
			break
		}

		wait := e.backoff(kind, attempt)
		e.logger.Warn("provider call failed, retrying",
			zap.String("provider", e.provider),
			zap.String("kind", string(kind)),
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", e.cfg.MaxRetries),
			zap.Duration("wait", wait))

		if sleepErr := e.sleep(ctx, wait); sleepErr != nil {
			e.errors.Add(1)
			return NewProviderError(e.provider, KindTimeout, "retry wait aborted", 0, sleepErr)
		}
	}

	e.errors.Add(1)
	e.logger.Error("provider exhausted retry budget",
		zap.String("provider", e.provider),
		zap.Int("max_retries", e.cfg.MaxRetries),
		zap.Error(lastErr))

	return NewProviderError(e.provider, KindOf(lastErr),
		fmt.Sprintf("failed after %d attempts", e.cfg.MaxRetries), 0, lastErr)
}

// backoff computes the wait before the next attempt. Rate-limit failures
// are scaled by the backoff factor; everything else waits 2^attempt seconds.
func (e *RetryExecutor) backoff(kind ErrorKind, attempt int) time.Duration {
	base := math.Pow(2, float64(attempt))
	if kind == KindRateLimit {
		base *= e.cfg.BackoffFactor
	}
	return time.Duration(base * float64(time.Second))
}

// Stats returns the attempt/failure counters.
func (e *RetryExecutor) Stats() Stats {
	return Stats{
		Requests: e.requests.Load(),
		Errors:   e.errors.Load(),
	}
}
