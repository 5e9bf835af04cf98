package ratelimit

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/democracy-watch/congress-indexer/internal/config"
	"github.com/democracy-watch/congress-indexer/internal/logger"
)

// RequestFunc is a function that performs the actual API request
// It receives a context and returns the result and any error
type RequestFunc func(ctx context.Context) (interface{}, error)

// requestResult wraps the result and error of a request
type requestResult struct {
	value interface{}
	err   error
}

// Proxy defines the interface for rate-limiting proxy
type Proxy interface {
	// Request submits a rate-limited request for execution
	Request(ctx context.Context, sourceName string, fn RequestFunc) (interface{}, error)

	// Close gracefully shuts down the proxy
	Close() error
}

// proxy is the concrete implementation of the rate-limiting proxy.
// Each source gets its own limiter enforcing a minimum inter-request
// interval, so independent sources proceed concurrently while requests
// to one source stay serial.
type proxy struct {
	config    config.RateLimiterConfig
	pool      pond.ResultPool[*requestResult]
	limiters  map[string]*sourceLimiter
	closed    atomic.Bool
	closeOnce sync.Once
}

// sourceLimiter holds the rate limiting state for a single external source
type sourceLimiter struct {
	name    string
	config  config.SourceLimitConfig
	limiter *rate.Limiter

	// serializes requests to the source so the interval is enforced
	// between request starts, not merely between token grants
	mu sync.Mutex
}

// NewProxy creates a new rate-limiting proxy
func NewProxy(cfg config.RateLimiterConfig) (Proxy, error) {
	// Validate and set defaults
	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Create source limiters. Burst is fixed at 1: the contract is a
	// minimum interval between consecutive requests, never a burst.
	limiters := make(map[string]*sourceLimiter)
	for name, sourceConfig := range cfg.Sources {
		limiters[name] = &sourceLimiter{
			name:    name,
			config:  sourceConfig,
			limiter: rate.NewLimiter(rate.Every(sourceConfig.MinInterval), 1),
		}
	}

	// Create worker pool with result support
	pool := pond.NewResultPool[*requestResult](
		cfg.MaxWorkers,
		pond.WithQueueSize(cfg.MaxQueueSize),
	)

	p := &proxy{
		config:   cfg,
		pool:     pool,
		limiters: limiters,
	}

	logger.Info("rate limit proxy initialized",
		zap.Int("max_workers", cfg.MaxWorkers),
		zap.Int("max_queue_size", cfg.MaxQueueSize),
		zap.Int("sources", len(cfg.Sources)),
	)

	return p, nil
}

// Request submits a rate-limited request for execution and returns the result with type safety
func Request[T any](ctx context.Context, p Proxy, sourceName string, fn func(ctx context.Context) (T, error)) (T, error) {
	// If proxy is nil, execute the function directly
	if p == nil {
		return fn(ctx)
	}

	// Execute the request
	var zero T
	result, err := p.Request(ctx, sourceName, func(ctx context.Context) (interface{}, error) {
		return fn(ctx)
	})
	if err != nil {
		return zero, err
	}
	return result.(T), nil
}

// Request submits a rate-limited request for execution and returns the result as interface{}
// The function blocks until:
// 1. The source's minimum interval has elapsed and the request completes
// 2. The context is canceled
// 3. The maximum queue time is exceeded
func (p *proxy) Request(ctx context.Context, sourceName string, fn RequestFunc) (interface{}, error) {
	// Check if proxy is closed
	if p.closed.Load() {
		return nil, fmt.Errorf("proxy is closed")
	}

	// Get source limiter
	limiter, ok := p.limiters[sourceName]
	if !ok {
		return nil, fmt.Errorf("source '%s' not configured", sourceName)
	}

	// Create context with timeout for queue waiting
	queueCtx, cancel := context.WithTimeout(ctx, limiter.config.MaxQueueTime)
	defer cancel()

	// Submit task to worker pool
	resultTask := p.pool.Submit(func() *requestResult {
		value, err := p.executeWithRateLimit(queueCtx, limiter, fn)
		return &requestResult{value: value, err: err}
	})

	// Wait for result
	result, err := resultTask.Wait()
	if err != nil {
		return nil, err
	}
	if result.err != nil {
		return nil, result.err
	}
	return result.value, nil
}

// executeWithRateLimit executes the request after waiting out the source's interval
func (p *proxy) executeWithRateLimit(ctx context.Context, limiter *sourceLimiter, fn RequestFunc) (interface{}, error) {
	limiter.mu.Lock()
	err := limiter.limiter.Wait(ctx)
	limiter.mu.Unlock()
	if err != nil {
		return nil, err
	}

	// Execute the request - no timeout wrapper here, let HTTP adapter handle it
	return fn(ctx)
}

// Close gracefully shuts down the proxy
// It waits for in-flight requests to complete
func (p *proxy) Close() error {
	var err error
	p.closeOnce.Do(func() {
		p.closed.Store(true)

		logger.Info("shutting down rate limit proxy")

		// Stop the pool and wait for tasks to complete
		tasks := p.pool.Stop()
		if errTasks := tasks.Wait(); errTasks != nil {
			logger.Warn("error waiting for pool tasks to complete", zap.Error(errTasks))
			err = errTasks
		}

		logger.Info("rate limit proxy shutdown complete")
	})
	return err
}

// validateConfig validates and sets defaults for the configuration
func validateConfig(cfg *config.RateLimiterConfig) error {
	if len(cfg.Sources) == 0 {
		return fmt.Errorf("at least one source must be configured")
	}

	for name, source := range cfg.Sources {
		if source.MinInterval <= 0 {
			return fmt.Errorf("source %s: min_interval must be positive", name)
		}

		if source.MaxQueueTime <= 0 {
			source.MaxQueueTime = 5 * time.Minute
		}

		cfg.Sources[name] = source
	}

	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = runtime.NumCPU() * 10
	}

	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 10000
	}

	return nil
}
