package ratelimit_test

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/democracy-watch/congress-indexer/internal/config"
	"github.com/democracy-watch/congress-indexer/internal/logger"
	"github.com/democracy-watch/congress-indexer/internal/ratelimit"
)

func TestMain(m *testing.M) {
	// Initialize logger for tests
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	code := m.Run()
	os.Exit(code)
}

func testConfig(interval time.Duration) config.RateLimiterConfig {
	return config.RateLimiterConfig{
		MaxWorkers:   4,
		MaxQueueSize: 100,
		Sources: map[string]config.SourceLimitConfig{
			"congress_api": {MinInterval: interval, MaxQueueTime: 10 * time.Second},
			"house_clerk":  {MinInterval: interval, MaxQueueTime: 10 * time.Second},
		},
	}
}

func TestNewProxy_Success(t *testing.T) {
	proxy, err := ratelimit.NewProxy(testConfig(10 * time.Millisecond))
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, proxy.Close())
	}()
}

func TestNewProxy_NoSources(t *testing.T) {
	_, err := ratelimit.NewProxy(config.RateLimiterConfig{})
	assert.Error(t, err)
}

func TestNewProxy_InvalidInterval(t *testing.T) {
	cfg := config.RateLimiterConfig{
		Sources: map[string]config.SourceLimitConfig{
			"congress_api": {MinInterval: 0},
		},
	}
	_, err := ratelimit.NewProxy(cfg)
	assert.Error(t, err)
}

func TestRequest_Success(t *testing.T) {
	proxy, err := ratelimit.NewProxy(testConfig(time.Millisecond))
	require.NoError(t, err)
	defer proxy.Close()

	result, err := ratelimit.Request(context.Background(), proxy, "congress_api", func(ctx context.Context) (string, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
}

func TestRequest_PropagatesError(t *testing.T) {
	proxy, err := ratelimit.NewProxy(testConfig(time.Millisecond))
	require.NoError(t, err)
	defer proxy.Close()

	wantErr := errors.New("upstream failure")
	_, err = ratelimit.Request(context.Background(), proxy, "congress_api", func(ctx context.Context) (string, error) {
		return "", wantErr
	})
	assert.ErrorIs(t, err, wantErr)
}

func TestRequest_UnknownSource(t *testing.T) {
	proxy, err := ratelimit.NewProxy(testConfig(time.Millisecond))
	require.NoError(t, err)
	defer proxy.Close()

	_, err = ratelimit.Request(context.Background(), proxy, "unknown", func(ctx context.Context) (string, error) {
		return "", nil
	})
	assert.Error(t, err)
}

func TestRequest_NilProxyExecutesDirectly(t *testing.T) {
	result, err := ratelimit.Request(context.Background(), nil, "congress_api", func(ctx context.Context) (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, result)
}

func TestRequest_EnforcesMinInterval(t *testing.T) {
	const interval = 50 * time.Millisecond
	proxy, err := ratelimit.NewProxy(testConfig(interval))
	require.NoError(t, err)
	defer proxy.Close()

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := ratelimit.Request(context.Background(), proxy, "congress_api", func(ctx context.Context) (struct{}, error) {
			return struct{}{}, nil
		})
		require.NoError(t, err)
	}

	// Three requests means at least two full intervals of waiting
	assert.GreaterOrEqual(t, time.Since(start), 2*interval)
}

func TestRequest_SourcesAreIndependent(t *testing.T) {
	const interval = 100 * time.Millisecond
	proxy, err := ratelimit.NewProxy(testConfig(interval))
	require.NoError(t, err)
	defer proxy.Close()

	// Exhaust the congress_api token
	_, err = ratelimit.Request(context.Background(), proxy, "congress_api", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, nil
	})
	require.NoError(t, err)

	// A request to a different source must not wait for congress_api's interval
	start := time.Now()
	_, err = ratelimit.Request(context.Background(), proxy, "house_clerk", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, nil
	})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), interval)
}

func TestRequest_ContextCancellation(t *testing.T) {
	proxy, err := ratelimit.NewProxy(testConfig(time.Hour))
	require.NoError(t, err)
	defer proxy.Close()

	// First request consumes the initial token
	_, err = ratelimit.Request(context.Background(), proxy, "congress_api", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	var executed atomic.Bool
	_, err = ratelimit.Request(ctx, proxy, "congress_api", func(ctx context.Context) (struct{}, error) {
		executed.Store(true)
		return struct{}{}, nil
	})
	assert.Error(t, err)
	assert.False(t, executed.Load())
}

func TestClose_RejectsNewRequests(t *testing.T) {
	proxy, err := ratelimit.NewProxy(testConfig(time.Millisecond))
	require.NoError(t, err)
	require.NoError(t, proxy.Close())

	_, err = ratelimit.Request(context.Background(), proxy, "congress_api", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, nil
	})
	assert.Error(t, err)
}
