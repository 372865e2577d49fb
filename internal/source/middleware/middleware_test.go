package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronbassett/midnight-summit-hackathon-2025-sub001/internal/metrics"
)

type scriptedCapability struct {
	name  string
	calls int
	fail  bool
}

func (s *scriptedCapability) Name() string { return s.name }

func (s *scriptedCapability) Invoke(_ context.Context, _ string, _ any) (json.RawMessage, error) {
	s.calls++
	if s.fail {
		return nil, errors.New("upstream down")
	}
	return json.RawMessage(`"ok"`), nil
}

func TestBreakerPassesThrough(t *testing.T) {
	upstream := &scriptedCapability{name: "rpc"}
	b := NewBreaker(upstream, 3, time.Minute)

	raw, err := b.Invoke(context.Background(), "getBalance", nil)
	require.NoError(t, err)
	assert.Equal(t, json.RawMessage(`"ok"`), raw)
	assert.Equal(t, "rpc", b.Name())
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	upstream := &scriptedCapability{name: "rpc", fail: true}
	b := NewBreaker(upstream, 3, time.Minute)

	for i := 0; i < 3; i++ {
		_, err := b.Invoke(context.Background(), "getBalance", nil)
		require.Error(t, err)
	}
	callsBefore := upstream.calls

	// Circuit is open: the upstream must not be touched again.
	_, err := b.Invoke(context.Background(), "getBalance", nil)
	require.Error(t, err)
	assert.Equal(t, callsBefore, upstream.calls, "open breaker must fail fast")
}

func TestRateLimitedWaits(t *testing.T) {
	upstream := &scriptedCapability{name: "indexer"}
	// 1 token burst at 100 rps: second call waits ~10ms.
	rl := NewRateLimited(upstream, 100, 1)

	start := time.Now()
	_, err := rl.Invoke(context.Background(), "m", nil)
	require.NoError(t, err)
	_, err = rl.Invoke(context.Background(), "m", nil)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 5*time.Millisecond)
}

func TestRateLimitedContextCancel(t *testing.T) {
	upstream := &scriptedCapability{name: "indexer"}
	rl := NewRateLimited(upstream, 0.001, 1)

	_, err := rl.Invoke(context.Background(), "m", nil) // consumes the only token
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = rl.Invoke(ctx, "m", nil)
	assert.Error(t, err, "waiting past the context deadline must fail")
}

func TestInstrumentedObserves(t *testing.T) {
	reg := metrics.NewRegistry(prometheus.NewRegistry())
	upstream := &scriptedCapability{name: "rpc"}
	inst := NewInstrumented(upstream, reg)

	_, err := inst.Invoke(context.Background(), "getBalance", nil)
	require.NoError(t, err)

	assert.Equal(t, 1, testutil.CollectAndCount(reg.SourceCallDuration))
}

func TestWrapStack(t *testing.T) {
	upstream := &scriptedCapability{name: "rpc"}
	wrapped := Wrap(upstream, nil, 1000, 10, 5, time.Minute)

	raw, err := wrapped.Invoke(context.Background(), "getBalance", nil)
	require.NoError(t, err)
	assert.Equal(t, json.RawMessage(`"ok"`), raw)
	assert.Equal(t, "rpc", wrapped.Name())
}
