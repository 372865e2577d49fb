package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistryRegisters(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRegistry(reg)
	require.NotNil(t, r)

	r.CacheHits.WithLabelValues("balances").Inc()
	r.CacheMisses.WithLabelValues("balances").Add(2)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.CacheHits.WithLabelValues("balances")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.CacheMisses.WithLabelValues("balances")))
}

func TestObserveAnalysisOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRegistry(reg)

	r.ObserveAnalysis("addressProfile", 0, 0, 10*time.Millisecond)
	r.ObserveAnalysis("addressProfile", 0, 2, 10*time.Millisecond)
	r.ObserveAnalysis("addressProfile", 1, 1, 10*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.AnalysisOutcomes.WithLabelValues("addressProfile", "complete")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.AnalysisOutcomes.WithLabelValues("addressProfile", "degraded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.AnalysisOutcomes.WithLabelValues("addressProfile", "failed")))
}

func TestObserveSourceCall(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRegistry(reg)

	r.ObserveSourceCall("rpc", "getBalance", true, 5*time.Millisecond)
	r.ObserveSourceCall("rpc", "getBalance", false, 5*time.Second)

	count := testutil.CollectAndCount(r.SourceCallDuration)
	assert.Equal(t, 2, count, "ok and error land in distinct label sets")
}
