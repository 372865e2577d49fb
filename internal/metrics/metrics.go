// Package metrics exposes Prometheus instrumentation for the analyzer:
// source call latency and failure partitioning, cache traffic per category,
// and end-to-end analysis duration.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all analyzer metrics.
type Registry struct {
	SourceCallDuration *prometheus.HistogramVec
	SourceCallFailures *prometheus.CounterVec
	CacheHits          *prometheus.CounterVec
	CacheMisses        *prometheus.CounterVec
	AnalysisDuration   *prometheus.HistogramVec
	AnalysisOutcomes   *prometheus.CounterVec
}

// NewRegistry creates the analyzer metrics and registers them with reg.
func NewRegistry(reg prometheus.Registerer) *Registry {
	r := &Registry{
		SourceCallDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "midnight_source_call_duration_seconds",
				Help:    "Duration of upstream source calls",
				Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"source", "method", "result"},
		),
		SourceCallFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "midnight_source_call_failures_total",
				Help: "Failed source calls partitioned by severity",
			},
			[]string{"source", "severity"}, // severity: error|warning
		),
		CacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "midnight_cache_hits_total",
				Help: "Cache hits per category",
			},
			[]string{"category"},
		),
		CacheMisses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "midnight_cache_misses_total",
				Help: "Cache misses per category",
			},
			[]string{"category"},
		),
		AnalysisDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "midnight_analysis_duration_seconds",
				Help:    "End-to-end duration of composite analyses",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
			},
			[]string{"policy"},
		),
		AnalysisOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "midnight_analysis_outcomes_total",
				Help: "Completed analyses by degradation level",
			},
			[]string{"policy", "outcome"}, // outcome: complete|degraded|failed
		),
	}

	reg.MustRegister(
		r.SourceCallDuration,
		r.SourceCallFailures,
		r.CacheHits,
		r.CacheMisses,
		r.AnalysisDuration,
		r.AnalysisOutcomes,
	)
	return r
}

// ObserveSourceCall records one settled source call.
func (r *Registry) ObserveSourceCall(source, method string, ok bool, elapsed time.Duration) {
	result := "ok"
	if !ok {
		result = "error"
	}
	r.SourceCallDuration.WithLabelValues(source, method, result).Observe(elapsed.Seconds())
}

// ObserveAnalysis records one completed analysis. An analysis is "failed"
// when mandatory data was missing, "degraded" when only enrichment data was
// missing, and "complete" otherwise.
func (r *Registry) ObserveAnalysis(policy string, errs, warnings int, elapsed time.Duration) {
	outcome := "complete"
	switch {
	case errs > 0:
		outcome = "failed"
	case warnings > 0:
		outcome = "degraded"
	}
	r.AnalysisDuration.WithLabelValues(policy).Observe(elapsed.Seconds())
	r.AnalysisOutcomes.WithLabelValues(policy, outcome).Inc()
}
