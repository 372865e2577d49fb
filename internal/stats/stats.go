// Package stats computes throughput, interval percentiles, and exact
// big-integer aggregates over observed network activity. Everything here is
// pure and synchronous; degenerate inputs resolve to documented defaults,
// never errors.
package stats

import (
	"math/big"
	"sort"
	"time"
)

// Throughput returns events per second over the half-open window
// [now-window, now). Timestamps outside the window are ignored.
func Throughput(timestamps []time.Time, window time.Duration, now time.Time) float64 {
	if window <= 0 {
		return 0
	}
	cutoff := now.Add(-window)
	count := 0
	for _, ts := range timestamps {
		if !ts.Before(cutoff) && ts.Before(now) {
			count++
		}
	}
	return float64(count) / window.Seconds()
}

// IntervalPercentiles holds percentile latencies over the gaps between
// consecutive events.
type IntervalPercentiles struct {
	P50 time.Duration `json:"p50"`
	P90 time.Duration `json:"p90"`
	P95 time.Duration `json:"p95"`
	P99 time.Duration `json:"p99"`
}

// Intervals computes p50/p90/p95/p99 of the deltas between consecutive
// timestamps. Input must be chronologically sorted. Fewer than two
// timestamps yields all-zero percentiles.
func Intervals(timestamps []time.Time) IntervalPercentiles {
	if len(timestamps) < 2 {
		return IntervalPercentiles{}
	}

	deltas := make([]time.Duration, 0, len(timestamps)-1)
	for i := 1; i < len(timestamps); i++ {
		deltas = append(deltas, timestamps[i].Sub(timestamps[i-1]))
	}
	sort.Slice(deltas, func(i, j int) bool { return deltas[i] < deltas[j] })

	pick := func(p float64) time.Duration {
		return deltas[int(float64(len(deltas))*p)]
	}
	return IntervalPercentiles{
		P50: pick(0.50),
		P90: pick(0.90),
		P95: pick(0.95),
		P99: pick(0.99),
	}
}

// BigSummary aggregates an integer value set with exact arithmetic. Average
// is truncated integer division.
type BigSummary struct {
	Count   int      `json:"count"`
	Min     *big.Int `json:"min"`
	Max     *big.Int `json:"max"`
	Sum     *big.Int `json:"sum"`
	Average *big.Int `json:"average"`
}

// SummarizeBig computes min/max/sum/average over values using math/big so
// amounts never suffer float rounding. The second return is false for an
// empty set: callers omit the aggregate entirely rather than report zeros.
func SummarizeBig(values []*big.Int) (BigSummary, bool) {
	if len(values) == 0 {
		return BigSummary{}, false
	}

	min := new(big.Int).Set(values[0])
	max := new(big.Int).Set(values[0])
	sum := new(big.Int)
	for _, v := range values {
		if v.Cmp(min) < 0 {
			min.Set(v)
		}
		if v.Cmp(max) > 0 {
			max.Set(v)
		}
		sum.Add(sum, v)
	}
	avg := new(big.Int).Quo(sum, big.NewInt(int64(len(values))))

	return BigSummary{
		Count:   len(values),
		Min:     min,
		Max:     max,
		Sum:     sum,
		Average: avg,
	}, true
}
