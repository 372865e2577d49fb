// Package middleware provides client-side guards that stack around a
// source.Capability: circuit breaking, rate limiting, and instrumentation.
// Guards protect the upstream and the caller's latency budget; they never
// change call semantics — a rejected or tripped call surfaces as an
// ordinary failure for the aggregator to classify.
package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/aaronbassett/midnight-summit-hackathon-2025-sub001/internal/metrics"
	"github.com/aaronbassett/midnight-summit-hackathon-2025-sub001/internal/source"
)

// Breaker wraps a capability with a circuit breaker. When the breaker is
// open, calls fail fast without touching the upstream.
type Breaker struct {
	next source.Capability
	cb   *gobreaker.CircuitBreaker
}

// NewBreaker builds a breaker that opens after consecutiveFailures failures
// and probes again after openFor.
func NewBreaker(next source.Capability, consecutiveFailures uint32, openFor time.Duration) *Breaker {
	if consecutiveFailures == 0 {
		consecutiveFailures = 5
	}
	if openFor <= 0 {
		openFor = 30 * time.Second
	}
	settings := gobreaker.Settings{
		Name:    next.Name(),
		Timeout: openFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= consecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("source", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("source circuit state changed")
		},
	}
	return &Breaker{next: next, cb: gobreaker.NewCircuitBreaker(settings)}
}

func (b *Breaker) Name() string { return b.next.Name() }

func (b *Breaker) Invoke(ctx context.Context, method string, params any) (json.RawMessage, error) {
	result, err := b.cb.Execute(func() (any, error) {
		return b.next.Invoke(ctx, method, params)
	})
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", b.next.Name(), method, err)
	}
	raw, _ := result.(json.RawMessage)
	return raw, nil
}

// RateLimited wraps a capability with a token bucket. Invoke waits for a
// token or fails when the context expires first.
type RateLimited struct {
	next    source.Capability
	limiter *rate.Limiter
}

// NewRateLimited builds a limiter allowing rps requests per second with the
// given burst. rps <= 0 disables limiting.
func NewRateLimited(next source.Capability, rps float64, burst int) *RateLimited {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimited{next: next, limiter: rate.NewLimiter(limit, burst)}
}

func (r *RateLimited) Name() string { return r.next.Name() }

func (r *RateLimited) Invoke(ctx context.Context, method string, params any) (json.RawMessage, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait for %s: %w", r.next.Name(), err)
	}
	return r.next.Invoke(ctx, method, params)
}

// Instrumented wraps a capability with request logging and Prometheus
// observations. A nil registry logs only.
type Instrumented struct {
	next source.Capability
	reg  *metrics.Registry
}

func NewInstrumented(next source.Capability, reg *metrics.Registry) *Instrumented {
	return &Instrumented{next: next, reg: reg}
}

func (m *Instrumented) Name() string { return m.next.Name() }

func (m *Instrumented) Invoke(ctx context.Context, method string, params any) (json.RawMessage, error) {
	start := time.Now()
	raw, err := m.next.Invoke(ctx, method, params)
	elapsed := time.Since(start)

	if m.reg != nil {
		m.reg.ObserveSourceCall(m.next.Name(), method, err == nil, elapsed)
	}
	evt := log.Debug()
	if err != nil {
		evt = log.Warn().Err(err)
	}
	evt.
		Str("source", m.next.Name()).
		Str("method", method).
		Dur("elapsed", elapsed).
		Msg("source call")

	return raw, err
}

// Wrap stacks the standard guard chain around a capability:
// instrumentation outermost, then rate limiting, then the breaker closest
// to the transport so breaker state reflects real upstream failures.
func Wrap(next source.Capability, reg *metrics.Registry, rps float64, burst int, consecutiveFailures uint32, openFor time.Duration) source.Capability {
	wrapped := source.Capability(NewBreaker(next, consecutiveFailures, openFor))
	wrapped = NewRateLimited(wrapped, rps, burst)
	return NewInstrumented(wrapped, reg)
}
