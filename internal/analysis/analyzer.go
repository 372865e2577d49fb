// Package analysis implements the composite analysis policies: each one
// declares a batch of source calls, fans them out, merges whatever
// succeeded into a single best-effort result, and reads/writes the category
// cache. Partial success is the default outcome shape — a result with
// errors still carries every field whose source answered.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/aaronbassett/midnight-summit-hackathon-2025-sub001/internal/cache"
	"github.com/aaronbassett/midnight-summit-hackathon-2025-sub001/internal/metrics"
	"github.com/aaronbassett/midnight-summit-hackathon-2025-sub001/internal/source"
)

// DefaultLimit bounds list-shaped enrichment data when the caller does not
// ask for a specific amount.
const DefaultLimit = 10

// Diagnostics is the envelope every analysis result carries. Empty slices
// (not null) signal that all data in that class was obtained.
type Diagnostics struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func newDiagnostics() Diagnostics {
	return Diagnostics{Errors: []string{}, Warnings: []string{}}
}

func (d *Diagnostics) extend(errs, warnings []string) {
	d.Errors = append(d.Errors, errs...)
	d.Warnings = append(d.Warnings, warnings...)
}

// Analyzer runs composite analyses against the two configured sources.
// The cache and both capabilities are injected; the analyzer holds no
// other state and is safe for concurrent invocations.
type Analyzer struct {
	rpc     source.Capability
	indexer source.Capability
	cache   cache.Cache
	reg     *metrics.Registry

	now func() time.Time
}

// New builds an Analyzer. reg may be nil to disable metrics.
func New(rpc, indexer source.Capability, c cache.Cache, reg *metrics.Registry) *Analyzer {
	return &Analyzer{
		rpc:     rpc,
		indexer: indexer,
		cache:   c,
		reg:     reg,
		now:     time.Now,
	}
}

// begin stamps a fresh invocation id into a logger and returns it with the
// start time.
func (a *Analyzer) begin(policy string) (zerolog.Logger, time.Time) {
	logger := log.With().
		Str("policy", policy).
		Str("invocation", uuid.NewString()).
		Logger()
	return logger, a.now()
}

// finish records the invocation's degradation level. Call via defer so a
// recovered panic is still counted.
func (a *Analyzer) finish(policy string, logger zerolog.Logger, start time.Time, d *Diagnostics) {
	elapsed := a.now().Sub(start)
	if a.reg != nil {
		a.reg.ObserveAnalysis(policy, len(d.Errors), len(d.Warnings), elapsed)
	}
	logger.Info().
		Dur("elapsed", elapsed).
		Int("errors", len(d.Errors)).
		Int("warnings", len(d.Warnings)).
		Msg("analysis complete")
}

// guard converts a panic in merge logic into one top-level error entry so
// the partially built result is still returned.
func guard(d *Diagnostics) {
	if r := recover(); r != nil {
		d.Errors = append(d.Errors, fmt.Sprintf("internal error: %v", r))
	}
}

// lookupCached fetches a typed prior result. A shared store (Redis) hands
// back generically decoded JSON rather than the original Go value, so a
// failed type assertion falls back to a JSON round trip into the caller's
// type; only a value that survives neither is a miss.
func lookupCached[T any](ctx context.Context, a *Analyzer, category, key string) (T, bool) {
	var zero T
	v, hit := a.cache.Get(ctx, category, key)
	if a.reg != nil {
		if hit {
			a.reg.CacheHits.WithLabelValues(category).Inc()
		} else {
			a.reg.CacheMisses.WithLabelValues(category).Inc()
		}
	}
	if !hit {
		return zero, false
	}
	if typed, ok := v.(T); ok {
		return typed, true
	}
	if v == nil {
		return zero, false
	}
	buf, err := json.Marshal(v)
	if err != nil {
		return zero, false
	}
	var out T
	if json.Unmarshal(buf, &out) != nil {
		return zero, false
	}
	return out, true
}

func (a *Analyzer) storeCached(ctx context.Context, category, key string, value any) {
	a.cache.Set(ctx, category, key, value)
}

// recordOutcomes merges a settled batch into the diagnostics and counts
// each failure by severity.
func (a *Analyzer) recordOutcomes(d *Diagnostics, outcomes []source.Outcome) {
	d.extend(source.Partition(outcomes))
	if a.reg == nil {
		return
	}
	for _, o := range outcomes {
		if o.OK {
			continue
		}
		severity := "warning"
		if o.Call.Required {
			severity = "error"
		}
		a.reg.SourceCallFailures.WithLabelValues(o.Call.Source.Name(), severity).Inc()
	}
}

// decodePayload unmarshals a source payload into dst. Absent, null, or
// undecodable payloads report false: the source answered without usable
// data, which callers classify as DataAbsent, never as a parse error.
func decodePayload(raw json.RawMessage, dst any) bool {
	if len(raw) == 0 || string(raw) == "null" {
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}

// normalizeLimit clamps a caller-supplied limit into [1, DefaultLimit*10],
// defaulting to DefaultLimit.
func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > DefaultLimit*10 {
		return DefaultLimit * 10
	}
	return limit
}
