package analysis

import (
	"context"
	"time"

	"github.com/aaronbassett/midnight-summit-hackathon-2025-sub001/internal/cache"
	"github.com/aaronbassett/midnight-summit-hackathon-2025-sub001/internal/finality"
	"github.com/aaronbassett/midnight-summit-hackathon-2025-sub001/internal/source"
	"github.com/aaronbassett/midnight-summit-hackathon-2025-sub001/internal/stats"
)

// Network health dashboard status levels.
const (
	HealthStatusHealthy  = "Healthy"
	HealthStatusWarning  = "Warning"
	HealthStatusCritical = "Critical"
)

// throughputWindow is the window for the events-per-second figure.
const throughputWindow = time.Minute

// healthSampleSize is how many recent transactions feed the throughput and
// interval statistics.
const healthSampleSize = 50

// NetworkHealth is the dashboard snapshot. Every underlying call is
// enrichment: a fully failed snapshot is still a valid result with status
// Critical and warnings explaining what is missing.
type NetworkHealth struct {
	Status               string                     `json:"status"`
	ThroughputPerSecond  float64                    `json:"throughputPerSecond"`
	Intervals            *stats.IntervalPercentiles `json:"intervalPercentiles,omitempty"`
	SampleSize           int                        `json:"sampleSize"`
	Committee            *finality.Committee        `json:"committee,omitempty"`
	RequiredAttestations *int                       `json:"requiredAttestations,omitempty"`
	PastPerfectTime      *time.Time                 `json:"pastPerfectTime,omitempty"`
	Diagnostics
}

// NetworkHealth builds the committee/network health dashboard. No call is
// strictly required; the overall status degrades with the number of
// unavailable data classes.
func (a *Analyzer) NetworkHealth(ctx context.Context) (health *NetworkHealth, err error) {
	logger, start := a.begin("networkHealth")
	key := "networkHealth"

	if cached, hit := lookupCached[*NetworkHealth](ctx, a, cache.CategoryNetworkStats, key); hit {
		logger.Debug().Msg("serving cached snapshot")
		return cached, nil
	}

	health = &NetworkHealth{
		Status:      HealthStatusHealthy,
		Diagnostics: newDiagnostics(),
	}
	defer a.finish("networkHealth", logger, start, &health.Diagnostics)
	defer guard(&health.Diagnostics)

	outcomes := source.RunCalls(ctx, []source.Call{
		{Name: "recent transactions", Source: a.indexer, Method: "transactions", Params: map[string]any{"limit": healthSampleSize}},
		{Name: "committee", Source: a.indexer, Method: "committee"},
		{Name: "checkpoint", Source: a.indexer, Method: "pastPerfectTime"},
	})
	failed := 0
	for _, o := range outcomes {
		if !o.OK {
			failed++
		}
	}
	a.recordOutcomes(&health.Diagnostics, outcomes)

	for _, o := range outcomes {
		if !o.OK {
			continue
		}
		switch o.Call.Name {
		case "recent transactions":
			var records []TxRecord
			if !decodePayload(o.Value, &records) {
				continue
			}
			health.SampleSize = len(records)
			timestamps := timestampsOf(records)
			health.ThroughputPerSecond = stats.Throughput(timestamps, throughputWindow, a.now())
			if len(timestamps) >= 2 {
				intervals := stats.Intervals(timestamps)
				health.Intervals = &intervals
			}
		case "committee":
			if committee := decodeCommittee(o.Value); committee != nil {
				health.Committee = committee
				required, warnings := finality.ResolveQuorum(committee)
				health.RequiredAttestations = &required
				health.Warnings = append(health.Warnings, warnings...)
			}
		case "checkpoint":
			health.PastPerfectTime = decodeCheckpoint(o.Value)
		}
	}

	switch {
	case failed == len(outcomes):
		health.Status = HealthStatusCritical
	case failed > 0:
		health.Status = HealthStatusWarning
	}

	a.storeCached(ctx, cache.CategoryNetworkStats, key, health)
	return health, nil
}
