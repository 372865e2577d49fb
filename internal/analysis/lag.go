package analysis

import (
	"context"
	"time"

	"github.com/aaronbassett/midnight-summit-hackathon-2025-sub001/internal/cache"
	"github.com/aaronbassett/midnight-summit-hackathon-2025-sub001/internal/source"
)

// Settlement lag classification thresholds.
const (
	lagCurrentWithin  = time.Minute
	lagElevatedWithin = 10 * time.Minute
)

// Settlement lag status levels.
const (
	LagStatusCurrent  = "Current"
	LagStatusElevated = "Elevated"
	LagStatusStalled  = "Stalled"
	LagStatusUnknown  = "Unknown"
)

// SettlementLag reports how far the network's past-perfect-time trails the
// present: everything at or before the checkpoint is final, so the lag is
// the window of activity still awaiting settlement.
type SettlementLag struct {
	Status          string     `json:"status"`
	PastPerfectTime *time.Time `json:"pastPerfectTime,omitempty"`
	LagSeconds      *float64   `json:"lagSeconds,omitempty"`
	UnsettledCount  *int       `json:"unsettledCount,omitempty"`
	NewestEventTime *time.Time `json:"newestEventTime,omitempty"`
	Diagnostics
}

// SettlementLag measures the checkpoint's lag behind now. The checkpoint
// is mandatory; the recent-transaction listing only adds the unsettled
// activity count.
func (a *Analyzer) SettlementLag(ctx context.Context) (lag *SettlementLag, err error) {
	logger, start := a.begin("settlementLag")
	key := "settlementLag"

	if cached, hit := lookupCached[*SettlementLag](ctx, a, cache.CategoryNetworkStats, key); hit {
		logger.Debug().Msg("serving cached report")
		return cached, nil
	}

	lag = &SettlementLag{
		Status:      LagStatusUnknown,
		Diagnostics: newDiagnostics(),
	}
	defer a.finish("settlementLag", logger, start, &lag.Diagnostics)
	defer guard(&lag.Diagnostics)

	outcomes := source.RunCalls(ctx, []source.Call{
		{Name: "checkpoint", Source: a.indexer, Method: "pastPerfectTime", Required: true},
		{Name: "recent transactions", Source: a.indexer, Method: "transactions", Params: map[string]any{"limit": healthSampleSize}},
	})
	a.recordOutcomes(&lag.Diagnostics, outcomes)

	var records []TxRecord
	for _, o := range outcomes {
		if !o.OK {
			continue
		}
		switch o.Call.Name {
		case "checkpoint":
			lag.PastPerfectTime = decodeCheckpoint(o.Value)
			if lag.PastPerfectTime == nil {
				lag.Errors = append(lag.Errors, "checkpoint: source returned no data")
			}
		case "recent transactions":
			decodePayload(o.Value, &records)
		}
	}

	now := a.now()
	if lag.PastPerfectTime != nil {
		seconds := now.Sub(*lag.PastPerfectTime).Seconds()
		if seconds < 0 {
			seconds = 0
		}
		lag.LagSeconds = &seconds
		lag.Status = classifyLag(now.Sub(*lag.PastPerfectTime))
	}

	if len(records) > 0 {
		newest := time.Time{}
		unsettled := 0
		for _, tx := range records {
			ts := tx.Time()
			if ts.IsZero() {
				continue
			}
			if ts.After(newest) {
				newest = ts
			}
			if lag.PastPerfectTime != nil && ts.After(*lag.PastPerfectTime) {
				unsettled++
			}
		}
		if !newest.IsZero() {
			lag.NewestEventTime = &newest
		}
		if lag.PastPerfectTime != nil {
			lag.UnsettledCount = &unsettled
		}
	}

	a.storeCached(ctx, cache.CategoryNetworkStats, key, lag)
	return lag, nil
}

func classifyLag(lag time.Duration) string {
	switch {
	case lag <= lagCurrentWithin:
		return LagStatusCurrent
	case lag <= lagElevatedWithin:
		return LagStatusElevated
	default:
		return LagStatusStalled
	}
}
