package analysis

import (
	"context"
	"fmt"

	"github.com/aaronbassett/midnight-summit-hackathon-2025-sub001/internal/cache"
	"github.com/aaronbassett/midnight-summit-hackathon-2025-sub001/internal/finality"
	"github.com/aaronbassett/midnight-summit-hackathon-2025-sub001/internal/source"
)

// AttestationPerformance summarizes how well the committee is attesting
// recent transactions: a histogram of attestation counts per transaction
// and the share already meeting quorum.
type AttestationPerformance struct {
	SampleSize           int         `json:"sampleSize"`
	Histogram            map[int]int `json:"histogram,omitempty"` // attestation count -> transactions
	AverageAttestations  float64     `json:"averageAttestations"`
	RequiredAttestations int         `json:"requiredAttestations"`
	MeetingQuorum        int         `json:"meetingQuorum"`
	MeetingQuorumPercent float64     `json:"meetingQuorumPercent"`
	Diagnostics
}

// AttestationPerformance builds the attestation distribution over the most
// recent limit transactions. The receipt listing is mandatory; committee
// data only sharpens the quorum line.
func (a *Analyzer) AttestationPerformance(ctx context.Context, limit int) (perf *AttestationPerformance, err error) {
	limit = normalizeLimit(limit)

	logger, start := a.begin("attestationPerformance")
	key := fmt.Sprintf("attestationPerformance:%d", limit)

	if cached, hit := lookupCached[*AttestationPerformance](ctx, a, cache.CategoryTransactions, key); hit {
		logger.Debug().Msg("serving cached report")
		return cached, nil
	}

	perf = &AttestationPerformance{
		Diagnostics: newDiagnostics(),
	}
	defer a.finish("attestationPerformance", logger, start, &perf.Diagnostics)
	defer guard(&perf.Diagnostics)

	outcomes := source.RunCalls(ctx, []source.Call{
		{Name: "receipts", Source: a.indexer, Method: "transactions", Params: map[string]any{"limit": limit}, Required: true},
		{Name: "committee", Source: a.indexer, Method: "committee"},
	})
	a.recordOutcomes(&perf.Diagnostics, outcomes)

	var records []TxRecord
	var committee *finality.Committee
	for _, o := range outcomes {
		if !o.OK {
			continue
		}
		switch o.Call.Name {
		case "receipts":
			if !decodePayload(o.Value, &records) {
				perf.Errors = append(perf.Errors, "receipts: source returned no data")
			}
		case "committee":
			committee = decodeCommittee(o.Value)
		}
	}

	required, warnings := finality.ResolveQuorum(committee)
	perf.RequiredAttestations = required
	perf.Warnings = append(perf.Warnings, warnings...)

	if len(records) > 0 {
		perf.SampleSize = len(records)
		perf.Histogram = make(map[int]int)
		total := 0
		for _, tx := range records {
			perf.Histogram[tx.Attestations]++
			total += tx.Attestations
			if tx.Attestations >= required {
				perf.MeetingQuorum++
			}
		}
		perf.AverageAttestations = float64(total) / float64(len(records))
		perf.MeetingQuorumPercent = float64(perf.MeetingQuorum) / float64(len(records)) * 100
	}

	a.storeCached(ctx, cache.CategoryTransactions, key, perf)
	return perf, nil
}
