package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aaronbassett/midnight-summit-hackathon-2025-sub001/internal/cache"
	"github.com/aaronbassett/midnight-summit-hackathon-2025-sub001/internal/finality"
	"github.com/aaronbassett/midnight-summit-hackathon-2025-sub001/internal/source"
)

// FinalityReport is the point-in-time finality verdict for one
// transaction. The receipt and committee are mandatory; a missing
// committee still yields an assessment on the conservative fallback
// quorum, so the caller always gets a best-effort verdict alongside the
// error.
type FinalityReport struct {
	TxHash          string               `json:"txHash"`
	Transaction     *TxRecord            `json:"transaction,omitempty"`
	Committee       *finality.Committee  `json:"committee,omitempty"`
	Assessment      *finality.Assessment `json:"assessment,omitempty"`
	PastPerfectTime *time.Time           `json:"pastPerfectTime,omitempty"`
	Diagnostics
}

// VerifyFinality assesses how settled the transaction with txHash is,
// combining its attestation count, the committee quorum, and the network
// checkpoint when one is available.
func (a *Analyzer) VerifyFinality(ctx context.Context, txHash string) (report *FinalityReport, err error) {
	txHash = strings.TrimSpace(txHash)
	if txHash == "" {
		return nil, fmt.Errorf("transaction hash is required")
	}

	logger, start := a.begin("verifyFinality")
	key := "verifyFinality:" + txHash

	if cached, hit := lookupCached[*FinalityReport](ctx, a, cache.CategoryTransactions, key); hit {
		logger.Debug().Str("tx", txHash).Msg("serving cached report")
		return cached, nil
	}

	report = &FinalityReport{
		TxHash:      txHash,
		Diagnostics: newDiagnostics(),
	}
	defer a.finish("verifyFinality", logger, start, &report.Diagnostics)
	defer guard(&report.Diagnostics)

	outcomes := source.RunCalls(ctx, []source.Call{
		{Name: "receipt", Source: a.indexer, Method: "transaction", Params: map[string]any{"hash": txHash}, Required: true},
		{Name: "committee", Source: a.indexer, Method: "committee", Required: true},
		{Name: "checkpoint", Source: a.indexer, Method: "pastPerfectTime"},
	})
	a.recordOutcomes(&report.Diagnostics, outcomes)

	for _, o := range outcomes {
		if !o.OK {
			continue
		}
		switch o.Call.Name {
		case "receipt":
			var tx TxRecord
			if decodePayload(o.Value, &tx) {
				report.Transaction = &tx
			} else {
				report.Errors = append(report.Errors, "receipt: source returned no data")
			}
		case "committee":
			report.Committee = decodeCommittee(o.Value)
			if report.Committee == nil {
				report.Warnings = append(report.Warnings, "committee: source returned no data")
			}
		case "checkpoint":
			report.PastPerfectTime = decodeCheckpoint(o.Value)
		}
	}

	// No receipt, nothing to assess.
	if report.Transaction == nil {
		a.storeCached(ctx, cache.CategoryTransactions, key, report)
		return report, nil
	}

	assessment, warnings := finality.Assess(finality.Input{
		AttestationCount: report.Transaction.Attestations,
		Committee:        report.Committee,
		UnitTime:         report.Transaction.Time(),
		Checkpoint:       report.PastPerfectTime,
	})
	report.Assessment = &assessment
	report.Warnings = append(report.Warnings, warnings...)

	a.storeCached(ctx, cache.CategoryTransactions, key, report)
	return report, nil
}
