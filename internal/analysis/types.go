package analysis

import (
	"encoding/json"
	"time"

	"github.com/aaronbassett/midnight-summit-hackathon-2025-sub001/internal/finality"
)

// TxRecord is one transaction as reported by the indexer. Attestations is
// the number of validator acknowledgments observed for it so far.
type TxRecord struct {
	Hash         string `json:"hash"`
	From         string `json:"from,omitempty"`
	To           string `json:"to,omitempty"`
	Amount       string `json:"amount,omitempty"`
	Timestamp    int64  `json:"timestamp"` // unix seconds
	Attestations int    `json:"attestations"`
}

// Time returns the record's timestamp, zero when unreported.
func (t TxRecord) Time() time.Time {
	if t.Timestamp == 0 {
		return time.Time{}
	}
	return time.Unix(t.Timestamp, 0).UTC()
}

// LogRecord is one contract log entry from the indexer.
type LogRecord struct {
	Address   string   `json:"address"`
	Topics    []string `json:"topics,omitempty"`
	Data      string   `json:"data,omitempty"`
	TxHash    string   `json:"txHash,omitempty"`
	Timestamp int64    `json:"timestamp,omitempty"`
}

// checkpointPayload carries the network's past-perfect-time.
type checkpointPayload struct {
	Timestamp int64 `json:"timestamp"`
}

// decodeCheckpoint extracts the past-perfect-time from a raw payload,
// nil when absent or zero.
func decodeCheckpoint(raw json.RawMessage) *time.Time {
	var p checkpointPayload
	if !decodePayload(raw, &p) || p.Timestamp == 0 {
		return nil
	}
	ts := time.Unix(p.Timestamp, 0).UTC()
	return &ts
}

// decodeCommittee extracts committee data from a raw payload, nil when the
// source answered without one.
func decodeCommittee(raw json.RawMessage) *finality.Committee {
	var c finality.Committee
	if !decodePayload(raw, &c) {
		return nil
	}
	return &c
}

// timestampsOf collects the non-zero record times in chronological order.
// The indexer reports newest-first; this reverses into oldest-first for the
// interval statistics.
func timestampsOf(records []TxRecord) []time.Time {
	out := make([]time.Time, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		if ts := records[i].Time(); !ts.IsZero() {
			out = append(out, ts)
		}
	}
	return out
}
