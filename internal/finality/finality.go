// Package finality estimates, from the client side, how settled a data unit
// is on a leaderless network: it resolves the committee's supermajority
// threshold, scores an attestation count against it, and honors the
// network's past-perfect-time checkpoint when one is available. Estimation
// is best-effort: missing committee data degrades confidence reporting and
// adds a warning, never an error.
package finality

import "time"

// Confidence is the four-level classification of how final a data unit is.
type Confidence string

const (
	ConfidenceNone   Confidence = "NONE"
	ConfidenceLow    Confidence = "LOW"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceHigh   Confidence = "HIGH"
)

// FallbackQuorum is the conservative attestation requirement assumed when
// no committee data is available at all, sized for a typical 5-member
// committee.
const FallbackQuorum = 3

// Committee describes the validator committee as reported by a source.
// QuorumSize zero means the source did not state one.
type Committee struct {
	MemberCount int `json:"memberCount"`
	QuorumSize  int `json:"quorumSize"`
}

// ResolveQuorum determines the attestation count required for finality.
// Preference order: the source's explicit quorum size, then ceil(2n/3) over
// the member count, then FallbackQuorum with a warning. A zero-member
// committee also falls back, with a warning, rather than reporting a
// zero quorum that every count would trivially satisfy.
func ResolveQuorum(committee *Committee) (required int, warnings []string) {
	if committee != nil && committee.QuorumSize > 0 {
		return committee.QuorumSize, nil
	}
	if committee != nil && committee.MemberCount > 0 {
		// ceil(memberCount * 2 / 3) in integer arithmetic.
		return (committee.MemberCount*2 + 2) / 3, nil
	}
	warnings = append(warnings,
		"committee data unavailable, assuming conservative quorum of 3")
	return FallbackQuorum, warnings
}

// Assessment is the finality verdict for one data unit.
type Assessment struct {
	AttestationCount     int        `json:"attestationCount"`
	RequiredAttestations int        `json:"requiredAttestations"`
	PercentageOfQuorum   float64    `json:"percentageOfQuorum"`
	Confidence           Confidence `json:"confidence"`
	Finalized            bool       `json:"finalized"`
}

// Input carries everything Assess needs. UnitTime and Checkpoint are
// optional; the checkpoint override applies only when both are known.
type Input struct {
	AttestationCount int
	Committee        *Committee
	// UnitTime is the data unit's own timestamp, zero if unknown.
	UnitTime time.Time
	// Checkpoint is the network's past-perfect-time: everything at or
	// before it is guaranteed final. Nil if unavailable.
	Checkpoint *time.Time
}

// Assess scores an attestation count against the resolved quorum and
// returns the verdict plus any warnings raised while resolving committee
// data. The checkpoint dominates attestation counting, but only when the
// checkpoint itself is at or after the unit's timestamp; a checkpoint older
// than the unit says nothing about it and is ignored.
func Assess(in Input) (Assessment, []string) {
	required, warnings := ResolveQuorum(in.Committee)

	a := Assessment{
		AttestationCount:     in.AttestationCount,
		RequiredAttestations: required,
	}
	if required > 0 {
		a.PercentageOfQuorum = float64(in.AttestationCount) / float64(required) * 100
	}

	switch {
	case required > 0 && in.AttestationCount >= required:
		a.Confidence = ConfidenceHigh
		a.Finalized = true
	case a.PercentageOfQuorum >= 50:
		a.Confidence = ConfidenceMedium
	case a.PercentageOfQuorum > 0:
		a.Confidence = ConfidenceLow
	default:
		a.Confidence = ConfidenceNone
	}

	if in.Checkpoint != nil && !in.UnitTime.IsZero() && !in.UnitTime.After(*in.Checkpoint) {
		a.Confidence = ConfidenceHigh
		a.Finalized = true
	}

	return a, warnings
}
