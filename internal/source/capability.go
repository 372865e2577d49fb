// Package source defines the contract to upstream data sources and the
// fan-out aggregator that queries several of them concurrently without
// letting one failure abort the rest.
package source

import (
	"context"
	"encoding/json"
	"fmt"
)

// Capability is an already-authenticated request channel to one upstream
// source (node RPC, indexer). Implementations own transport concerns:
// timeouts, auth, retries. The aggregator never retries.
type Capability interface {
	// Name identifies the source in logs and failure messages.
	Name() string
	// Invoke performs one named request and returns the raw response
	// payload. A nil error with a null/empty payload means the source
	// answered but had no data.
	Invoke(ctx context.Context, method string, params any) (json.RawMessage, error)
}

// Call declares one source invocation inside a fan-out batch. Required
// controls how a failure is classified by Partition: mandatory data missing
// is an error, enrichment data missing is only a warning.
type Call struct {
	// Name labels the call in error and warning strings, e.g. "balance".
	Name     string
	Source   Capability
	Method   string
	Params   any
	Required bool
}

// Outcome is the settled result of one Call. Exactly one of Value or Err is
// meaningful: OK true carries the raw payload, OK false carries the failure.
type Outcome struct {
	Call  Call
	OK    bool
	Value json.RawMessage
	Err   error
}

// FailureReason renders the outcome's failure as a human-readable string
// suitable for an errors/warnings list.
func (o Outcome) FailureReason() string {
	if o.OK || o.Err == nil {
		return ""
	}
	return fmt.Sprintf("%s: %v", o.Call.Name, o.Err)
}

// Partition splits the failed outcomes of one batch into error strings (for
// required calls) and warning strings (for optional calls). Each failed call
// contributes exactly one entry to exactly one list.
func Partition(outcomes []Outcome) (errs, warnings []string) {
	for _, o := range outcomes {
		if o.OK {
			continue
		}
		if o.Call.Required {
			errs = append(errs, o.FailureReason())
		} else {
			warnings = append(warnings, o.FailureReason())
		}
	}
	return errs, warnings
}
