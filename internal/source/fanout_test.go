package source

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCapability answers each method from a script; unknown methods fail.
type fakeCapability struct {
	name    string
	results map[string]json.RawMessage
	errs    map[string]error
	delay   time.Duration
	panics  map[string]bool
}

func (f *fakeCapability) Name() string { return f.name }

func (f *fakeCapability) Invoke(ctx context.Context, method string, _ any) (json.RawMessage, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.panics[method] {
		panic("scripted panic")
	}
	if err, ok := f.errs[method]; ok {
		return nil, err
	}
	if v, ok := f.results[method]; ok {
		return v, nil
	}
	return nil, errors.New("unknown method " + method)
}

func TestRunCallsSettleAll(t *testing.T) {
	src := &fakeCapability{
		name:    "rpc",
		delay:   50 * time.Millisecond,
		results: map[string]json.RawMessage{"a": json.RawMessage(`1`), "c": json.RawMessage(`3`)},
		errs:    map[string]error{"b": errors.New("boom")},
	}
	calls := []Call{
		{Name: "a", Source: src, Method: "a", Required: true},
		{Name: "b", Source: src, Method: "b", Required: true},
		{Name: "c", Source: src, Method: "c", Required: false},
		{Name: "d", Source: src, Method: "d", Required: false},
	}

	start := time.Now()
	outcomes := RunCalls(context.Background(), calls)
	elapsed := time.Since(start)

	require.Len(t, outcomes, 4, "one outcome per declared call")
	assert.Less(t, elapsed, 150*time.Millisecond,
		"calls must run concurrently, bounded by the slowest, not the sum")

	assert.True(t, outcomes[0].OK)
	assert.False(t, outcomes[1].OK, "one failure must not abort the batch")
	assert.True(t, outcomes[2].OK)
	assert.False(t, outcomes[3].OK)
}

func TestRunCallsPreservesDeclarationOrder(t *testing.T) {
	fast := &fakeCapability{name: "fast", results: map[string]json.RawMessage{"m": json.RawMessage(`"fast"`)}}
	slow := &fakeCapability{name: "slow", delay: 30 * time.Millisecond, results: map[string]json.RawMessage{"m": json.RawMessage(`"slow"`)}}

	outcomes := RunCalls(context.Background(), []Call{
		{Name: "slow", Source: slow, Method: "m"},
		{Name: "fast", Source: fast, Method: "m"},
	})

	require.Len(t, outcomes, 2)
	assert.Equal(t, "slow", outcomes[0].Call.Name)
	assert.Equal(t, "fast", outcomes[1].Call.Name)
	assert.Equal(t, json.RawMessage(`"slow"`), outcomes[0].Value)
}

func TestRunCallsRecoversPanic(t *testing.T) {
	src := &fakeCapability{name: "rpc", panics: map[string]bool{"boom": true}}

	outcomes := RunCalls(context.Background(), []Call{
		{Name: "boom", Source: src, Method: "boom", Required: true},
	})

	require.Len(t, outcomes, 1)
	assert.False(t, outcomes[0].OK)
	assert.Contains(t, outcomes[0].Err.Error(), "panic")
}

func TestRunCallsEmpty(t *testing.T) {
	outcomes := RunCalls(context.Background(), nil)
	assert.Empty(t, outcomes)
}

func TestPartition(t *testing.T) {
	src := &fakeCapability{name: "rpc"}
	outcomes := []Outcome{
		{Call: Call{Name: "balance", Source: src, Required: true}, OK: false, Err: errors.New("timeout")},
		{Call: Call{Name: "nonce", Source: src, Required: true}, OK: true},
		{Call: Call{Name: "history", Source: src, Required: false}, OK: false, Err: errors.New("503")},
		{Call: Call{Name: "logs", Source: src, Required: false}, OK: true},
	}

	errs, warnings := Partition(outcomes)

	require.Len(t, errs, 1)
	require.Len(t, warnings, 1)
	assert.Contains(t, errs[0], "balance")
	assert.Contains(t, errs[0], "timeout")
	assert.Contains(t, warnings[0], "history")
	// No failure may land in both lists.
	assert.NotContains(t, warnings[0], "balance")
}

func TestFailureReasonOnSuccess(t *testing.T) {
	o := Outcome{OK: true}
	assert.Empty(t, o.FailureReason())
}
