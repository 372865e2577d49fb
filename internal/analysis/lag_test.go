package analysis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettlementLagCurrent(t *testing.T) {
	a, _, indexer := newTestAnalyzer(t)
	indexer.script("pastPerfectTime", checkpointPayload{Timestamp: testNow.Add(-30 * time.Second).Unix()})
	indexer.script("transactions", []TxRecord{
		{Hash: "0x1", Timestamp: testNow.Add(-10 * time.Second).Unix()},
		{Hash: "0x2", Timestamp: testNow.Add(-40 * time.Second).Unix()},
	})

	l, err := a.SettlementLag(context.Background())
	require.NoError(t, err)

	assert.Equal(t, LagStatusCurrent, l.Status)
	require.NotNil(t, l.LagSeconds)
	assert.InDelta(t, 30.0, *l.LagSeconds, 1e-9)
	require.NotNil(t, l.UnsettledCount)
	assert.Equal(t, 1, *l.UnsettledCount, "only activity after the checkpoint is unsettled")
	require.NotNil(t, l.NewestEventTime)
	assert.Equal(t, testNow.Add(-10*time.Second), *l.NewestEventTime)
}

func TestSettlementLagClassification(t *testing.T) {
	tests := []struct {
		age    time.Duration
		status string
	}{
		{30 * time.Second, LagStatusCurrent},
		{time.Minute, LagStatusCurrent},
		{5 * time.Minute, LagStatusElevated},
		{time.Hour, LagStatusStalled},
	}
	for _, tc := range tests {
		a, _, indexer := newTestAnalyzer(t)
		indexer.script("pastPerfectTime", checkpointPayload{Timestamp: testNow.Add(-tc.age).Unix()})
		indexer.script("transactions", []TxRecord{})

		l, err := a.SettlementLag(context.Background())
		require.NoError(t, err)
		assert.Equal(t, tc.status, l.Status, "age=%s", tc.age)
	}
}

func TestSettlementLagCheckpointMandatory(t *testing.T) {
	a, _, indexer := newTestAnalyzer(t)
	indexer.fail("pastPerfectTime", errors.New("down"))
	indexer.script("transactions", []TxRecord{{Hash: "0x1", Timestamp: testNow.Unix()}})

	l, err := a.SettlementLag(context.Background())
	require.NoError(t, err)

	assert.Equal(t, LagStatusUnknown, l.Status)
	require.NotEmpty(t, l.Errors)
	assert.Nil(t, l.LagSeconds)
	assert.Nil(t, l.UnsettledCount, "unsettled count needs the checkpoint")
	// The newest event time still merges from the surviving listing.
	assert.NotNil(t, l.NewestEventTime)
}

func TestSettlementLagFutureCheckpointClampsToZero(t *testing.T) {
	a, _, indexer := newTestAnalyzer(t)
	indexer.script("pastPerfectTime", checkpointPayload{Timestamp: testNow.Add(time.Minute).Unix()})
	indexer.script("transactions", []TxRecord{})

	l, err := a.SettlementLag(context.Background())
	require.NoError(t, err)

	require.NotNil(t, l.LagSeconds)
	assert.Zero(t, *l.LagSeconds, "clock skew must not produce a negative lag")
	assert.Equal(t, LagStatusCurrent, l.Status)
}
