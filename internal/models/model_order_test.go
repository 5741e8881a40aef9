package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bottlemart/backend/pkg/types"
)

func TestOrderStampTimestamp(t *testing.T) {
	o := &Order{}
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	t1 := t0.Add(5 * time.Minute)

	o.StampTimestamp(types.PaymentStatusPending, t0)
	ts := o.PaymentTimestamps.Data()
	require.NotNil(t, ts.Initiated)
	require.Equal(t, t0, *ts.Initiated)
	require.Nil(t, ts.Completed)

	// stamping again must not move the instant
	o.StampTimestamp(types.PaymentStatusPending, t1)
	require.Equal(t, t0, *o.PaymentTimestamps.Data().Initiated)

	o.StampTimestamp(types.PaymentStatusCompleted, t1)
	ts = o.PaymentTimestamps.Data()
	require.Equal(t, t0, *ts.Initiated)
	require.Equal(t, t1, *ts.Completed)
}

func TestOrderStampTimestampKeepsEarlierStamps(t *testing.T) {
	o := &Order{}
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	o.StampTimestamp(types.PaymentStatusFailed, t0)
	o.StampTimestamp(types.PaymentStatusCompleted, t0.Add(time.Minute))

	ts := o.PaymentTimestamps.Data()
	require.NotNil(t, ts.Failed)
	require.NotNil(t, ts.Completed)
	require.Nil(t, ts.Initiated)
	require.Nil(t, ts.Canceled)
}

func TestOrderStampTimestampIgnoresNonLifecycleStatus(t *testing.T) {
	o := &Order{}
	o.StampTimestamp(types.PaymentStatusProcessing, time.Now())
	ts := o.PaymentTimestamps.Data()
	require.Nil(t, ts.Initiated)
	require.Nil(t, ts.Completed)
	require.Nil(t, ts.Failed)
	require.Nil(t, ts.Canceled)
}
