package payment

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bottlemart/backend/internal/platform/gateway"
	"github.com/bottlemart/backend/pkg/types"
)

func TestMapGatewayStatus(t *testing.T) {
	cases := map[string]types.PaymentStatus{
		gateway.IntentStatusSucceeded:             types.PaymentStatusCompleted,
		gateway.IntentStatusProcessing:            types.PaymentStatusProcessing,
		gateway.IntentStatusRequiresAction:        types.PaymentStatusRequiresAction,
		gateway.IntentStatusCanceled:              types.PaymentStatusCanceled,
		gateway.IntentStatusFailed:                types.PaymentStatusFailed,
		gateway.IntentStatusRequiresPaymentMethod: types.PaymentStatusPending,
		"something_new":                           types.PaymentStatusPending,
	}
	for raw, want := range cases {
		require.Equal(t, want, MapGatewayStatus(raw), "raw status %q", raw)
	}
}

func TestAmountMatches_Tolerance(t *testing.T) {
	require.True(t, amountMatches(1000, 1000))
	require.True(t, amountMatches(1000.01, 1000))
	require.True(t, amountMatches(999.99, 1000))
	require.False(t, amountMatches(1000.02, 1000))
	require.False(t, amountMatches(999.98, 1000))
	require.False(t, amountMatches(500, 1000))

	// float arithmetic must not produce a false mismatch
	require.True(t, amountMatches(0.1+0.2, 0.3))
}
