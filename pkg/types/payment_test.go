package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanTransition_RankGate(t *testing.T) {
	cases := []struct {
		name string
		from PaymentStatus
		to   PaymentStatus
		want bool
	}{
		{"pending to processing", PaymentStatusPending, PaymentStatusProcessing, true},
		{"pending to completed", PaymentStatusPending, PaymentStatusCompleted, true},
		{"processing to completed", PaymentStatusProcessing, PaymentStatusCompleted, true},
		{"completed to refunded", PaymentStatusCompleted, PaymentStatusRefunded, true},
		{"late processing after completed", PaymentStatusCompleted, PaymentStatusProcessing, false},
		{"completed to failed", PaymentStatusCompleted, PaymentStatusFailed, false},
		{"failed to canceled equal rank", PaymentStatusFailed, PaymentStatusCanceled, false},
		{"requires_action to processing equal rank", PaymentStatusRequiresAction, PaymentStatusProcessing, false},
		{"refunded stays refunded", PaymentStatusRefunded, PaymentStatusCompleted, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, CanTransition(tc.from, tc.to))
		})
	}
}

func TestCanTransition_IdempotentReapplication(t *testing.T) {
	for s := range map[PaymentStatus]struct{}{
		PaymentStatusPending: {}, PaymentStatusProcessing: {}, PaymentStatusRequiresAction: {},
		PaymentStatusCompleted: {}, PaymentStatusFailed: {}, PaymentStatusCanceled: {}, PaymentStatusRefunded: {},
	} {
		require.True(t, CanTransition(s, s), "re-applying %s must be allowed", s)
	}
}

func TestPaymentStatus_Terminal(t *testing.T) {
	require.False(t, PaymentStatusPending.Terminal())
	require.False(t, PaymentStatusProcessing.Terminal())
	require.False(t, PaymentStatusRequiresAction.Terminal())
	require.True(t, PaymentStatusCompleted.Terminal())
	require.True(t, PaymentStatusFailed.Terminal())
	require.True(t, PaymentStatusCanceled.Terminal())
	require.True(t, PaymentStatusRefunded.Terminal())
}

func TestPaymentStatus_Valid(t *testing.T) {
	require.True(t, PaymentStatusRequiresAction.Valid())
	require.False(t, PaymentStatus("settled").Valid())
}

func TestPrincipal_CanAccess(t *testing.T) {
	owner := Principal{UserID: "u1", Role: UserRoleBuyer}
	admin := Principal{UserID: "a1", Role: UserRoleAdmin}
	other := Principal{UserID: "u2", Role: UserRoleBuyer}
	anon := Principal{}

	require.True(t, owner.CanAccess("u1"))
	require.True(t, admin.CanAccess("u1"))
	require.False(t, other.CanAccess("u1"))
	require.False(t, anon.CanAccess(""))
}
