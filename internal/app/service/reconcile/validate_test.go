package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bottlemart/backend/internal/models"
	"github.com/bottlemart/backend/pkg/types"
)

func validPair(now time.Time) (*models.Order, *models.Payment) {
	o := &models.Order{
		ID:            "o1",
		UserID:        "u1",
		TotalPrice:    1000,
		PaymentMethod: types.PaymentMethodCard,
		PaymentStatus: types.PaymentStatusCompleted,
		IsPaid:        true,
		Status:        types.OrderStatusPaid,
		CreatedAt:     now.Add(-time.Hour),
	}
	p := &models.Payment{
		ID:      "p1",
		OrderID: "o1",
		UserID:  "u1",
		Amount:  1000,
		Method:  types.PaymentMethodCard,
		Gateway: types.PaymentGatewayStripe,
		Status:  types.PaymentStatusCompleted,
	}
	return o, p
}

func TestValidate_ValidPair(t *testing.T) {
	now := time.Now()
	o, p := validPair(now)
	res := Validate(o, p, now)
	require.True(t, res.Valid)
	require.Empty(t, res.Reason)
}

func TestValidate_InvalidMethod(t *testing.T) {
	now := time.Now()
	o, p := validPair(now)
	o.PaymentMethod = "cheque"
	res := Validate(o, p, now)
	require.False(t, res.Valid)
	require.Equal(t, ReasonInvalidMethod, res.Reason)
}

func TestValidate_CardOrderWithoutPayment(t *testing.T) {
	now := time.Now()
	o, _ := validPair(now)
	o.IsPaid = false
	o.PaymentStatus = types.PaymentStatusPending
	res := Validate(o, nil, now)
	require.False(t, res.Valid)
	require.Equal(t, ReasonMissingPayment, res.Reason)
}

func TestValidate_TerminalPaymentStatuses(t *testing.T) {
	now := time.Now()

	o, p := validPair(now)
	o.IsPaid = false
	o.PaymentStatus = types.PaymentStatusFailed
	p.Status = types.PaymentStatusFailed
	res := Validate(o, p, now)
	require.False(t, res.Valid)
	require.Equal(t, ReasonPaymentFailed, res.Reason)

	p.Status = types.PaymentStatusCanceled
	o.PaymentStatus = types.PaymentStatusCanceled
	res = Validate(o, p, now)
	require.False(t, res.Valid)
	require.Equal(t, ReasonPaymentCanceled, res.Reason)
}

func TestValidate_StatusMismatch(t *testing.T) {
	now := time.Now()
	o, p := validPair(now)
	o.PaymentStatus = types.PaymentStatusProcessing
	p.Status = types.PaymentStatusCompleted
	res := Validate(o, p, now)
	require.False(t, res.Valid)
	require.Equal(t, ReasonStatusMismatch, res.Reason)
}

func TestValidate_AllowedTransitionalPairs(t *testing.T) {
	now := time.Now()

	// Payment reached completed before the order projection caught up.
	o, p := validPair(now)
	o.PaymentStatus = types.PaymentStatusPending
	o.IsPaid = true
	res := Validate(o, p, now)
	require.True(t, res.Valid)

	// Payment is processing while the order still says pending.
	o, p = validPair(now)
	o.PaymentStatus = types.PaymentStatusPending
	o.IsPaid = false
	p.Status = types.PaymentStatusProcessing
	res = Validate(o, p, now)
	require.True(t, res.Valid)
}

func TestValidate_PaidWithoutPayment(t *testing.T) {
	now := time.Now()
	o, _ := validPair(now)
	o.PaymentMethod = types.PaymentMethodCash
	o.PaymentStatus = types.PaymentStatusCompleted
	o.IsPaid = true
	res := Validate(o, nil, now)
	require.False(t, res.Valid)
	require.Equal(t, ReasonPaidWithoutPayment, res.Reason)
}

func TestValidate_ExpiredPending(t *testing.T) {
	now := time.Now()
	o, p := validPair(now)
	o.CreatedAt = now.Add(-25 * time.Hour)
	o.IsPaid = false
	o.PaymentStatus = types.PaymentStatusPending
	p.Status = types.PaymentStatusPending
	res := Validate(o, p, now)
	require.False(t, res.Valid)
	require.Equal(t, ReasonExpiredPending, res.Reason)

	// Just inside the window: still fine.
	o.CreatedAt = now.Add(-23 * time.Hour)
	res = Validate(o, p, now)
	require.True(t, res.Valid)
}

func TestValidate_MethodMismatch(t *testing.T) {
	now := time.Now()

	o, p := validPair(now)
	p.Gateway = types.PaymentGatewayCash
	res := Validate(o, p, now)
	require.False(t, res.Valid)
	require.Equal(t, ReasonMethodMismatch, res.Reason)

	o, p = validPair(now)
	o.PaymentMethod = types.PaymentMethodCash
	p.Method = types.PaymentMethodCash
	p.Gateway = types.PaymentGatewayStripe
	res = Validate(o, p, now)
	require.False(t, res.Valid)
	require.Equal(t, ReasonMethodMismatch, res.Reason)
}
