package reconcile

import (
	"fmt"
	"time"

	"github.com/bottlemart/backend/internal/models"
	"github.com/bottlemart/backend/pkg/types"
)

// Reason classifies an order/payment inconsistency.
type Reason string

const (
	ReasonInvalidMethod      Reason = "invalid_method"
	ReasonMissingPayment     Reason = "missing_payment"
	ReasonPaymentFailed      Reason = "payment_failed"
	ReasonPaymentCanceled    Reason = "payment_canceled"
	ReasonStatusMismatch     Reason = "status_mismatch"
	ReasonPaidWithoutPayment Reason = "paid_without_payment"
	ReasonExpiredPending     Reason = "expired_pending"
	ReasonMethodMismatch     Reason = "method_mismatch"
)

// stalePendingAge is how long a pending payment may sit before the pair is
// flagged for manual review.
const stalePendingAge = 24 * time.Hour

type Result struct {
	Valid   bool   `json:"valid"`
	Reason  Reason `json:"reason,omitempty"`
	Details string `json:"details,omitempty"`
}

func invalid(reason Reason, format string, args ...any) Result {
	return Result{Reason: reason, Details: fmt.Sprintf(format, args...)}
}

// Validate compares an order against its current payment attempt (nil when
// none exists) and classifies the pair. It is read-only: inconsistencies are
// reported, never auto-corrected; correction is an explicit admin action.
//
// Checks run in order and short-circuit at the first failure.
func Validate(order *models.Order, p *models.Payment, now time.Time) Result {
	if !order.PaymentMethod.Valid() {
		return invalid(ReasonInvalidMethod, "unknown payment method %q", order.PaymentMethod)
	}

	if order.PaymentMethod == types.PaymentMethodCard && p == nil {
		return invalid(ReasonMissingPayment, "card order has no payment record")
	}

	if p != nil {
		switch p.Status {
		case types.PaymentStatusFailed:
			return invalid(ReasonPaymentFailed, "payment %s failed", p.ID)
		case types.PaymentStatusCanceled:
			return invalid(ReasonPaymentCanceled, "payment %s canceled", p.ID)
		}

		if order.PaymentStatus != p.Status && !allowedTransitional(order.PaymentStatus, p.Status) {
			return invalid(ReasonStatusMismatch, "order says %q, payment says %q", order.PaymentStatus, p.Status)
		}
	}

	if order.IsPaid && !p.Completed() {
		return invalid(ReasonPaidWithoutPayment, "order marked paid without a completed payment")
	}

	if p != nil &&
		order.PaymentStatus == types.PaymentStatusPending &&
		p.Status == types.PaymentStatusPending &&
		now.Sub(order.CreatedAt) > stalePendingAge {
		return invalid(ReasonExpiredPending, "payment pending since %s", order.CreatedAt.Format(time.RFC3339))
	}

	if p != nil {
		switch {
		case p.Method == types.PaymentMethodCard && p.Gateway == types.PaymentGatewayCash:
			return invalid(ReasonMethodMismatch, "card payment routed through cash gateway")
		case p.Method == types.PaymentMethodCash && p.Gateway != types.PaymentGatewayCash:
			return invalid(ReasonMethodMismatch, "cash payment routed through gateway %q", p.Gateway)
		}
	}

	return Result{Valid: true}
}

// allowedTransitional lists the order/payment status divergences that are
// expected while a write is in flight: the payment can be ahead of the
// order projection, never behind.
func allowedTransitional(orderStatus, paymentStatus types.PaymentStatus) bool {
	if orderStatus != types.PaymentStatusPending {
		return false
	}
	return paymentStatus == types.PaymentStatusCompleted || paymentStatus == types.PaymentStatusProcessing
}
