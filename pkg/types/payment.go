package types

// PaymentGateway identifies which backend processed a payment.
type PaymentGateway string

const (
	PaymentGatewayStripe PaymentGateway = "stripe"
	PaymentGatewayCash   PaymentGateway = "cash"
	PaymentGatewayMock   PaymentGateway = "mock"
)

type PaymentMethod string

const (
	PaymentMethodCard PaymentMethod = "card"
	PaymentMethodCash PaymentMethod = "cash"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodCard || m == PaymentMethodCash
}

type PaymentStatus string

const (
	PaymentStatusPending        PaymentStatus = "pending"
	PaymentStatusProcessing     PaymentStatus = "processing"
	PaymentStatusRequiresAction PaymentStatus = "requires_action"
	PaymentStatusCompleted      PaymentStatus = "completed"
	PaymentStatusFailed         PaymentStatus = "failed"
	PaymentStatusCanceled       PaymentStatus = "canceled"
	PaymentStatusRefunded       PaymentStatus = "refunded"
)

// statusRank orders payment statuses so that out-of-order gateway events can
// be resolved deterministically: a transition is applied only when the new
// status outranks the stored one. A late "processing" webhook can therefore
// never overwrite an already "completed" payment.
var statusRank = map[PaymentStatus]int{
	PaymentStatusPending:        0,
	PaymentStatusProcessing:     1,
	PaymentStatusRequiresAction: 1,
	PaymentStatusCanceled:       2,
	PaymentStatusFailed:         2,
	PaymentStatusCompleted:      3,
	PaymentStatusRefunded:       4,
}

func (s PaymentStatus) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

func (s PaymentStatus) Rank() int {
	return statusRank[s]
}

// Terminal reports whether no further automatic transition can occur for
// this payment attempt.
func (s PaymentStatus) Terminal() bool {
	switch s {
	case PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusCanceled, PaymentStatusRefunded:
		return true
	}
	return false
}

// CanTransition implements the rank gate: the new status must strictly
// outrank the current one, or equal it (idempotent re-application).
func CanTransition(from, to PaymentStatus) bool {
	if from == to {
		return true
	}
	return to.Rank() > from.Rank()
}

// OrderStatus is the fulfillment status of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// UserRole is the principal role produced by authentication.
type UserRole string

const (
	UserRoleBuyer    UserRole = "buyer"
	UserRoleSupplier UserRole = "supplier"
	UserRoleAdmin    UserRole = "admin"
)

func (r UserRole) Valid() bool {
	return r == UserRoleBuyer || r == UserRoleSupplier || r == UserRoleAdmin
}
