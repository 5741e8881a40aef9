package payment

import "errors"

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrPaymentNotFound = errors.New("payment not found")
	ErrForbidden       = errors.New("not authorized for this order")
	// ErrAmountMismatch means the requested amount diverges from the
	// order's total beyond the minor-unit tolerance.
	ErrAmountMismatch = errors.New("amount does not match order total")
	// ErrSessionExpired means the payment intent is older than the
	// freshness window and must be recreated.
	ErrSessionExpired = errors.New("payment session expired")
	// ErrAlreadyProcessed means a completed payment already exists for this
	// transaction id; the call is a safe replay.
	ErrAlreadyProcessed = errors.New("payment already processed")
	ErrInvalidStatus    = errors.New("invalid payment status")
	// ErrGateway wraps transport-level gateway failures. State is left at
	// last-known-good; a gateway-reported decline is not an ErrGateway.
	ErrGateway = errors.New("payment gateway error")
)

// IsOrderNotFound reports whether err means the referenced order does not
// exist locally. The webhook pipeline uses it to soft-fail such events.
func IsOrderNotFound(err error) bool { return errors.Is(err, ErrOrderNotFound) }
