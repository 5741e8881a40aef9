package payment

import (
	"github.com/shopspring/decimal"

	"github.com/bottlemart/backend/internal/platform/gateway"
	"github.com/bottlemart/backend/pkg/types"
)

// MapGatewayStatus translates a raw gateway intent status into the internal
// payment status. Unknown statuses map to pending so that a gateway adding
// a new intermediate state cannot push a payment backwards or forwards.
func MapGatewayStatus(raw string) types.PaymentStatus {
	switch raw {
	case gateway.IntentStatusSucceeded:
		return types.PaymentStatusCompleted
	case gateway.IntentStatusProcessing:
		return types.PaymentStatusProcessing
	case gateway.IntentStatusRequiresAction:
		return types.PaymentStatusRequiresAction
	case gateway.IntentStatusCanceled:
		return types.PaymentStatusCanceled
	case gateway.IntentStatusFailed:
		return types.PaymentStatusFailed
	default:
		return types.PaymentStatusPending
	}
}

// amountTolerance absorbs minor-unit rounding between client and server.
var amountTolerance = decimal.RequireFromString("0.01")

func amountMatches(got, want float64) bool {
	diff := decimal.NewFromFloat(got).Sub(decimal.NewFromFloat(want)).Abs()
	return diff.LessThanOrEqual(amountTolerance)
}
