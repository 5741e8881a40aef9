package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/bottlemart/backend/pkg/types"
)

// CardDetails holds the displayable subset of a card. The full number and
// CVV never reach this service.
type CardDetails struct {
	Last4  string `json:"last4,omitempty"`
	Brand  string `json:"brand,omitempty"`
	Expiry string `json:"expiry,omitempty"`
}

// GatewayResponse is an opaque diagnostic snapshot from the gateway. It is
// appended for audit and display; control decisions use Payment.Status only.
type GatewayResponse struct {
	ID             string `json:"id,omitempty"`
	Status         string `json:"status,omitempty"`
	UpdateTime     string `json:"update_time,omitempty"`
	EmailAddress   string `json:"email_address,omitempty"`
	FailureCode    string `json:"failure_code,omitempty"`
	FailureMessage string `json:"failure_message,omitempty"`
}

// Payment is one payment attempt for an order. Attempts are never deleted;
// a retry after a terminal failure creates a new row.
type Payment struct {
	ID      string `gorm:"column:id;primary_key;type:uuid" json:"id"`
	OrderID string `gorm:"column:order_id;type:uuid;not null;index:idx_payment_order_id" json:"order_id"`
	UserID  string `gorm:"column:user_id;type:varchar(64);not null;index:idx_payment_user_id" json:"user_id"`

	Amount   float64             `gorm:"column:amount;type:numeric(12,2);not null" json:"amount"`
	Currency string              `gorm:"column:currency;type:varchar(8);not null" json:"currency"`
	Method   types.PaymentMethod `gorm:"column:method;type:varchar(16);not null" json:"method"`
	// Gateway identifies which backend processed the attempt ("stripe",
	// "cash", "mock").
	Gateway types.PaymentGateway `gorm:"column:gateway;type:varchar(32);not null" json:"gateway"`
	// TransactionID is gateway-assigned and globally unique when present.
	// Cash payments receive a locally generated one.
	TransactionID *string             `gorm:"column:transaction_id;type:varchar(128);uniqueIndex:unique_payment_transaction_id" json:"transaction_id"`
	Status        types.PaymentStatus `gorm:"column:status;type:varchar(32);not null;default:'pending'" json:"status"`

	CardDetails     datatypes.JSONType[*CardDetails]     `gorm:"column:card_details;type:jsonb;default:'{}'" json:"card_details"`
	GatewayResponse datatypes.JSONType[*GatewayResponse] `gorm:"column:gateway_response;type:jsonb;default:'{}'" json:"gateway_response"`

	FailureReason *string    `gorm:"column:failure_reason;type:varchar(255)" json:"failure_reason"`
	ProcessedAt   *time.Time `gorm:"column:processed_at;default:null" json:"processed_at"`
	RefundedAt    *time.Time `gorm:"column:refunded_at;default:null" json:"refunded_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Payment) TableName() string { return "payment" }

func (p *Payment) Completed() bool {
	return p != nil && p.Status == types.PaymentStatusCompleted
}
