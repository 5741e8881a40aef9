package models

import (
	"time"

	"gorm.io/datatypes"
)

type PaymentEventLogStatus string

const (
	PaymentEventLogStatusReceived     PaymentEventLogStatus = "received"
	PaymentEventLogStatusHandled      PaymentEventLogStatus = "handled"
	PaymentEventLogStatusHandleFailed PaymentEventLogStatus = "handle_failed"
	// PaymentEventLogStatusDiscarded marks a verified event dropped as a
	// duplicate or for an order it cannot resolve.
	PaymentEventLogStatusDiscarded PaymentEventLogStatus = "discarded"
)

// PaymentEventLog is the audit trail of gateway events. The unique
// (gateway, event_id) index doubles as the webhook dedupe key.
type PaymentEventLog struct {
	ID            string          `gorm:"column:id;type:uuid;primary_key" json:"id"`
	Gateway       string          `gorm:"column:gateway;type:varchar(32);not null;uniqueIndex:unique_event_gateway_event_id,priority:1" json:"gateway"`
	EventID       string          `gorm:"column:event_id;type:varchar(128);not null;uniqueIndex:unique_event_gateway_event_id,priority:2" json:"event_id"`
	EventType     string          `gorm:"column:event_type;type:varchar(64);not null" json:"event_type"`
	TransactionID string          `gorm:"column:transaction_id;type:varchar(128)" json:"transaction_id"`
	TraceID       string          `gorm:"column:trace_id;type:varchar(128)" json:"trace_id"`
	EventTime     time.Time       `gorm:"column:event_time" json:"event_time"`
	Data          datatypes.JSON  `gorm:"column:data;type:jsonb" json:"data"`
	Result        *datatypes.JSON `gorm:"column:result;type:jsonb" json:"result"`

	Status    PaymentEventLogStatus `gorm:"column:status;type:varchar(32);not null" json:"status"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
}

func (PaymentEventLog) TableName() string { return "payment_event_log" }
