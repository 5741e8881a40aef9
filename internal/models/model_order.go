package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/bottlemart/backend/pkg/types"
)

type OrderItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name,omitempty"`
	Size      string  `json:"size,omitempty"`
	Qty       int     `json:"qty"`
	Price     float64 `json:"price"`
}

type ShippingAddress struct {
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
}

// PaymentResult is the last-known gateway state, denormalized onto the order
// for display only.
type PaymentResult struct {
	ID           string `json:"id,omitempty"`
	Status       string `json:"status,omitempty"`
	UpdateTime   string `json:"update_time,omitempty"`
	EmailAddress string `json:"email_address,omitempty"`
}

// PaymentTimestamps records lifecycle instants. Fields are appended once and
// never retracted.
type PaymentTimestamps struct {
	Initiated *time.Time `json:"initiated,omitempty"`
	Completed *time.Time `json:"completed,omitempty"`
	Failed    *time.Time `json:"failed,omitempty"`
	Canceled  *time.Time `json:"canceled,omitempty"`
}

// Order owns fulfillment state plus a denormalized projection of the current
// payment attempt. ItemsPrice and TotalPrice are authoritative for the charge
// amount and immutable after creation.
type Order struct {
	ID     string `gorm:"column:id;primary_key;type:uuid;index:idx_order_user_id_id,priority:2,sort:desc" json:"id"`
	UserID string `gorm:"column:user_id;type:varchar(64);not null;index:idx_order_user_id_id,priority:1" json:"user_id"`

	Items           datatypes.JSONType[[]OrderItem]      `gorm:"column:items;type:jsonb;default:'[]'" json:"items"`
	ShippingAddress datatypes.JSONType[*ShippingAddress] `gorm:"column:shipping_address;type:jsonb;default:'{}'" json:"shipping_address"`

	ItemsPrice    float64 `gorm:"column:items_price;type:numeric(12,2);not null" json:"items_price"`
	ShippingPrice float64 `gorm:"column:shipping_price;type:numeric(12,2);not null;default:0" json:"shipping_price"`
	TotalPrice    float64 `gorm:"column:total_price;type:numeric(12,2);not null" json:"total_price"`
	Currency      string  `gorm:"column:currency;type:varchar(8);not null;default:'inr'" json:"currency"`

	PaymentMethod types.PaymentMethod `gorm:"column:payment_method;type:varchar(16);not null;default:'card'" json:"payment_method"`
	// PaymentStatus mirrors the current payment attempt's status.
	PaymentStatus     types.PaymentStatus                    `gorm:"column:payment_status;type:varchar(32);not null;default:'pending'" json:"payment_status"`
	PaymentResult     datatypes.JSONType[*PaymentResult]     `gorm:"column:payment_result;type:jsonb;default:'{}'" json:"payment_result"`
	PaymentTimestamps datatypes.JSONType[*PaymentTimestamps] `gorm:"column:payment_timestamps;type:jsonb;default:'{}'" json:"payment_timestamps"`

	IsPaid bool       `gorm:"column:is_paid;not null;default:false" json:"is_paid"`
	PaidAt *time.Time `gorm:"column:paid_at;default:null" json:"paid_at"`

	Status      types.OrderStatus `gorm:"column:status;type:varchar(32);not null;default:'pending'" json:"status"`
	IsDelivered bool              `gorm:"column:is_delivered;not null;default:false" json:"is_delivered"`
	DeliveredAt *time.Time        `gorm:"column:delivered_at;default:null" json:"delivered_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Order) TableName() string { return "order" }

// StampTimestamp appends a lifecycle instant if it is not already set.
func (o *Order) StampTimestamp(status types.PaymentStatus, at time.Time) {
	ts := o.PaymentTimestamps.Data()
	if ts == nil {
		ts = &PaymentTimestamps{}
	}
	switch status {
	case types.PaymentStatusPending:
		if ts.Initiated == nil {
			ts.Initiated = &at
		}
	case types.PaymentStatusCompleted:
		if ts.Completed == nil {
			ts.Completed = &at
		}
	case types.PaymentStatusFailed:
		if ts.Failed == nil {
			ts.Failed = &at
		}
	case types.PaymentStatusCanceled:
		if ts.Canceled == nil {
			ts.Canceled = &at
		}
	}
	o.PaymentTimestamps = datatypes.NewJSONType(ts)
}
