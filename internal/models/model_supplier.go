package models

import "time"

// Supplier is the supplier profile linked to a user account with the
// supplier role.
type Supplier struct {
	ID          string  `gorm:"column:id;primary_key;type:uuid" json:"id"`
	UserID      string  `gorm:"column:user_id;type:uuid;not null;uniqueIndex:unique_supplier_user_id" json:"user_id"`
	Name        string  `gorm:"column:name;type:varchar(128);not null" json:"name"`
	BottleNo    int     `gorm:"column:bottle_no;not null" json:"bottle_no"`
	ContactNo   string  `gorm:"column:contact_no;type:varchar(32);not null" json:"contact_no"`
	BottlePrice float64 `gorm:"column:bottle_price;type:numeric(12,2);not null;default:1" json:"bottle_price"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Supplier) TableName() string { return "supplier" }
