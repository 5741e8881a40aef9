package models

import "time"

type Product struct {
	ID          string  `gorm:"column:id;primary_key;type:uuid" json:"id"`
	SupplierID  *string `gorm:"column:supplier_id;type:uuid;index:idx_product_supplier_id" json:"supplier_id"`
	Name        string  `gorm:"column:name;type:varchar(255);not null" json:"name"`
	Description string  `gorm:"column:description;type:text" json:"description"`
	Image       string  `gorm:"column:image;type:varchar(512)" json:"image"`
	Price       float64 `gorm:"column:price;type:numeric(12,2);not null" json:"price"`
	Stock       int     `gorm:"column:stock;not null;default:0" json:"stock"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Product) TableName() string { return "product" }
