package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type MenuItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	StoreID     uint            `gorm:"not null;index" json:"store_id"`
	Store       Store           `gorm:"foreignKey:StoreID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Name        string          `gorm:"type:varchar(255); not null" json:"name"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2); not null" json:"price"`
	Description string          `gorm:"type:text" json:"description"`
	OutOfStock  bool            `gorm:"not null;default:false" json:"out_of_stock"`
	Hidden      bool            `gorm:"not null;default:false" json:"hidden"`
	CreatedAt   time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"not null" json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`

	CustomizationOptions []CustomizationOption `gorm:"foreignKey:MenuItemID" json:"customization_options,omitempty"`
}

type CustomizationOption struct {
	ID         uint     `gorm:"primaryKey" json:"id"`
	MenuItemID uint     `gorm:"not null;index" json:"menu_item_id"`
	MenuItem   MenuItem `gorm:"foreignKey:MenuItemID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Name       string   `gorm:"type:varchar(255); not null" json:"name"`
	// AdditionalPrice is nullable in the schema; nil is treated as zero.
	AdditionalPrice *decimal.Decimal `gorm:"type:decimal(10,2)" json:"additional_price,omitempty"`
	CreatedAt       time.Time        `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time        `gorm:"not null" json:"updated_at"`
}

// Surcharge returns the option's additional price with nil mapped to zero.
func (o *CustomizationOption) Surcharge() decimal.Decimal {
	if o.AdditionalPrice == nil {
		return decimal.Zero
	}
	return *o.AdditionalPrice
}
