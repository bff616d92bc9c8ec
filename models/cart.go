package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cart is the pre-checkout working state for one session. SubTotal is only
// ever written by the recalculation step inside the same transaction as the
// mutation that changed the items.
type Cart struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	SessionID uint            `gorm:"not null;uniqueIndex" json:"session_id"`
	Session   Session         `gorm:"foreignKey:SessionID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	StoreID   uint            `gorm:"not null;index" json:"store_id"`
	SubTotal  decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0.00" json:"sub_total"`
	CreatedAt time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time       `gorm:"not null" json:"updated_at"`

	Items []CartItem `gorm:"foreignKey:CartID" json:"items"`
}

// CartItem snapshots name and price at add time so an open cart survives
// menu edits and deletions.
type CartItem struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	CartID       uint            `gorm:"not null;index" json:"cart_id"`
	Cart         Cart            `gorm:"foreignKey:CartID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	MenuItemID   *uint           `gorm:"index" json:"menu_item_id,omitempty"`
	MenuItemName string          `gorm:"type:varchar(255);not null" json:"menu_item_name"`
	BasePrice    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"base_price"`
	Quantity     int             `gorm:"not null" json:"quantity"`
	Notes        string          `gorm:"type:text" json:"notes"`
	CreatedAt    time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"not null" json:"updated_at"`

	Customizations []CartItemCustomization `gorm:"foreignKey:CartItemID" json:"customizations"`
}

// Total is the frozen line total: (base + surcharges) * quantity.
func (i *CartItem) Total() decimal.Decimal {
	unit := i.BasePrice
	for _, c := range i.Customizations {
		unit = unit.Add(c.AdditionalPrice)
	}
	return unit.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type CartItemCustomization struct {
	ID                    uint            `gorm:"primaryKey" json:"id"`
	CartItemID            uint            `gorm:"not null;index" json:"cart_item_id"`
	CartItem              CartItem        `gorm:"foreignKey:CartItemID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	CustomizationOptionID uint            `gorm:"not null" json:"customization_option_id"`
	OptionName            string          `gorm:"type:varchar(255);not null" json:"option_name"`
	AdditionalPrice       decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0.00" json:"additional_price"`
	CreatedAt             time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt             time.Time       `gorm:"not null" json:"updated_at"`
}
