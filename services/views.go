package services

import (
	"time"

	"github.com/yeremiapane/restaurant-ordering/models"
)

// SessionView is the session projection returned by every read. It has no
// token field at all; the token only ever appears inside a JoinResult.
type SessionView struct {
	ID            uint       `json:"id"`
	StoreID       uint       `json:"store_id"`
	TableID       *uint      `json:"table_id,omitempty"`
	SessionType   string     `json:"session_type"`
	Status        string     `json:"status"`
	GuestCount    int        `json:"guest_count"`
	CustomerName  *string    `json:"customer_name,omitempty"`
	CustomerPhone *string    `json:"customer_phone,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	ClosedAt      *time.Time `json:"closed_at,omitempty"`
}

// JoinResult is returned only by join/create. This is the single place the
// session token crosses the wire.
type JoinResult struct {
	Session SessionView `json:"session"`
	Token   string      `json:"token"`
}

func NewSessionView(s *models.Session) SessionView {
	return SessionView{
		ID:            s.ID,
		StoreID:       s.StoreID,
		TableID:       s.TableID,
		SessionType:   s.SessionType,
		Status:        s.Status,
		GuestCount:    s.GuestCount,
		CustomerName:  s.CustomerName,
		CustomerPhone: s.CustomerPhone,
		CreatedAt:     s.CreatedAt,
		ClosedAt:      s.ClosedAt,
	}
}

// CartView is the full cart projection. Money renders as fixed two-place
// decimal strings.
type CartView struct {
	ID        uint           `json:"id"`
	SessionID uint           `json:"session_id"`
	StoreID   uint           `json:"store_id"`
	SubTotal  string         `json:"sub_total"`
	Items     []CartItemView `json:"items"`
}

type CartItemView struct {
	ID             uint                    `json:"id"`
	MenuItemID     *uint                   `json:"menu_item_id,omitempty"`
	MenuItemName   string                  `json:"menu_item_name"`
	BasePrice      string                  `json:"base_price"`
	Quantity       int                     `json:"quantity"`
	Notes          string                  `json:"notes,omitempty"`
	ItemTotal      string                  `json:"item_total"`
	Customizations []CartCustomizationView `json:"customizations"`
	CreatedAt      time.Time               `json:"created_at"`
}

type CartCustomizationView struct {
	ID                    uint   `json:"id"`
	CustomizationOptionID uint   `json:"customization_option_id"`
	OptionName            string `json:"option_name"`
	AdditionalPrice       string `json:"additional_price"`
}

func newCartView(cart *models.Cart, items []models.CartItem) *CartView {
	view := &CartView{
		ID:        cart.ID,
		SessionID: cart.SessionID,
		StoreID:   cart.StoreID,
		SubTotal:  cart.SubTotal.StringFixed(2),
		Items:     make([]CartItemView, 0, len(items)),
	}
	for i := range items {
		item := &items[i]
		iv := CartItemView{
			ID:             item.ID,
			MenuItemID:     item.MenuItemID,
			MenuItemName:   item.MenuItemName,
			BasePrice:      item.BasePrice.StringFixed(2),
			Quantity:       item.Quantity,
			Notes:          item.Notes,
			ItemTotal:      item.Total().StringFixed(2),
			Customizations: make([]CartCustomizationView, 0, len(item.Customizations)),
			CreatedAt:      item.CreatedAt,
		}
		for _, cust := range item.Customizations {
			iv.Customizations = append(iv.Customizations, CartCustomizationView{
				ID:                    cust.ID,
				CustomizationOptionID: cust.CustomizationOptionID,
				OptionName:            cust.OptionName,
				AdditionalPrice:       cust.AdditionalPrice.StringFixed(2),
			})
		}
		view.Items = append(view.Items, iv)
	}
	return view
}
