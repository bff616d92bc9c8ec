package services

import (
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-ordering/apperr"
	"github.com/yeremiapane/restaurant-ordering/gate"
	"github.com/yeremiapane/restaurant-ordering/models"
	"github.com/yeremiapane/restaurant-ordering/utils"
)

// Broadcaster pushes a committed cart to every device in the session's
// room. The realtime hub implements it; tests may leave it nil.
type Broadcaster interface {
	BroadcastCartUpdate(sessionID uint, cart interface{})
}

// CartService is the only writer of carts. Every operation authorizes the
// caller, applies its change and recomputes the subtotal inside a single
// transaction, then broadcasts the committed state.
type CartService struct {
	DB          *gorm.DB
	Broadcaster Broadcaster
}

func NewCartService(db *gorm.DB, b Broadcaster) *CartService {
	return &CartService{DB: db, Broadcaster: b}
}

// GetCart returns the session's cart, creating an empty one on first
// access. The session row lock makes concurrent first access yield a
// single cart.
func (s *CartService) GetCart(sessionID uint, creds gate.Credentials) (*CartView, error) {
	tx := s.DB.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	view, err := s.getCartTx(tx, sessionID, creds)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return view, nil
}

func (s *CartService) getCartTx(tx *gorm.DB, sessionID uint, creds gate.Credentials) (*CartView, error) {
	session, err := lockSession(tx, sessionID)
	if err != nil {
		return nil, err
	}
	if _, err := gate.AuthorizeSession(tx, session, creds, gate.CartRoles); err != nil {
		return nil, err
	}
	cart, err := getOrCreateCart(tx, session)
	if err != nil {
		return nil, err
	}
	return loadCartView(tx, cart)
}

type AddItemInput struct {
	MenuItemID             uint   `json:"menu_item_id"`
	Quantity               int    `json:"quantity"`
	Notes                  string `json:"notes"`
	CustomizationOptionIDs []uint `json:"customization_option_ids"`
}

// AddItem snapshots the menu item's current name and price onto a new cart
// line. The availability check and the insert share one transaction, so a
// concurrent menu deletion fails the insert instead of racing past the
// check.
func (s *CartService) AddItem(sessionID uint, creds gate.Credentials, in AddItemInput) (*CartView, error) {
	if in.Quantity < 1 {
		return nil, apperr.BadRequest("quantity must be at least 1")
	}

	tx := s.DB.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	view, err := s.addItemTx(tx, sessionID, creds, in)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	s.broadcast(sessionID, view)
	return view, nil
}

func (s *CartService) addItemTx(tx *gorm.DB, sessionID uint, creds gate.Credentials, in AddItemInput) (*CartView, error) {
	session, err := lockSession(tx, sessionID)
	if err != nil {
		return nil, err
	}
	if _, err := gate.AuthorizeSession(tx, session, creds, gate.CartRoles); err != nil {
		return nil, err
	}
	cart, err := getOrCreateCart(tx, session)
	if err != nil {
		return nil, err
	}

	var menu models.MenuItem
	err = tx.Unscoped().
		Where("id = ? AND store_id = ?", in.MenuItemID, session.StoreID).
		First(&menu).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("menu item not found")
		}
		return nil, err
	}
	if menu.DeletedAt.Valid {
		return nil, apperr.BadRequest("Menu item is no longer available")
	}
	if menu.OutOfStock {
		return nil, apperr.BadRequest("Menu item is out of stock")
	}
	if menu.Hidden {
		return nil, apperr.BadRequest("Menu item is not available")
	}

	// All requested options must resolve against this menu item; a count
	// mismatch catches duplicate or foreign ids.
	var options []models.CustomizationOption
	if len(in.CustomizationOptionIDs) > 0 {
		err = tx.Where("menu_item_id = ? AND id IN ?", menu.ID, in.CustomizationOptionIDs).
			Find(&options).Error
		if err != nil {
			return nil, err
		}
		if len(options) != len(in.CustomizationOptionIDs) {
			return nil, apperr.BadRequest("one or more customization options are invalid")
		}
	}

	item := models.CartItem{
		CartID:       cart.ID,
		MenuItemID:   &menu.ID,
		MenuItemName: menu.Name,
		BasePrice:    menu.Price,
		Quantity:     in.Quantity,
		Notes:        in.Notes,
	}
	if err := tx.Create(&item).Error; err != nil {
		return nil, err
	}

	for i := range options {
		cust := models.CartItemCustomization{
			CartItemID:            item.ID,
			CustomizationOptionID: options[i].ID,
			OptionName:            options[i].Name,
			AdditionalPrice:       options[i].Surcharge(),
		}
		if err := tx.Create(&cust).Error; err != nil {
			return nil, err
		}
	}

	if err := recalculateSubtotal(tx, cart); err != nil {
		return nil, err
	}

	utils.InfoLogger.Printf("Cart %d: added item %q x%d (session %d)", cart.ID, item.MenuItemName, item.Quantity, sessionID)
	return loadCartView(tx, cart)
}

type UpdateItemInput struct {
	Quantity *int    `json:"quantity"`
	Notes    *string `json:"notes"`
}

func (s *CartService) UpdateItem(sessionID uint, creds gate.Credentials, itemID uint, in UpdateItemInput) (*CartView, error) {
	if in.Quantity != nil && *in.Quantity < 1 {
		return nil, apperr.BadRequest("quantity must be at least 1")
	}

	tx := s.DB.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	view, err := s.updateItemTx(tx, sessionID, creds, itemID, in)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	s.broadcast(sessionID, view)
	return view, nil
}

func (s *CartService) updateItemTx(tx *gorm.DB, sessionID uint, creds gate.Credentials, itemID uint, in UpdateItemInput) (*CartView, error) {
	session, err := lockSession(tx, sessionID)
	if err != nil {
		return nil, err
	}
	if _, err := gate.AuthorizeSession(tx, session, creds, gate.CartRoles); err != nil {
		return nil, err
	}
	cart, err := getOrCreateCart(tx, session)
	if err != nil {
		return nil, err
	}

	item, err := findOwnedItem(tx, cart, itemID)
	if err != nil {
		return nil, err
	}

	if in.Quantity != nil {
		item.Quantity = *in.Quantity
	}
	if in.Notes != nil {
		item.Notes = *in.Notes
	}
	if err := tx.Save(item).Error; err != nil {
		return nil, err
	}

	if err := recalculateSubtotal(tx, cart); err != nil {
		return nil, err
	}
	return loadCartView(tx, cart)
}

func (s *CartService) RemoveItem(sessionID uint, creds gate.Credentials, itemID uint) (*CartView, error) {
	tx := s.DB.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	view, err := s.removeItemTx(tx, sessionID, creds, itemID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	s.broadcast(sessionID, view)
	return view, nil
}

func (s *CartService) removeItemTx(tx *gorm.DB, sessionID uint, creds gate.Credentials, itemID uint) (*CartView, error) {
	session, err := lockSession(tx, sessionID)
	if err != nil {
		return nil, err
	}
	if _, err := gate.AuthorizeSession(tx, session, creds, gate.CartRoles); err != nil {
		return nil, err
	}
	cart, err := getOrCreateCart(tx, session)
	if err != nil {
		return nil, err
	}

	item, err := findOwnedItem(tx, cart, itemID)
	if err != nil {
		return nil, err
	}

	// Hard delete, customizations first.
	if err := tx.Where("cart_item_id = ?", item.ID).Delete(&models.CartItemCustomization{}).Error; err != nil {
		return nil, err
	}
	if err := tx.Delete(&models.CartItem{}, item.ID).Error; err != nil {
		return nil, err
	}

	if err := recalculateSubtotal(tx, cart); err != nil {
		return nil, err
	}
	return loadCartView(tx, cart)
}

// ClearCart removes every line item and resets the subtotal. Clearing an
// empty cart succeeds.
func (s *CartService) ClearCart(sessionID uint, creds gate.Credentials) (*CartView, error) {
	tx := s.DB.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	view, err := s.clearCartTx(tx, sessionID, creds)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	s.broadcast(sessionID, view)
	return view, nil
}

func (s *CartService) clearCartTx(tx *gorm.DB, sessionID uint, creds gate.Credentials) (*CartView, error) {
	session, err := lockSession(tx, sessionID)
	if err != nil {
		return nil, err
	}
	if _, err := gate.AuthorizeSession(tx, session, creds, gate.CartRoles); err != nil {
		return nil, err
	}
	cart, err := getOrCreateCart(tx, session)
	if err != nil {
		return nil, err
	}

	var itemIDs []uint
	if err := tx.Model(&models.CartItem{}).Where("cart_id = ?", cart.ID).Pluck("id", &itemIDs).Error; err != nil {
		return nil, err
	}
	if len(itemIDs) > 0 {
		if err := tx.Where("cart_item_id IN ?", itemIDs).Delete(&models.CartItemCustomization{}).Error; err != nil {
			return nil, err
		}
		if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
			return nil, err
		}
	}

	if err := recalculateSubtotal(tx, cart); err != nil {
		return nil, err
	}
	return loadCartView(tx, cart)
}

func (s *CartService) broadcast(sessionID uint, view *CartView) {
	if s.Broadcaster != nil {
		s.Broadcaster.BroadcastCartUpdate(sessionID, view)
	}
}

func lockSession(tx *gorm.DB, sessionID uint) (*models.Session, error) {
	var session models.Session
	err := lockForUpdate(tx).First(&session, sessionID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("session not found")
		}
		return nil, err
	}
	return &session, nil
}

func getOrCreateCart(tx *gorm.DB, session *models.Session) (*models.Cart, error) {
	var cart models.Cart
	err := tx.Where("session_id = ?", session.ID).First(&cart).Error
	if err == nil {
		return &cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	cart = models.Cart{
		SessionID: session.ID,
		StoreID:   session.StoreID,
		SubTotal:  decimal.Zero,
	}
	if err := tx.Create(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

func findOwnedItem(tx *gorm.DB, cart *models.Cart, itemID uint) (*models.CartItem, error) {
	var item models.CartItem
	if err := tx.First(&item, itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("cart item not found")
		}
		return nil, err
	}
	if item.CartID != cart.ID {
		return nil, apperr.BadRequest("cart item does not belong to this session")
	}
	return &item, nil
}

// recalculateSubtotal re-derives the cart subtotal from the item rows as
// they stand inside the current transaction. It is the only writer of
// sub_total.
func recalculateSubtotal(tx *gorm.DB, cart *models.Cart) error {
	var items []models.CartItem
	err := tx.Preload("Customizations").Where("cart_id = ?", cart.ID).Find(&items).Error
	if err != nil {
		return err
	}

	total := decimal.Zero
	for i := range items {
		total = total.Add(items[i].Total())
	}

	cart.SubTotal = total
	return tx.Model(&models.Cart{}).Where("id = ?", cart.ID).Update("sub_total", total).Error
}

func loadCartView(tx *gorm.DB, cart *models.Cart) (*CartView, error) {
	var items []models.CartItem
	err := tx.Preload("Customizations").
		Where("cart_id = ?", cart.ID).
		Order("created_at asc, id asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return newCartView(cart, items), nil
}
