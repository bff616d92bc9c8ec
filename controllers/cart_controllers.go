package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-ordering/gate"
	"github.com/yeremiapane/restaurant-ordering/realtime"
	"github.com/yeremiapane/restaurant-ordering/services"
	"github.com/yeremiapane/restaurant-ordering/utils"
)

type CartController struct {
	DB    *gorm.DB
	Carts *services.CartService
}

func NewCartController(db *gorm.DB, hub *realtime.Hub) *CartController {
	return &CartController{
		DB:    db,
		Carts: services.NewCartService(db, hub),
	}
}

// cartCredentials extracts exactly one credential form from the request:
// the X-Session-Token header (customer) or the Authorization bearer
// (staff). A malformed bearer is reported, not silently ignored. Returning
// nil lets the gate answer Unauthorized.
func cartCredentials(c *gin.Context) (gate.Credentials, bool) {
	if token := c.GetHeader("X-Session-Token"); token != "" {
		return gate.SessionToken{Value: token}, true
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil, true
	}
	claims, err := utils.ParseToken(strings.TrimPrefix(authHeader, "Bearer "))
	if err != nil {
		utils.RespondError(c, http.StatusUnauthorized, err)
		return nil, false
	}
	return gate.StaffIdentity{UserID: claims.UserID}, true
}

// GetCart returns (and lazily creates) the session's cart.
func (cc *CartController) GetCart(c *gin.Context) {
	sessionID, err := paramUint(c, "session_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	creds, ok := cartCredentials(c)
	if !ok {
		return
	}

	cart, err := cc.Carts.GetCart(sessionID, creds)
	if err != nil {
		utils.RespondAppError(c, "GetCart", err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Cart", cart)
}

// AddItem adds a menu item (with optional customizations) to the cart.
func (cc *CartController) AddItem(c *gin.Context) {
	sessionID, err := paramUint(c, "session_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	creds, ok := cartCredentials(c)
	if !ok {
		return
	}

	var req services.AddItemInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	cart, err := cc.Carts.AddItem(sessionID, creds, req)
	if err != nil {
		utils.RespondAppError(c, "AddItem", err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Item added", cart)
}

// UpdateItem changes quantity or notes of one cart line.
func (cc *CartController) UpdateItem(c *gin.Context) {
	sessionID, err := paramUint(c, "session_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	itemID, err := paramUint(c, "item_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	creds, ok := cartCredentials(c)
	if !ok {
		return
	}

	var req services.UpdateItemInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	cart, err := cc.Carts.UpdateItem(sessionID, creds, itemID, req)
	if err != nil {
		utils.RespondAppError(c, "UpdateItem", err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Item updated", cart)
}

// RemoveItem deletes one cart line and its customizations.
func (cc *CartController) RemoveItem(c *gin.Context) {
	sessionID, err := paramUint(c, "session_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	itemID, err := paramUint(c, "item_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	creds, ok := cartCredentials(c)
	if !ok {
		return
	}

	cart, err := cc.Carts.RemoveItem(sessionID, creds, itemID)
	if err != nil {
		utils.RespondAppError(c, "RemoveItem", err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Item removed", cart)
}

// ClearCart empties the cart; clearing an empty cart is a success.
func (cc *CartController) ClearCart(c *gin.Context) {
	sessionID, err := paramUint(c, "session_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	creds, ok := cartCredentials(c)
	if !ok {
		return
	}

	cart, err := cc.Carts.ClearCart(sessionID, creds)
	if err != nil {
		utils.RespondAppError(c, "ClearCart", err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Cart cleared", cart)
}
