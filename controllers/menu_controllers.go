package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-ordering/gate"
	"github.com/yeremiapane/restaurant-ordering/models"
	"github.com/yeremiapane/restaurant-ordering/utils"
)

type MenuController struct {
	DB *gorm.DB
}

func NewMenuController(db *gorm.DB) *MenuController {
	return &MenuController{DB: db}
}

// GetStoreMenu is the customer-facing listing: hidden and soft-deleted
// items never appear.
func (mc *MenuController) GetStoreMenu(c *gin.Context) {
	storeID, err := paramUint(c, "store_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var items []models.MenuItem
	err = mc.DB.Preload("CustomizationOptions").
		Where("store_id = ? AND hidden = ?", storeID, false).
		Order("name asc").
		Find(&items).Error
	if err != nil {
		utils.RespondAppError(c, "GetStoreMenu", err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Store menu", items)
}

// CreateMenuItem adds an item to the store catalog (owner/admin).
func (mc *MenuController) CreateMenuItem(c *gin.Context) {
	userID, ok := actingUserID(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("authentication required"))
		return
	}
	storeID, err := paramUint(c, "store_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var req struct {
		Name        string `json:"name" binding:"required"`
		Price       string `json:"price" binding:"required"`
		Description string `json:"description"`
		OutOfStock  bool   `json:"out_of_stock"`
		Hidden      bool   `json:"hidden"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid price"))
		return
	}

	if _, err := gate.AuthorizeStaff(mc.DB, userID, storeID, gate.CatalogManageRoles); err != nil {
		utils.RespondAppError(c, "CreateMenuItem", err)
		return
	}

	item := models.MenuItem{
		StoreID:     storeID,
		Name:        req.Name,
		Price:       price,
		Description: req.Description,
		OutOfStock:  req.OutOfStock,
		Hidden:      req.Hidden,
	}
	if err := mc.DB.Create(&item).Error; err != nil {
		utils.RespondAppError(c, "CreateMenuItem", err)
		return
	}

	utils.InfoLogger.Printf("Menu item %q created in store %d", item.Name, storeID)
	utils.RespondJSON(c, http.StatusCreated, "Menu item created", item)
}

// UpdateMenuItem edits catalog fields. Open carts are unaffected: they
// carry their own snapshots.
func (mc *MenuController) UpdateMenuItem(c *gin.Context) {
	userID, ok := actingUserID(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("authentication required"))
		return
	}
	itemID, err := paramUint(c, "menu_item_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var req struct {
		Name        *string `json:"name"`
		Price       *string `json:"price"`
		Description *string `json:"description"`
		OutOfStock  *bool   `json:"out_of_stock"`
		Hidden      *bool   `json:"hidden"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var item models.MenuItem
	if err := mc.DB.First(&item, itemID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("menu item not found"))
		return
	}
	if _, err := gate.AuthorizeStaff(mc.DB, userID, item.StoreID, gate.CatalogManageRoles); err != nil {
		utils.RespondAppError(c, "UpdateMenuItem", err)
		return
	}

	if req.Name != nil {
		item.Name = *req.Name
	}
	if req.Price != nil {
		price, err := decimal.NewFromString(*req.Price)
		if err != nil || price.IsNegative() {
			utils.RespondError(c, http.StatusBadRequest, errors.New("invalid price"))
			return
		}
		item.Price = price
	}
	if req.Description != nil {
		item.Description = *req.Description
	}
	if req.OutOfStock != nil {
		item.OutOfStock = *req.OutOfStock
	}
	if req.Hidden != nil {
		item.Hidden = *req.Hidden
	}

	if err := mc.DB.Save(&item).Error; err != nil {
		utils.RespondAppError(c, "UpdateMenuItem", err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu item updated", item)
}

// DeleteMenuItem soft-deletes, so cart lines that snapshotted it keep
// their data.
func (mc *MenuController) DeleteMenuItem(c *gin.Context) {
	userID, ok := actingUserID(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("authentication required"))
		return
	}
	itemID, err := paramUint(c, "menu_item_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var item models.MenuItem
	if err := mc.DB.First(&item, itemID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("menu item not found"))
		return
	}
	if _, err := gate.AuthorizeStaff(mc.DB, userID, item.StoreID, gate.CatalogManageRoles); err != nil {
		utils.RespondAppError(c, "DeleteMenuItem", err)
		return
	}

	if err := mc.DB.Delete(&item).Error; err != nil {
		utils.RespondAppError(c, "DeleteMenuItem", err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu item deleted", gin.H{"id": item.ID})
}

// AddCustomizationOption attaches an option to a menu item (owner/admin).
func (mc *MenuController) AddCustomizationOption(c *gin.Context) {
	userID, ok := actingUserID(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("authentication required"))
		return
	}
	itemID, err := paramUint(c, "menu_item_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var req struct {
		Name            string  `json:"name" binding:"required"`
		AdditionalPrice *string `json:"additional_price"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var item models.MenuItem
	if err := mc.DB.First(&item, itemID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("menu item not found"))
		return
	}
	if _, err := gate.AuthorizeStaff(mc.DB, userID, item.StoreID, gate.CatalogManageRoles); err != nil {
		utils.RespondAppError(c, "AddCustomizationOption", err)
		return
	}

	option := models.CustomizationOption{
		MenuItemID: item.ID,
		Name:       req.Name,
	}
	if req.AdditionalPrice != nil {
		price, err := decimal.NewFromString(*req.AdditionalPrice)
		if err != nil || price.IsNegative() {
			utils.RespondError(c, http.StatusBadRequest, errors.New("invalid additional price"))
			return
		}
		option.AdditionalPrice = &price
	}

	if err := mc.DB.Create(&option).Error; err != nil {
		utils.RespondAppError(c, "AddCustomizationOption", err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Customization option created", option)
}

// DeleteCustomizationOption removes an option from the catalog; existing
// cart lines keep their snapshot rows.
func (mc *MenuController) DeleteCustomizationOption(c *gin.Context) {
	userID, ok := actingUserID(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("authentication required"))
		return
	}
	optionID, err := paramUint(c, "option_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var option models.CustomizationOption
	if err := mc.DB.Preload("MenuItem").First(&option, optionID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("customization option not found"))
		return
	}
	if _, err := gate.AuthorizeStaff(mc.DB, userID, option.MenuItem.StoreID, gate.CatalogManageRoles); err != nil {
		utils.RespondAppError(c, "DeleteCustomizationOption", err)
		return
	}

	if err := mc.DB.Delete(&option).Error; err != nil {
		utils.RespondAppError(c, "DeleteCustomizationOption", err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Customization option deleted", gin.H{"id": option.ID})
}
