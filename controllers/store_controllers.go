package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-ordering/gate"
	"github.com/yeremiapane/restaurant-ordering/models"
	"github.com/yeremiapane/restaurant-ordering/utils"
)

type StoreController struct {
	DB *gorm.DB
}

func NewStoreController(db *gorm.DB) *StoreController {
	return &StoreController{DB: db}
}

// CreateStore opens a new store; the creator becomes its owner.
func (sc *StoreController) CreateStore(c *gin.Context) {
	userID, ok := actingUserID(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("authentication required"))
		return
	}

	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	tx := sc.DB.Begin()
	if tx.Error != nil {
		utils.RespondAppError(c, "CreateStore", tx.Error)
		return
	}

	store := models.Store{Name: req.Name}
	if err := tx.Create(&store).Error; err != nil {
		tx.Rollback()
		utils.RespondAppError(c, "CreateStore", err)
		return
	}
	member := models.StoreMember{
		UserID:  userID,
		StoreID: store.ID,
		Role:    models.RoleOwner,
	}
	if err := tx.Create(&member).Error; err != nil {
		tx.Rollback()
		utils.RespondAppError(c, "CreateStore", err)
		return
	}
	if err := tx.Commit().Error; err != nil {
		utils.RespondAppError(c, "CreateStore", err)
		return
	}

	utils.InfoLogger.Printf("Store %q created by user %d", store.Name, userID)
	utils.RespondJSON(c, http.StatusCreated, "Store created", store)
}

// AddMember grants a user a role in the store (owner/admin only).
func (sc *StoreController) AddMember(c *gin.Context) {
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
		UserID uint   `json:"user_id" binding:"required"`
		Role   string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if _, err := gate.AuthorizeStaff(sc.DB, userID, storeID, gate.CatalogManageRoles); err != nil {
		utils.RespondAppError(c, "AddMember", err)
		return
	}
	if !models.ValidRole(req.Role) {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("invalid role %q", req.Role))
		return
	}

	var user models.User
	if err := sc.DB.First(&user, req.UserID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("user not found"))
		return
	}

	member := models.StoreMember{
		UserID:  req.UserID,
		StoreID: storeID,
		Role:    req.Role,
	}
	if err := sc.DB.Create(&member).Error; err != nil {
		utils.RespondAppError(c, "AddMember", err)
		return
	}

	utils.InfoLogger.Printf("User %d added to store %d as %s by user %d", req.UserID, storeID, req.Role, userID)
	utils.RespondJSON(c, http.StatusCreated, "Member added", member)
}

// ListMembers shows the store's staff roster to any member.
func (sc *StoreController) ListMembers(c *gin.Context) {
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

	if _, err := gate.AuthorizeStaff(sc.DB, userID, storeID, gate.CartRoles); err != nil {
		utils.RespondAppError(c, "ListMembers", err)
		return
	}

	var members []models.StoreMember
	if err := sc.DB.Where("store_id = ?", storeID).Find(&members).Error; err != nil {
		utils.RespondAppError(c, "ListMembers", err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Store members", members)
}

func paramUint(c *gin.Context, name string) (uint, error) {
	raw := c.Param(name)
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return uint(v), nil
}
