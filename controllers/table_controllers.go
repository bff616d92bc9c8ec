package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-ordering/gate"
	"github.com/yeremiapane/restaurant-ordering/models"
	"github.com/yeremiapane/restaurant-ordering/utils"
)

type TableController struct {
	DB *gorm.DB
}

func NewTableController(db *gorm.DB) *TableController {
	return &TableController{DB: db}
}

// CreateTable adds a table to a store (owner/admin).
func (tc *TableController) CreateTable(c *gin.Context) {
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
		TableNumber string `json:"table_number" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if _, err := gate.AuthorizeStaff(tc.DB, userID, storeID, gate.CatalogManageRoles); err != nil {
		utils.RespondAppError(c, "CreateTable", err)
		return
	}

	table := models.Table{
		StoreID:     storeID,
		TableNumber: req.TableNumber,
	}
	if err := tc.DB.Create(&table).Error; err != nil {
		utils.RespondAppError(c, "CreateTable", err)
		return
	}

	utils.InfoLogger.Printf("New table created: %s (store %d)", table.TableNumber, storeID)
	utils.RespondJSON(c, http.StatusCreated, "Table created successfully", table)
}

// GetStoreTables lists a store's tables; public so customer devices can
// resolve the table behind a QR code.
func (tc *TableController) GetStoreTables(c *gin.Context) {
	storeID, err := paramUint(c, "store_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var tables []models.Table
	if err := tc.DB.Where("store_id = ?", storeID).Order("table_number asc").Find(&tables).Error; err != nil {
		utils.RespondAppError(c, "GetStoreTables", err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of tables", tables)
}

// DeleteTable removes a table (owner/admin). Tables with session history
// are kept by the RESTRICT constraint.
func (tc *TableController) DeleteTable(c *gin.Context) {
	userID, ok := actingUserID(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("authentication required"))
		return
	}
	tableID, err := paramUint(c, "table_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var table models.Table
	if err := tc.DB.First(&table, tableID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("table not found"))
		return
	}
	if _, err := gate.AuthorizeStaff(tc.DB, userID, table.StoreID, gate.CatalogManageRoles); err != nil {
		utils.RespondAppError(c, "DeleteTable", err)
		return
	}

	if err := tc.DB.Delete(&table).Error; err != nil {
		utils.RespondAppError(c, "DeleteTable", err)
		return
	}

	utils.InfoLogger.Printf("Table %d deleted from store %d", table.ID, table.StoreID)
	utils.RespondJSON(c, http.StatusOK, "Table deleted", gin.H{"id": table.ID})
}
