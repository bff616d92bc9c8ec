package Controllers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-ordering/controllers"
	"github.com/yeremiapane/restaurant-ordering/middlewares"
	"github.com/yeremiapane/restaurant-ordering/models"
)

func setupMenuRouter(db *gorm.DB) *gin.Engine {
	router := gin.New()
	menuCtrl := controllers.NewMenuController(db)

	router.GET("/stores/:store_id/menu", menuCtrl.GetStoreMenu)

	auth := router.Group("/admin")
	auth.Use(middlewares.AuthMiddleware())
	auth.POST("/stores/:store_id/menu", menuCtrl.CreateMenuItem)
	auth.PATCH("/menu/:menu_item_id", menuCtrl.UpdateMenuItem)
	auth.DELETE("/menu/:menu_item_id", menuCtrl.DeleteMenuItem)
	auth.POST("/menu/:menu_item_id/options", menuCtrl.AddCustomizationOption)
	auth.DELETE("/menu/options/:option_id", menuCtrl.DeleteCustomizationOption)
	return router
}

func TestMenuCatalogCRUD(t *testing.T) {
	db := openTestDB(t)
	router := setupMenuRouter(db)

	store := models.Store{Name: "Menu Test Store"}
	require.NoError(t, db.Create(&store).Error)
	admin := registerStaff(t, db, "admin@example.com", store.ID, models.RoleAdmin)
	headers := map[string]string{"Authorization": bearerFor(t, admin.ID)}

	// Create.
	w := doJSON(t, router, "POST", fmt.Sprintf("/admin/stores/%d/menu", store.ID), map[string]interface{}{
		"name":        "Nasi Goreng",
		"price":       "7.25",
		"description": "Fried rice",
	}, headers)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	data := respData(t, w)
	itemID := uint(data["id"].(float64))
	assert.Equal(t, "7.25", data["price"])

	// Update the price.
	w = doJSON(t, router, "PATCH", fmt.Sprintf("/admin/menu/%d", itemID), map[string]interface{}{
		"price": "8.00",
	}, headers)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data = respData(t, w)
	assert.Equal(t, "8.00", data["price"])

	// Attach an option.
	w = doJSON(t, router, "POST", fmt.Sprintf("/admin/menu/%d/options", itemID), map[string]interface{}{
		"name":             "Extra Egg",
		"additional_price": "1.00",
	}, headers)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	data = respData(t, w)
	optionID := uint(data["id"].(float64))

	// Customers see the item with its option.
	w = doJSON(t, router, "GET", fmt.Sprintf("/stores/%d/menu", store.ID), nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	list := respDataList(t, w)
	require.Len(t, list, 1)
	listed := list[0].(map[string]interface{})
	assert.Equal(t, "Nasi Goreng", listed["name"])
	options := listed["customization_options"].([]interface{})
	require.Len(t, options, 1)

	// Drop the option, then the item.
	w = doJSON(t, router, "DELETE", fmt.Sprintf("/admin/menu/options/%d", optionID), nil, headers)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, router, "DELETE", fmt.Sprintf("/admin/menu/%d", itemID), nil, headers)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, router, "GET", fmt.Sprintf("/stores/%d/menu", store.ID), nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, respDataList(t, w))
}

func TestMenuHidesHiddenItems(t *testing.T) {
	db := openTestDB(t)
	router := setupMenuRouter(db)

	store := models.Store{Name: "Hidden Menu Store"}
	require.NoError(t, db.Create(&store).Error)
	admin := registerStaff(t, db, "admin2@example.com", store.ID, models.RoleAdmin)
	headers := map[string]string{"Authorization": bearerFor(t, admin.ID)}

	w := doJSON(t, router, "POST", fmt.Sprintf("/admin/stores/%d/menu", store.ID), map[string]interface{}{
		"name":   "Off Menu Special",
		"price":  "20.00",
		"hidden": true,
	}, headers)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, router, "GET", fmt.Sprintf("/stores/%d/menu", store.ID), nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, respDataList(t, w))
}

func TestMenuManagementRequiresCatalogRole(t *testing.T) {
	db := openTestDB(t)
	router := setupMenuRouter(db)

	store := models.Store{Name: "Role Test Store"}
	require.NoError(t, db.Create(&store).Error)
	server := registerStaff(t, db, "floor@example.com", store.ID, models.RoleServer)

	w := doJSON(t, router, "POST", fmt.Sprintf("/admin/stores/%d/menu", store.ID), map[string]interface{}{
		"name":  "Should Fail",
		"price": "5.00",
	}, map[string]string{"Authorization": bearerFor(t, server.ID)})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestMenuRejectsBadPrices(t *testing.T) {
	db := openTestDB(t)
	router := setupMenuRouter(db)

	store := models.Store{Name: "Price Test Store"}
	require.NoError(t, db.Create(&store).Error)
	admin := registerStaff(t, db, "admin3@example.com", store.ID, models.RoleAdmin)
	headers := map[string]string{"Authorization": bearerFor(t, admin.ID)}

	for _, price := range []string{"-1.00", "abc", ""} {
		w := doJSON(t, router, "POST", fmt.Sprintf("/admin/stores/%d/menu", store.ID), map[string]interface{}{
			"name":  "Bad Price",
			"price": price,
		}, headers)
		assert.Equal(t, http.StatusBadRequest, w.Code, "price %q", price)
	}
}
