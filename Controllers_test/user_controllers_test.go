package Controllers_test

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-ordering/controllers"
	"github.com/yeremiapane/restaurant-ordering/middlewares"
)

func setupUserRouter(db *gorm.DB) *gin.Engine {
	router := gin.New()
	userCtrl := controllers.NewUserController(db)
	router.POST("/register", userCtrl.Register)
	router.POST("/login", userCtrl.Login)

	auth := router.Group("/admin")
	auth.Use(middlewares.AuthMiddleware())
	auth.GET("/profile", userCtrl.GetProfile)
	return router
}

func TestRegisterLoginProfile(t *testing.T) {
	db := openTestDB(t)
	router := setupUserRouter(db)

	w := doJSON(t, router, "POST", "/register", map[string]interface{}{
		"name":     "Andi",
		"email":    "andi@example.com",
		"password": "password123",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, router, "POST", "/login", map[string]interface{}{
		"email":    "andi@example.com",
		"password": "password123",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := respData(t, w)
	token, ok := data["token"].(string)
	require.True(t, ok)
	require.NotEmpty(t, token)

	w = doJSON(t, router, "GET", "/admin/profile", nil, map[string]string{
		"Authorization": "Bearer " + token,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data = respData(t, w)
	assert.Equal(t, "andi@example.com", data["email"])
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	db := openTestDB(t)
	router := setupUserRouter(db)
	registerStaff(t, db, "budi@example.com", 0, "")

	w := doJSON(t, router, "POST", "/login", map[string]interface{}{
		"email":    "budi@example.com",
		"password": "wrong-password",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, router, "POST", "/login", map[string]interface{}{
		"email":    "nobody@example.com",
		"password": "password123",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegisterValidation(t *testing.T) {
	db := openTestDB(t)
	router := setupUserRouter(db)

	// Password below the minimum length.
	w := doJSON(t, router, "POST", "/register", map[string]interface{}{
		"name":     "Short",
		"email":    "short@example.com",
		"password": "short",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Not an email.
	w = doJSON(t, router, "POST", "/register", map[string]interface{}{
		"name":     "Bad Email",
		"email":    "not-an-email",
		"password": "password123",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProfileRequiresToken(t *testing.T) {
	db := openTestDB(t)
	router := setupUserRouter(db)

	w := doJSON(t, router, "GET", "/admin/profile", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, router, "GET", "/admin/profile", nil, map[string]string{
		"Authorization": "Bearer garbage",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
