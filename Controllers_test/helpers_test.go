package Controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-ordering/models"
	"github.com/yeremiapane/restaurant-ordering/utils"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	utils.InitLogger()
	os.Exit(m.Run())
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// Named shared-cache DB: one database per test, shared by every pooled
	// connection.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Store{}, &models.StoreMember{}, &models.Table{},
		&models.MenuItem{}, &models.CustomizationOption{},
		&models.Session{}, &models.Cart{}, &models.CartItem{}, &models.CartItemCustomization{},
	))
	return db
}

// registerStaff seeds a user with a store membership. Password is always
// "password123" so login tests can reuse it.
func registerStaff(t *testing.T, db *gorm.DB, email string, storeID uint, role string) models.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	require.NoError(t, err)
	user := models.User{Name: email, Email: email, Password: string(hashed)}
	require.NoError(t, db.Create(&user).Error)
	if storeID != 0 {
		require.NoError(t, db.Create(&models.StoreMember{
			UserID: user.ID, StoreID: storeID, Role: role,
		}).Error)
	}
	return user
}

func bearerFor(t *testing.T, userID uint) string {
	t.Helper()
	token, err := utils.GenerateToken(userID)
	require.NoError(t, err)
	return "Bearer " + token
}

// doJSON fires one request at the router. payload may be nil; headers may
// be nil.
func doJSON(t *testing.T, router *gin.Engine, method, url string, payload interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, url, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// respData unwraps the "data" member of the response envelope.
func respData(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data, ok := resp["data"].(map[string]interface{})
	require.True(t, ok, "data member must be an object, body: %s", w.Body.String())
	return data
}

func respDataList(t *testing.T, w *httptest.ResponseRecorder) []interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data, ok := resp["data"].([]interface{})
	require.True(t, ok, "data member must be an array, body: %s", w.Body.String())
	return data
}
