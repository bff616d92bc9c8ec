package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-ordering/gate"
	"github.com/yeremiapane/restaurant-ordering/services"
	"github.com/yeremiapane/restaurant-ordering/utils"
)

type SessionController struct {
	DB       *gorm.DB
	Sessions *services.SessionService
}

func NewSessionController(db *gorm.DB) *SessionController {
	return &SessionController{
		DB:       db,
		Sessions: services.NewSessionService(db),
	}
}

// JoinByTable is the QR-scan entry point. The response is the only place
// the session token is ever disclosed for a table session.
func (sc *SessionController) JoinByTable(c *gin.Context) {
	storeID, err := paramUint(c, "store_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	tableID, err := paramUint(c, "table_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	result, err := sc.Sessions.JoinByTable(storeID, tableID)
	if err != nil {
		utils.RespondAppError(c, "JoinByTable", err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Session joined", result)
}

// CreateManualSession opens a counter/phone/takeout session for staff.
func (sc *SessionController) CreateManualSession(c *gin.Context) {
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

	var req services.ManualSessionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	result, err := sc.Sessions.CreateManualSession(userID, storeID, req)
	if err != nil {
		utils.RespondAppError(c, "CreateManualSession", err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Session created", result)
}

// GetSession returns the token-free session projection to store staff.
func (sc *SessionController) GetSession(c *gin.Context) {
	userID, ok := actingUserID(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("authentication required"))
		return
	}
	sessionID, err := paramUint(c, "session_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	view, err := sc.Sessions.FindByID(sessionID)
	if err != nil {
		utils.RespondAppError(c, "GetSession", err)
		return
	}
	if _, err := gate.AuthorizeStaff(sc.DB, userID, view.StoreID, gate.CartRoles); err != nil {
		utils.RespondAppError(c, "GetSession", err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Session detail", view)
}

// ListStoreSessions lists a store's sessions for staff screens.
func (sc *SessionController) ListStoreSessions(c *gin.Context) {
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

	views, err := sc.Sessions.ListByStore(userID, storeID)
	if err != nil {
		utils.RespondAppError(c, "ListStoreSessions", err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Store sessions", views)
}

// UpdateSession applies guest-count changes or an explicit close.
func (sc *SessionController) UpdateSession(c *gin.Context) {
	userID, ok := actingUserID(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("authentication required"))
		return
	}
	sessionID, err := paramUint(c, "session_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var req services.UpdateSessionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	view, err := sc.Sessions.Update(sessionID, userID, req)
	if err != nil {
		utils.RespondAppError(c, "UpdateSession", err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Session updated", view)
}

// CloseSession ends a session; closing twice is rejected.
func (sc *SessionController) CloseSession(c *gin.Context) {
	userID, ok := actingUserID(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("authentication required"))
		return
	}
	sessionID, err := paramUint(c, "session_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	view, err := sc.Sessions.Close(sessionID, userID)
	if err != nil {
		utils.RespondAppError(c, "CloseSession", err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Session closed", view)
}
