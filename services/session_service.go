package services

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-ordering/apperr"
	"github.com/yeremiapane/restaurant-ordering/gate"
	"github.com/yeremiapane/restaurant-ordering/models"
	"github.com/yeremiapane/restaurant-ordering/utils"
)

// SessionService owns the session lifecycle: join-by-table, manual
// creation, lookups, updates and closure.
type SessionService struct {
	DB *gorm.DB
}

func NewSessionService(db *gorm.DB) *SessionService {
	return &SessionService{DB: db}
}

// JoinByTable returns the active session for a table, creating one (plus
// its empty cart) if none exists. The table row is locked so two customers
// scanning at once end up in the same session.
func (s *SessionService) JoinByTable(storeID, tableID uint) (*JoinResult, error) {
	tx := s.DB.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	result, err := s.joinByTableTx(tx, storeID, tableID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return result, nil
}

func (s *SessionService) joinByTableTx(tx *gorm.DB, storeID, tableID uint) (*JoinResult, error) {
	var table models.Table
	err := lockForUpdate(tx).
		Where("id = ? AND store_id = ?", tableID, storeID).
		First(&table).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("table not found")
		}
		return nil, err
	}

	// Idempotent join: at most one active session per table.
	var existing models.Session
	err = tx.Where("table_id = ? AND status = ?", table.ID, models.SessionStatusActive).
		First(&existing).Error
	if err == nil {
		return &JoinResult{Session: NewSessionView(&existing), Token: existing.Token}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	token, err := utils.GenerateSessionToken()
	if err != nil {
		return nil, err
	}

	session := models.Session{
		StoreID:     table.StoreID,
		TableID:     &table.ID,
		Token:       token,
		SessionType: models.SessionTypeTable,
		Status:      models.SessionStatusActive,
		GuestCount:  1,
	}
	if err := tx.Create(&session).Error; err != nil {
		return nil, err
	}

	cart := models.Cart{
		SessionID: session.ID,
		StoreID:   session.StoreID,
		SubTotal:  decimal.Zero,
	}
	if err := tx.Create(&cart).Error; err != nil {
		return nil, err
	}

	utils.InfoLogger.Printf("Session %d opened for table %d (store %d)", session.ID, table.ID, table.StoreID)
	return &JoinResult{Session: NewSessionView(&session), Token: session.Token}, nil
}

type ManualSessionInput struct {
	SessionType   string  `json:"session_type"`
	CustomerName  *string `json:"customer_name"`
	CustomerPhone *string `json:"customer_phone"`
	GuestCount    int     `json:"guest_count"`
}

// CreateManualSession opens a counter/phone/takeout session on behalf of a
// staff member. Table sessions can only come from JoinByTable.
func (s *SessionService) CreateManualSession(actingUserID, storeID uint, in ManualSessionInput) (*JoinResult, error) {
	if _, err := gate.AuthorizeStaff(s.DB, actingUserID, storeID, gate.SessionManageRoles); err != nil {
		return nil, err
	}
	if in.SessionType == models.SessionTypeTable {
		return nil, apperr.BadRequest("manual sessions cannot be table sessions")
	}
	if !models.ValidSessionType(in.SessionType) {
		return nil, apperr.BadRequest("invalid session type")
	}
	if in.GuestCount < 1 {
		in.GuestCount = 1
	}

	token, err := utils.GenerateSessionToken()
	if err != nil {
		return nil, err
	}

	tx := s.DB.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	session := models.Session{
		StoreID:       storeID,
		Token:         token,
		SessionType:   in.SessionType,
		Status:        models.SessionStatusActive,
		GuestCount:    in.GuestCount,
		CustomerName:  in.CustomerName,
		CustomerPhone: in.CustomerPhone,
	}
	if err := tx.Create(&session).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	cart := models.Cart{
		SessionID: session.ID,
		StoreID:   storeID,
		SubTotal:  decimal.Zero,
	}
	if err := tx.Create(&cart).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	utils.InfoLogger.Printf("Manual %s session %d opened by user %d (store %d)",
		session.SessionType, session.ID, actingUserID, storeID)
	return &JoinResult{Session: NewSessionView(&session), Token: session.Token}, nil
}

func (s *SessionService) FindByID(id uint) (*SessionView, error) {
	var session models.Session
	if err := s.DB.First(&session, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("session not found")
		}
		return nil, err
	}
	view := NewSessionView(&session)
	return &view, nil
}

func (s *SessionService) FindByToken(token string) (*SessionView, error) {
	var session models.Session
	if err := s.DB.Where("token = ?", token).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("session not found")
		}
		return nil, err
	}
	view := NewSessionView(&session)
	return &view, nil
}

// ListByStore returns all sessions of a store for staff screens, newest
// first.
func (s *SessionService) ListByStore(actingUserID, storeID uint) ([]SessionView, error) {
	if _, err := gate.AuthorizeStaff(s.DB, actingUserID, storeID, gate.CartRoles); err != nil {
		return nil, err
	}

	var sessions []models.Session
	if err := s.DB.Where("store_id = ?", storeID).Order("created_at desc").Find(&sessions).Error; err != nil {
		return nil, err
	}
	views := make([]SessionView, 0, len(sessions))
	for i := range sessions {
		views = append(views, NewSessionView(&sessions[i]))
	}
	return views, nil
}

type UpdateSessionInput struct {
	GuestCount *int    `json:"guest_count"`
	Status     *string `json:"status"`
}

// Update applies staff changes to a session. Store membership is checked
// against the session's own store, never a caller-supplied one.
func (s *SessionService) Update(id, actingUserID uint, in UpdateSessionInput) (*SessionView, error) {
	tx := s.DB.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	view, err := s.updateTx(tx, id, actingUserID, in)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return view, nil
}

func (s *SessionService) updateTx(tx *gorm.DB, id, actingUserID uint, in UpdateSessionInput) (*SessionView, error) {
	var session models.Session
	err := lockForUpdate(tx).First(&session, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("session not found")
		}
		return nil, err
	}

	if _, err := gate.AuthorizeStaff(tx, actingUserID, session.StoreID, gate.SessionManageRoles); err != nil {
		return nil, err
	}
	if !session.Active() {
		return nil, apperr.BadRequest("session is closed")
	}

	if in.GuestCount != nil {
		if *in.GuestCount < 1 {
			return nil, apperr.BadRequest("guest count must be at least 1")
		}
		session.GuestCount = *in.GuestCount
	}

	if in.Status != nil {
		if *in.Status != models.SessionStatusClosed {
			return nil, apperr.BadRequest("status can only transition to closed")
		}
		now := time.Now()
		session.Status = models.SessionStatusClosed
		session.ClosedAt = &now
	}

	if err := tx.Save(&session).Error; err != nil {
		return nil, err
	}

	view := NewSessionView(&session)
	return &view, nil
}

// Close marks a session closed. Closing twice is an error, not a no-op.
func (s *SessionService) Close(id, actingUserID uint) (*SessionView, error) {
	tx := s.DB.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	view, err := s.closeTx(tx, id, actingUserID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return view, nil
}

func (s *SessionService) closeTx(tx *gorm.DB, id, actingUserID uint) (*SessionView, error) {
	var session models.Session
	err := lockForUpdate(tx).First(&session, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("session not found")
		}
		return nil, err
	}

	if _, err := gate.AuthorizeStaff(tx, actingUserID, session.StoreID, gate.SessionManageRoles); err != nil {
		return nil, err
	}
	if !session.Active() {
		return nil, apperr.BadRequest("session is already closed")
	}

	now := time.Now()
	session.Status = models.SessionStatusClosed
	session.ClosedAt = &now
	if err := tx.Save(&session).Error; err != nil {
		return nil, err
	}

	utils.InfoLogger.Printf("Session %d closed by user %d", session.ID, actingUserID)
	view := NewSessionView(&session)
	return &view, nil
}
