// Package gate decides whether a caller may act on a session. Both the REST
// handlers and the websocket channel route every cart operation through
// Authorize with one of the two credential forms.
package gate

import (
	"crypto/subtle"
	"errors"

	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-ordering/apperr"
	"github.com/yeremiapane/restaurant-ordering/models"
)

// Credentials is a closed union: a request carries exactly one of the two
// forms, never both and never a half-filled struct.
type Credentials interface {
	isCredentials()
}

// SessionToken is the anonymous customer credential issued at join time.
type SessionToken struct {
	Value string
}

// StaffIdentity is an authenticated user, resolved to a store role at
// authorization time.
type StaffIdentity struct {
	UserID uint
}

func (SessionToken) isCredentials()  {}
func (StaffIdentity) isCredentials() {}

const (
	PrincipalCustomer = "customer"
	PrincipalStaff    = "staff"
)

// Principal is the resolved acting party for one authorized operation.
type Principal struct {
	Kind      string
	SessionID uint
	UserID    uint
	Role      string
}

// CartRoles may read and mutate a session's cart.
var CartRoles = []string{
	models.RoleOwner,
	models.RoleAdmin,
	models.RoleChef,
	models.RoleCashier,
	models.RoleServer,
}

// SessionManageRoles may create manual sessions, update and close sessions.
var SessionManageRoles = []string{
	models.RoleOwner,
	models.RoleAdmin,
	models.RoleCashier,
	models.RoleServer,
}

// CatalogManageRoles may edit the store menu and tables.
var CatalogManageRoles = []string{
	models.RoleOwner,
	models.RoleAdmin,
}

// Authorize loads the session and evaluates creds against it. The session
// must exist and be active before any credential is even looked at.
func Authorize(db *gorm.DB, sessionID uint, creds Credentials, allowedRoles []string) (*Principal, error) {
	var session models.Session
	if err := db.First(&session, sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("session not found")
		}
		return nil, err
	}
	return AuthorizeSession(db, &session, creds, allowedRoles)
}

// AuthorizeSession is Authorize for a session the caller already loaded,
// typically under a row lock inside a transaction.
func AuthorizeSession(db *gorm.DB, session *models.Session, creds Credentials, allowedRoles []string) (*Principal, error) {
	if !session.Active() {
		return nil, apperr.BadRequest("session is closed")
	}

	switch cred := creds.(type) {
	case SessionToken:
		if subtle.ConstantTimeCompare([]byte(cred.Value), []byte(session.Token)) != 1 {
			return nil, apperr.Forbidden("invalid session token")
		}
		return &Principal{Kind: PrincipalCustomer, SessionID: session.ID}, nil
	case StaffIdentity:
		return AuthorizeStaff(db, cred.UserID, session.StoreID, allowedRoles)
	case nil:
		return nil, apperr.Unauthorized("authentication required")
	default:
		return nil, apperr.Unauthorized("authentication required")
	}
}

// AuthorizeStaff checks store membership and role without any session in
// play, e.g. for manual session creation or catalog management.
func AuthorizeStaff(db *gorm.DB, userID, storeID uint, allowedRoles []string) (*Principal, error) {
	var member models.StoreMember
	err := db.Where("user_id = ? AND store_id = ?", userID, storeID).First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Forbidden("not a member of store")
		}
		return nil, err
	}

	for _, role := range allowedRoles {
		if member.Role == role {
			return &Principal{Kind: PrincipalStaff, UserID: userID, Role: member.Role}, nil
		}
	}
	return nil, apperr.Forbidden("insufficient role")
}
