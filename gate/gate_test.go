package gate_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-ordering/apperr"
	"github.com/yeremiapane/restaurant-ordering/gate"
	"github.com/yeremiapane/restaurant-ordering/models"
)

type gateFixture struct {
	db      *gorm.DB
	store   models.Store
	session models.Session
	chef    models.User
	owner   models.User
}

func setupGateFixture(t *testing.T) *gateFixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Store{}, &models.StoreMember{}, &models.Table{}, &models.Session{},
	))

	f := &gateFixture{db: db}

	f.store = models.Store{Name: "Gate Test Store"}
	require.NoError(t, db.Create(&f.store).Error)

	f.session = models.Session{
		StoreID:     f.store.ID,
		Token:       "aaaabbbbccccddddeeeeffff0000111122223333444455556666777788889999",
		SessionType: models.SessionTypeCounter,
		Status:      models.SessionStatusActive,
		GuestCount:  1,
	}
	require.NoError(t, db.Create(&f.session).Error)

	f.chef = models.User{Name: "Chef", Email: "chef@gate.test", Password: "x"}
	require.NoError(t, db.Create(&f.chef).Error)
	require.NoError(t, db.Create(&models.StoreMember{
		UserID: f.chef.ID, StoreID: f.store.ID, Role: models.RoleChef,
	}).Error)

	f.owner = models.User{Name: "Owner", Email: "owner@gate.test", Password: "x"}
	require.NoError(t, db.Create(&f.owner).Error)
	require.NoError(t, db.Create(&models.StoreMember{
		UserID: f.owner.ID, StoreID: f.store.ID, Role: models.RoleOwner,
	}).Error)

	return f
}

func TestAuthorizeSessionToken(t *testing.T) {
	f := setupGateFixture(t)

	p, err := gate.Authorize(f.db, f.session.ID, gate.SessionToken{Value: f.session.Token}, gate.CartRoles)
	require.NoError(t, err)
	assert.Equal(t, gate.PrincipalCustomer, p.Kind)
	assert.Equal(t, f.session.ID, p.SessionID)

	_, err = gate.Authorize(f.db, f.session.ID, gate.SessionToken{Value: "wrong"}, gate.CartRoles)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	// Empty token is just a wrong token, not a missing credential.
	_, err = gate.Authorize(f.db, f.session.ID, gate.SessionToken{}, gate.CartRoles)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestAuthorizeStaffIdentity(t *testing.T) {
	f := setupGateFixture(t)

	p, err := gate.Authorize(f.db, f.session.ID, gate.StaffIdentity{UserID: f.chef.ID}, gate.CartRoles)
	require.NoError(t, err)
	assert.Equal(t, gate.PrincipalStaff, p.Kind)
	assert.Equal(t, models.RoleChef, p.Role)

	// Chef may touch carts but not manage sessions.
	_, err = gate.Authorize(f.db, f.session.ID, gate.StaffIdentity{UserID: f.chef.ID}, gate.SessionManageRoles)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	outsider := models.User{Name: "Outsider", Email: "out@gate.test", Password: "x"}
	require.NoError(t, f.db.Create(&outsider).Error)
	_, err = gate.Authorize(f.db, f.session.ID, gate.StaffIdentity{UserID: outsider.ID}, gate.CartRoles)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestAuthorizeMissingCredentials(t *testing.T) {
	f := setupGateFixture(t)

	_, err := gate.Authorize(f.db, f.session.ID, nil, gate.CartRoles)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
}

func TestAuthorizeUnknownSession(t *testing.T) {
	f := setupGateFixture(t)

	_, err := gate.Authorize(f.db, 9999, gate.SessionToken{Value: f.session.Token}, gate.CartRoles)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestAuthorizeClosedSession(t *testing.T) {
	f := setupGateFixture(t)

	require.NoError(t, f.db.Model(&models.Session{}).
		Where("id = ?", f.session.ID).
		Update("status", models.SessionStatusClosed).Error)

	// Closed beats everything, even a valid credential.
	_, err := gate.Authorize(f.db, f.session.ID, gate.SessionToken{Value: f.session.Token}, gate.CartRoles)
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))

	_, err = gate.Authorize(f.db, f.session.ID, gate.StaffIdentity{UserID: f.owner.ID}, gate.CartRoles)
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))
}

func TestAuthorizeStaffDirect(t *testing.T) {
	f := setupGateFixture(t)

	p, err := gate.AuthorizeStaff(f.db, f.owner.ID, f.store.ID, gate.CatalogManageRoles)
	require.NoError(t, err)
	assert.Equal(t, models.RoleOwner, p.Role)

	_, err = gate.AuthorizeStaff(f.db, f.chef.ID, f.store.ID, gate.CatalogManageRoles)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	// Membership in one store grants nothing in another.
	other := models.Store{Name: "Second Store"}
	require.NoError(t, f.db.Create(&other).Error)
	_, err = gate.AuthorizeStaff(f.db, f.owner.ID, other.ID, gate.CatalogManageRoles)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}
