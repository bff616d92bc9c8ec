package models

import "time"

// Staff roles within a store.
const (
	RoleOwner   = "owner"
	RoleAdmin   = "admin"
	RoleChef    = "chef"
	RoleCashier = "cashier"
	RoleServer  = "server"
)

type Store struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// StoreMember links a staff user to a store with a role.
type StoreMember struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_store_member" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	StoreID   uint      `gorm:"not null;uniqueIndex:idx_store_member" json:"store_id"`
	Store     Store     `gorm:"foreignKey:StoreID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Role      string    `gorm:"type:varchar(20);not null" json:"role"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func ValidRole(role string) bool {
	switch role {
	case RoleOwner, RoleAdmin, RoleChef, RoleCashier, RoleServer:
		return true
	}
	return false
}
