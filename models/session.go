package models

import "time"

const (
	SessionTypeTable   = "table"
	SessionTypeCounter = "counter"
	SessionTypePhone   = "phone"
	SessionTypeTakeout = "takeout"

	SessionStatusActive = "active"
	SessionStatusClosed = "closed"
)

// Session is one dining occasion (or one counter/phone/takeout sale). The
// token is the customer-side credential; it is handed out exactly once at
// join/create time and never serialized afterwards.
type Session struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	StoreID       uint       `gorm:"not null;index" json:"store_id"`
	Store         Store      `gorm:"foreignKey:StoreID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	TableID       *uint      `gorm:"index" json:"table_id,omitempty"`
	Table         *Table     `gorm:"foreignKey:TableID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	Token         string     `gorm:"type:char(64);uniqueIndex;not null" json:"-"`
	SessionType   string     `gorm:"type:varchar(20);not null" json:"session_type"`
	Status        string     `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	GuestCount    int        `gorm:"not null;default:1" json:"guest_count"`
	CustomerName  *string    `gorm:"type:varchar(255)" json:"customer_name,omitempty"`
	CustomerPhone *string    `gorm:"type:varchar(50)" json:"customer_phone,omitempty"`
	CreatedAt     time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"not null" json:"updated_at"`
	ClosedAt      *time.Time `json:"closed_at,omitempty"`
}

func (s *Session) Active() bool {
	return s.Status == SessionStatusActive
}

func ValidSessionType(t string) bool {
	switch t {
	case SessionTypeTable, SessionTypeCounter, SessionTypePhone, SessionTypeTakeout:
		return true
	}
	return false
}
