package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User roles. Administrators may edit or delete any request; staff only their own.
const (
	RoleAdministrator = "administrator"
	RoleStaff         = "staff"
)

// User represents a staff member or an organization contact.
type User struct {
	ID         string `gorm:"primaryKey" json:"id"`
	Name       string `json:"name"`
	Email      string `gorm:"uniqueIndex" json:"email"`
	Role       string `gorm:"default:staff" json:"role"`
	TelegramID string `gorm:"index" json:"-"` // set once the user links a Telegram chat
}

// BeforeCreate is a GORM hook that generates a UUID if the ID is not set.
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return
}

// IsAdministrator reports whether the user holds the administrator role.
func (u *User) IsAdministrator() bool {
	return u.Role == RoleAdministrator
}
