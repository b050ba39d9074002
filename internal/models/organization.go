package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq" // required for pq.StringArray
	"gorm.io/gorm"
)

// Organization is a sending organization from the canonical directory.
// Requests reference it as their sender; its members receive fan-outs.
type Organization struct {
	ID      string `gorm:"primaryKey" json:"id"`
	Name    string `gorm:"uniqueIndex" json:"name"`
	Address string `json:"address"`
	// Domains holds the organization's email domains.
	Domains pq.StringArray `gorm:"type:text[]" json:"domains"`
}

// OrganizationMember links a user to an organization (many-to-many).
type OrganizationMember struct {
	ID             uint   `gorm:"primaryKey"`
	OrganizationID string `gorm:"index:idx_org_member,unique"`
	UserID         string `gorm:"index:idx_org_member,unique"`
}

// BeforeCreate generates a UUID for the organization if the ID is not set.
func (o *Organization) BeforeCreate(tx *gorm.DB) (err error) {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	return
}
