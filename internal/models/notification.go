package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Notification is a single per-recipient record produced by a fan-out.
// RelatedRequestID is nullable: deleting a request nulls the reference
// rather than removing the notification, so the feed keeps its history.
// IsRead only ever moves from false to true.
type Notification struct {
	ID               string   `gorm:"primaryKey" json:"id"`
	UserID           string   `gorm:"not null;index" json:"user_id"`
	Title            string   `gorm:"not null" json:"title"`
	Message          string   `json:"message"`
	RelatedRequestID *string  `gorm:"index" json:"related_request_id,omitempty"`
	RelatedRequest   *Request `gorm:"foreignKey:RelatedRequestID;constraint:OnDelete:SET NULL" json:"-"`
	// Data carries optional structured context, e.g. {"reference_number": "..."}.
	Data   datatypes.JSON `gorm:"type:jsonb" json:"data,omitempty"`
	IsRead bool           `gorm:"default:false" json:"is_read"`
	ReadAt *time.Time     `json:"read_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) (err error) {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	return
}
