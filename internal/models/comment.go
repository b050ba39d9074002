package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Comment is an append-only note on a request, ordered by creation time.
type Comment struct {
	ID        string   `gorm:"primaryKey" json:"id"`
	RequestID string   `gorm:"index" json:"request_id"`
	Request   *Request `gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE" json:"-"`
	AuthorID  string   `gorm:"index" json:"author_id"`
	Body      string   `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return
}
