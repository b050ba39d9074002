package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RequestFile is metadata for a single uploaded document.
// Exactly one of IsOriginalRequest / IsResponse is true. IsSecured is true
// only for response PDFs that passed the security pipeline. Rows are
// immutable after upload except for deletion; the FK cascades with the request.
type RequestFile struct {
	ID        string `gorm:"primaryKey" json:"id"`
	RequestID string `gorm:"index;constraint:OnDelete:CASCADE" json:"request_id"`
	Request   *Request `gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE" json:"-"`

	FileName   string `json:"file_name"`
	ObjectPath string `json:"-"` // path inside the object store, not exposed
	MimeType   string `json:"mime_type"`
	Size       int64  `json:"size"`

	IsOriginalRequest bool `json:"is_original_request"`
	IsResponse        bool `json:"is_response"`
	IsSecured         bool `json:"is_secured"`

	UploadedBy string    `json:"uploaded_by"`
	CreatedAt  time.Time `json:"created_at"`
}

func (f *RequestFile) BeforeCreate(tx *gorm.DB) (err error) {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	return
}
