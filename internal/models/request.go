package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Request statuses.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// Request priorities.
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Request is a tracked document request submitted by an organization.
// Invariant: CompletedAt and DeletionDate are set if and only if
// Status == completed, and DeletionDate is CompletedAt plus three months.
type Request struct {
	ID string `gorm:"primaryKey" json:"id"`
	// ReferenceNumber is supplied by the sender and is NOT unique;
	// collisions only mark the newer record as a duplicate.
	ReferenceNumber string    `gorm:"index" json:"reference_number"`
	DateReceived    time.Time `json:"date_received"`
	SenderOrgID     string    `gorm:"index" json:"sender_org_id"`
	Subject         string    `json:"subject"`
	Description     string    `json:"description"`
	Status          string    `gorm:"index;default:pending" json:"status"`
	Priority        string    `gorm:"default:normal" json:"priority"`
	IsDuplicate     bool      `json:"is_duplicate"`

	CreatedBy  string `gorm:"index" json:"created_by"`
	AssignedTo string `gorm:"index" json:"assigned_to"`
	UpdatedBy  string `json:"updated_by"`

	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	DeletionDate *time.Time `gorm:"index" json:"deletion_date,omitempty"`
}

// BeforeCreate generates a UUID for the request if the ID is not set.
func (r *Request) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return
}

// ValidStatus reports whether s is one of the known request statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// ValidPriority reports whether p is one of the known priorities.
func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}
