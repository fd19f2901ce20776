package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type RoleRequestStatus string

const (
	RoleRequestPending  RoleRequestStatus = "pending"
	RoleRequestApproved RoleRequestStatus = "approved"
	RoleRequestRejected RoleRequestStatus = "rejected"
)

// RoleRequest is a user's petition for an elevated role. CurrentRoles
// snapshots the requester's role set at request time for audit purposes.
type RoleRequest struct {
	ID            uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID                   `gorm:"type:uuid;not null;index" json:"user_id"`
	RequestedRole Role                        `gorm:"size:20;not null;index" json:"requested_role"`
	CurrentRoles  datatypes.JSONSlice[string] `json:"current_roles"`
	Reason        string                      `gorm:"type:text;not null" json:"reason"`
	Status        RoleRequestStatus           `gorm:"size:20;not null;index" json:"status"`
	RequestedAt   time.Time                   `gorm:"not null" json:"requested_at"`
	ReviewedAt    *time.Time                  `json:"reviewed_at,omitempty"`
	ReviewedBy    *uuid.UUID                  `gorm:"type:uuid" json:"reviewed_by,omitempty"`
	AdminNotes    *string                     `gorm:"type:text" json:"admin_notes,omitempty"`
}

func (r *RoleRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
