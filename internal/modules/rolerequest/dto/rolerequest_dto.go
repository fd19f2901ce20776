package dto

import (
	"time"

	"github.com/google/uuid"
)

type RequestRoleInput struct {
	RequestedRole string `json:"requested_role" binding:"required,oneof=reviewer editor"`
	Reason        string `json:"reason" binding:"required"`
}

type ReviewRoleRequestInput struct {
	Action     string  `json:"action" binding:"required,oneof=approve reject"`
	AdminNotes *string `json:"admin_notes"`
}

type RoleRequestResponse struct {
	ID            uuid.UUID  `json:"id"`
	UserID        uuid.UUID  `json:"user_id"`
	RequestedRole string     `json:"requested_role"`
	CurrentRoles  []string   `json:"current_roles"`
	Reason        string     `json:"reason"`
	Status        string     `json:"status"`
	RequestedAt   time.Time  `json:"requested_at"`
	ReviewedAt    *time.Time `json:"reviewed_at,omitempty"`
	ReviewedBy    *uuid.UUID `json:"reviewed_by,omitempty"`
	AdminNotes    *string    `json:"admin_notes,omitempty"`
}

// AdminRoleRequestResponse adds requester identity for the admin queue.
type AdminRoleRequestResponse struct {
	RoleRequestResponse
	UserEmail string `json:"user_email"`
	UserName  string `json:"user_name"`
}
