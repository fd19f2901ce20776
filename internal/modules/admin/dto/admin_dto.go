package dto

import (
	"time"

	"github.com/google/uuid"
)

type UpdateUserRolesInput struct {
	Roles []string `json:"roles" binding:"required,min=1,dive,oneof=author reviewer editor"`
}

type AdminStatsResponse struct {
	Manuscripts CountByGroup `json:"manuscripts"`
	Reviews     CountByGroup `json:"reviews"`
	Users       CountByGroup `json:"users"`
}

type CountByGroup struct {
	Total   int64            `json:"total"`
	ByGroup map[string]int64 `json:"by_group"`
}

type AdminUserResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Orcid     *string   `json:"orcid,omitempty"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"created_at"`
}
