package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Role string

const (
	RoleAuthor   Role = "author"
	RoleReviewer Role = "reviewer"
	RoleEditor   Role = "editor"
	RoleAdmin    Role = "admin"
)

// AssignableRoles are the roles an admin may grant through role requests or
// the user management endpoints. Admin itself is seeded, never requested.
var AssignableRoles = []Role{RoleAuthor, RoleReviewer, RoleEditor}

type User struct {
	ID           uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	Email        string       `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Name         string       `gorm:"size:100;not null" json:"name"`
	PasswordHash string       `gorm:"size:255;not null" json:"-"`
	CreatedAt    time.Time    `gorm:"autoCreateTime" json:"created_at"`
	Profile      *UserProfile `gorm:"constraint:OnDelete:CASCADE" json:"profile,omitempty"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// UserProfile carries the application-level role set plus public author
// metadata. It is created lazily on the first action that needs it.
type UserProfile struct {
	UserID uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"user_id"`
	Name   string                      `gorm:"size:100;not null" json:"name"`
	Orcid  *string                     `gorm:"size:50" json:"orcid,omitempty"`
	Roles  datatypes.JSONSlice[string] `json:"roles"`
	// LegacyRole is the pre-migration single-role column. It is emptied by
	// the startup migration and only read until every row has been converted.
	LegacyRole *string   `gorm:"column:role;size:20" json:"-"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// RoleSet resolves the effective roles, consulting the legacy column when the
// set form has not been populated yet.
func (p *UserProfile) RoleSet() []Role {
	if len(p.Roles) > 0 {
		roles := make([]Role, 0, len(p.Roles))
		for _, r := range p.Roles {
			roles = append(roles, Role(r))
		}
		return roles
	}
	if p.LegacyRole != nil && *p.LegacyRole != "" {
		return []Role{Role(*p.LegacyRole)}
	}
	return []Role{RoleAuthor}
}

func (p *UserProfile) HasRole(role Role) bool {
	for _, r := range p.RoleSet() {
		if r == role {
			return true
		}
	}
	return false
}
